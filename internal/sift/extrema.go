// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package sift

// detectExtrema scans DoG layers [1,S] of the octave for samples that are
// strictly greater than, or strictly less than, all 26 neighbors in the
// 3x3x3 cube around them. Flat regions (ties) are never reported.
func detectExtrema(oct *pyramidOctave, cfg Config) []RawKeypoint {
	S := cfg.SamplesPerOctave
	w, h := oct.width, oct.height
	var raws []RawKeypoint

	for s := 1; s <= S; s++ {
		below := oct.dog[s-1].Pix
		cur := oct.dog[s].Pix
		above := oct.dog[s+1].Pix
		for y := 1; y < h-1; y++ {
			for x := 1; x < w-1; x++ {
				idx := y*w + x
				if isExtremum(below, cur, above, w, idx) {
					raws = append(raws, RawKeypoint{O: oct.o, IX: x, IY: y, IS: s})
				}
			}
		}
	}
	return raws
}

func isExtremum(below, cur, above []float32, w, idx int) bool {
	v := cur[idx]
	isMax, isMin := true, true

	visit := func(n float32) bool {
		if n >= v {
			isMax = false
		}
		if n <= v {
			isMin = false
		}
		return isMax || isMin
	}

	offsets := [8]int{-w - 1, -w, -w + 1, -1, 1, w - 1, w, w + 1}

	for _, off := range offsets {
		if !visit(cur[idx+off]) {
			return false
		}
	}
	for _, off := range offsets {
		if !visit(below[idx+off]) {
			return false
		}
	}
	if !visit(below[idx]) {
		return false
	}
	for _, off := range offsets {
		if !visit(above[idx+off]) {
			return false
		}
	}
	if !visit(above[idx]) {
		return false
	}
	return true
}
