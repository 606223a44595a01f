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

import "math"

const orientationBins = 36

// smoothingPasses is the number of width-3 box filter passes applied to the
// orientation histogram before peak detection.
const smoothingPasses = 6

// assignOrientations builds a gradient-orientation histogram in a
// gaussian-weighted square window around kp, smooths it, and returns one
// orientation per histogram peak within 80% of the maximum.
func assignOrientations(oct *pyramidOctave, cfg Config, kp Keypoint) []float32 {
	oct.ensureGradOri()

	S := cfg.SamplesPerOctave
	sigmaKp := sigmaRel(cfg, kp.S)
	sigmaWin := 1.5 * sigmaKp

	layer := int(math.Round(float64(kp.S)))
	if layer < 0 {
		layer = 0
	}
	if layer > S+2 {
		layer = S + 2
	}

	cx := int(math.Round(float64(kp.X)))
	cy := int(math.Round(float64(kp.Y)))
	radius := int(math.Ceil(3 * float64(sigmaWin)))

	var hist [orientationBins]float32
	twoSigma2 := 2 * float64(sigmaWin) * float64(sigmaWin)

	for v := cy - radius; v <= cy+radius; v++ {
		if v < 1 || v > oct.height-2 {
			continue
		}
		for u := cx - radius; u <= cx+radius; u++ {
			if u < 1 || u > oct.width-2 {
				continue
			}
			mag := oct.grad[layer].At(u, v)
			if mag == 0 {
				continue
			}
			ang := oct.ori[layer].At(u, v)
			dx := float64(u) - float64(kp.X)
			dy := float64(v) - float64(kp.Y)
			weight := float32(math.Exp(-(dx*dx + dy*dy) / twoSigma2))
			bin := int(float64(ang) / (2 * math.Pi) * orientationBins)
			bin = ((bin % orientationBins) + orientationBins) % orientationBins
			hist[bin] += mag * weight
		}
	}

	smoothHistogram(&hist)
	return extractPeaks(&hist)
}

func smoothHistogram(hist *[orientationBins]float32) {
	for pass := 0; pass < smoothingPasses; pass++ {
		var next [orientationBins]float32
		for i := 0; i < orientationBins; i++ {
			prev := hist[(i-1+orientationBins)%orientationBins]
			cur := hist[i]
			nxt := hist[(i+1)%orientationBins]
			next[i] = (prev + cur + nxt) / 3
		}
		*hist = next
	}
}

func extractPeaks(hist *[orientationBins]float32) []float32 {
	max := float32(0)
	for _, v := range hist {
		if v > max {
			max = v
		}
	}
	if max <= 0 {
		return nil
	}

	var orientations []float32
	for i := 0; i < orientationBins; i++ {
		v := hist[i]
		if v < 0.8*max {
			continue
		}
		prev := hist[(i-1+orientationBins)%orientationBins]
		next := hist[(i+1)%orientationBins]
		if v <= prev || v <= next {
			continue
		}
		denom := prev - 2*v + next
		offset := float32(0)
		if denom != 0 {
			offset = 0.5 * (prev - next) / denom
		}
		peakBin := float64(i) + float64(offset)
		angle := peakBin * (2 * math.Pi / orientationBins)
		angle = math.Mod(angle, 2*math.Pi)
		if angle < 0 {
			angle += 2 * math.Pi
		}
		orientations = append(orientations, float32(angle))
	}
	return orientations
}
