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

const (
	descCells    = 4  // cells per spatial axis
	descSamples  = 16 // samples per spatial axis
	descOriBins  = 8
	descMaxEntry = 0.2 // clamp applied before the second normalization
)

// buildDescriptor samples the gradient field around kp in a frame rotated
// by theta, accumulating a trilinearly-interpolated 4x4x8 histogram, then
// normalizes it to a unit-length, illumination-robust feature vector.
func buildDescriptor(oct *pyramidOctave, cfg Config, kp Keypoint, theta float32) Descriptor {
	oct.ensureGradOri()

	S := cfg.SamplesPerOctave
	sigmaKp := sigmaRel(cfg, kp.S)
	cellWidth := 3 * sigmaKp

	layer := int(math.Round(float64(kp.S)))
	if layer < 0 {
		layer = 0
	}
	if layer > S+2 {
		layer = S + 2
	}

	x0 := float64(math.Round(float64(kp.X)))
	y0 := float64(math.Round(float64(kp.Y)))
	cosT := math.Cos(float64(theta))
	sinT := math.Sin(float64(theta))

	var vec [128]float32
	weightSigma2 := 2 * float64(descCells/2) * float64(descCells/2)

	for i := 0; i < descSamples; i++ {
		sx := -2 + (float64(i)+0.5)*(float64(descCells)/float64(descSamples))
		for j := 0; j < descSamples; j++ {
			sy := -2 + (float64(j)+0.5)*(float64(descCells)/float64(descSamples))

			px := x0 + float64(cellWidth)*(cosT*sx-sinT*sy)
			py := y0 + float64(cellWidth)*(sinT*sx+cosT*sy)
			ix := int(math.Round(px))
			iy := int(math.Round(py))
			if ix < 1 || ix > oct.width-2 || iy < 1 || iy > oct.height-2 {
				continue
			}

			mag := float64(oct.grad[layer].At(ix, iy))
			if mag == 0 {
				continue
			}
			pixAng := float64(oct.ori[layer].At(ix, iy))
			relAng := math.Mod(pixAng-float64(theta), 2*math.Pi)
			if relAng < 0 {
				relAng += 2 * math.Pi
			}

			gaussWeight := math.Exp(-(sx*sx + sy*sy) / weightSigma2)
			weighted := mag * gaussWeight

			binX := sx + float64(descCells)/2 - 0.5
			binY := sy + float64(descCells)/2 - 0.5
			binO := relAng / (2 * math.Pi) * descOriBins

			accumulateTrilinear(&vec, binX, binY, binO, weighted)
		}
	}

	normalizeDescriptor(&vec)

	return Descriptor{Keypoint: kp, Orientation: theta, Vec: vec}
}

// accumulateTrilinear distributes weight across the (at most) 2x2x2
// neighboring histogram cells around the fractional coordinate
// (binX,binY,binO). Spatial bins outside [0,descCells) are dropped;
// orientation bins wrap circularly.
func accumulateTrilinear(vec *[128]float32, binX, binY, binO, weight float64) {
	x0 := int(math.Floor(binX))
	y0 := int(math.Floor(binY))
	o0 := int(math.Floor(binO))
	fx := binX - float64(x0)
	fy := binY - float64(y0)
	fo := binO - float64(o0)

	for dx := 0; dx <= 1; dx++ {
		xi := x0 + dx
		if xi < 0 || xi >= descCells {
			continue
		}
		wx := fx
		if dx == 0 {
			wx = 1 - fx
		}
		for dy := 0; dy <= 1; dy++ {
			yi := y0 + dy
			if yi < 0 || yi >= descCells {
				continue
			}
			wy := fy
			if dy == 0 {
				wy = 1 - fy
			}
			for do := 0; do <= 1; do++ {
				oi := ((o0+do)%descOriBins + descOriBins) % descOriBins
				wo := fo
				if do == 0 {
					wo = 1 - fo
				}
				idx := (yi*descCells+xi)*descOriBins + oi
				vec[idx] += float32(weight * wx * wy * wo)
			}
		}
	}
}

func normalizeDescriptor(vec *[128]float32) {
	l2Normalize(vec)
	for i, v := range vec {
		if v > descMaxEntry {
			vec[i] = descMaxEntry
		}
	}
	l2Normalize(vec)
}

func l2Normalize(vec *[128]float32) {
	sum := float64(0)
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
}
