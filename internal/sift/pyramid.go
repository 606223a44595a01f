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

import (
	"math"

	"github.com/cos65535/mve/internal/gauss"
	"github.com/cos65535/mve/internal/rimage"
)

// pyramidOctave holds one octave's Gaussian, Difference-of-Gaussian and
// (lazily built) gradient magnitude/orientation layers. Gauss and Ori have
// S+3 layers indexed [0,S+2]; DoG has S+2 layers indexed [0,S+1], with
// DoG[s] = Gauss[s+1] - Gauss[s].
type pyramidOctave struct {
	o             int
	width, height int
	gauss         []rimage.FloatImage
	dog           []rimage.FloatImage
	grad          []rimage.FloatImage
	ori           []rimage.FloatImage
	gradOriBuilt  bool
}

// octaveDims returns the pixel dimensions of octave o relative to the
// original image size (w,h), following the same up/down-sampling the
// pyramid builder applies.
func octaveDims(w, h, o int) (int, int) {
	if o < 0 {
		shift := uint(-o)
		return w << shift, h << shift
	}
	shift := uint(o)
	ow := w >> shift
	oh := h >> shift
	if ow < 1 {
		ow = 1
	}
	if oh < 1 {
		oh = 1
	}
	return ow, oh
}

// checkOctaveSizes rejects configurations where any octave in
// [minOctave,maxOctave] would fall below the 4x4 floor the extremum
// detector's 1-pixel border and the localizer's central differences need.
func checkOctaveSizes(w, h, minOctave, maxOctave int) error {
	for o := minOctave; o <= maxOctave; o++ {
		ow, oh := octaveDims(w, h, o)
		if ow < 4 || oh < 4 {
			return errImageTooSmall("octave %d would be %dx%d, below the 4x4 floor", o, ow, oh)
		}
	}
	return nil
}

// buildPyramid constructs the Gaussian and DoG layers for every octave in
// [cfg.MinOctave,cfg.MaxOctave] from the input image.
func buildPyramid(img rimage.FloatImage, cfg Config) ([]pyramidOctave, error) {
	S := cfg.SamplesPerOctave
	if err := checkOctaveSizes(img.Width, img.Height, cfg.MinOctave, cfg.MaxOctave); err != nil {
		return nil, err
	}

	base, bw, bh, baseSigma := seedBaseLayer(img, cfg)

	n := cfg.MaxOctave - cfg.MinOctave + 1
	octaves := make([]pyramidOctave, n)

	layer0, w, h := base, bw, bh
	sigma0 := baseSigma
	for i := 0; i < n; i++ {
		o := cfg.MinOctave + i
		oct := pyramidOctave{o: o, width: w, height: h}
		oct.gauss = make([]rimage.FloatImage, S+3)
		oct.gauss[0] = rimage.FloatImage{Width: w, Height: h, Pix: layer0}

		prevSigma := sigma0
		for s := 1; s <= S+2; s++ {
			targetSigma := cfg.PreSmoothing * float32(math.Pow(2, float64(s)/float64(S)))
			inc := gauss.IncrementalSigma(prevSigma, targetSigma)
			blurred := gauss.Blur(oct.gauss[s-1].Pix, w, inc)
			oct.gauss[s] = rimage.FloatImage{Width: w, Height: h, Pix: blurred}
			prevSigma = targetSigma
		}

		oct.dog = make([]rimage.FloatImage, S+2)
		for s := 0; s <= S+1; s++ {
			oct.dog[s] = subtractImages(oct.gauss[s+1], oct.gauss[s])
		}

		octaves[i] = oct

		if i+1 < n {
			// Seed the next octave from this octave's layer S (absolute
			// sigma pre_smoothing*2 in this octave's frame), downsampled 2x.
			down, nw, nh := gauss.Downsample2(oct.gauss[S].Pix, w, h)
			layer0, w, h = down, nw, nh
			sigma0 = cfg.PreSmoothing
		}
	}
	return octaves, nil
}

// seedBaseLayer builds the layer-0 image of the min-octave, handling
// upsampling (MinOctave == -1), the identity case (MinOctave == 0) and
// subsampling (MinOctave > 0), then blurs it up to PreSmoothing.
func seedBaseLayer(img rimage.FloatImage, cfg Config) (data []float32, w, h int, sigma float32) {
	switch {
	case cfg.MinOctave < 0:
		up, uw, uh := img.Pix, img.Width, img.Height
		for i := 0; i < -cfg.MinOctave; i++ {
			up, uw, uh = gauss.Upsample2(up, uw, uh)
		}
		data, w, h = up, uw, uh
		sigma = cfg.InherentBlur * float32(uint(1)<<uint(-cfg.MinOctave))
	case cfg.MinOctave == 0:
		data = append([]float32(nil), img.Pix...)
		w, h = img.Width, img.Height
		sigma = cfg.InherentBlur
	default:
		cur, cw, ch := img.Pix, img.Width, img.Height
		for i := 0; i < cfg.MinOctave; i++ {
			cur, cw, ch = gauss.Downsample2(cur, cw, ch)
		}
		data, w, h = cur, cw, ch
		sigma = cfg.InherentBlur
	}

	inc := gauss.IncrementalSigma(sigma, cfg.PreSmoothing)
	data = gauss.Blur(data, w, inc)
	return data, w, h, cfg.PreSmoothing
}

func subtractImages(a, b rimage.FloatImage) rimage.FloatImage {
	out := rimage.NewFloatImage(a.Width, a.Height)
	for i := range out.Pix {
		out.Pix[i] = a.Pix[i] - b.Pix[i]
	}
	return out
}

// ensureGradOri lazily computes the gradient magnitude and orientation
// layers for every Gaussian layer of the octave, on first access. Border
// pixels (where the central difference is undefined) are left at zero.
func (oct *pyramidOctave) ensureGradOri() {
	if oct.gradOriBuilt {
		return
	}
	w, h := oct.width, oct.height
	oct.grad = make([]rimage.FloatImage, len(oct.gauss))
	oct.ori = make([]rimage.FloatImage, len(oct.gauss))
	for s, g := range oct.gauss {
		mag := rimage.NewFloatImage(w, h)
		ang := rimage.NewFloatImage(w, h)
		for y := 1; y < h-1; y++ {
			for x := 1; x < w-1; x++ {
				dx := (g.At(x+1, y) - g.At(x-1, y)) / 2
				dy := (g.At(x, y+1) - g.At(x, y-1)) / 2
				idx := y*w + x
				mag.Pix[idx] = float32(math.Sqrt(float64(dx*dx + dy*dy)))
				theta := math.Atan2(float64(dy), float64(dx))
				if theta < 0 {
					theta += 2 * math.Pi
				}
				ang.Pix[idx] = float32(theta)
			}
		}
		oct.grad[s] = mag
		oct.ori[s] = ang
	}
	oct.gradOriBuilt = true
}

// sigmaAbs returns the absolute (input-pixel) scale for octave-relative
// sample index s, given the configured pre-smoothing and samples/octave.
func sigmaAbs(cfg Config, o int, s float32) float32 {
	return cfg.PreSmoothing * float32(math.Pow(2, float64(o)+float64(s)/float64(cfg.SamplesPerOctave)))
}

// sigmaRel returns the octave-relative scale (no 2^o factor) for
// octave-relative sample index s.
func sigmaRel(cfg Config, s float32) float32 {
	return cfg.PreSmoothing * float32(math.Pow(2, float64(s)/float64(cfg.SamplesPerOctave)))
}
