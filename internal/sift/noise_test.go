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
	"testing"

	"github.com/valyala/fastrand"

	"github.com/cos65535/mve/internal/rimage"
)

// addSpeckle stamps low-amplitude noise onto img, using a zero-valued
// fastrand.RNG, which seeds itself from the clock on first use, so the
// pattern differs between calls - synthetic test data, never algorithm
// randomness.
func addSpeckle(img *rimage.FloatImage, amplitude float32) {
	rng := fastrand.RNG{}
	for i := range img.Pix {
		noise := (float32(rng.Uint32n(1001))/1000 - 0.5) * 2 * amplitude
		v := img.Pix[i] + noise
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		img.Pix[i] = v
	}
}

// TestProcessDeterministicWithNoise exercises the determinism property
// under non-uniform input: a speckled disk image, processed twice, must
// still yield a bit-identical descriptor sequence.
func TestProcessDeterministicWithNoise(t *testing.T) {
	build := func() rimage.FloatImage {
		img := rimage.NewFloatImage(64, 64)
		drawDisk(&img, 24, 24, 6, 1)
		addSpeckle(&img, 0.05)
		return img
	}
	img := build()

	run := func() []Descriptor {
		det, err := NewDetector(DefaultConfig())
		if err != nil {
			t.Fatalf("NewDetector: %v", err)
		}
		if err := det.Process(img); err != nil {
			t.Fatalf("Process: %v", err)
		}
		return det.Descriptors()
	}

	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("descriptor count differs across runs: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("descriptor %d differs across runs", i)
		}
	}
}
