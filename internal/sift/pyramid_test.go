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

	"github.com/cos65535/mve/internal/rimage"
)

// TestBuildPyramidOctaveCount exercises spec scenario: with o_min=-1,
// o_max=4, S=3, the pyramid has 6 octaves with 6 Gaussian layers and 5 DoG
// layers each.
func TestBuildPyramidOctaveCount(t *testing.T) {
	cfg := DefaultConfig()
	img := rimage.NewFloatImage(64, 64)
	octaves, err := buildPyramid(img, cfg)
	if err != nil {
		t.Fatalf("buildPyramid: %v", err)
	}
	if len(octaves) != 6 {
		t.Fatalf("expected 6 octaves, got %d", len(octaves))
	}
	for i, oct := range octaves {
		if len(oct.gauss) != 6 {
			t.Errorf("octave %d: expected 6 gaussian layers, got %d", i, len(oct.gauss))
		}
		if len(oct.dog) != 5 {
			t.Errorf("octave %d: expected 5 DoG layers, got %d", i, len(oct.dog))
		}
		wantO := cfg.MinOctave + i
		if oct.o != wantO {
			t.Errorf("octave %d: expected o=%d, got %d", i, wantO, oct.o)
		}
	}
}

func TestBuildPyramidRejectsTooSmallImage(t *testing.T) {
	cfg := DefaultConfig()
	img := rimage.NewFloatImage(3, 3)
	if _, err := buildPyramid(img, cfg); err == nil {
		t.Fatalf("expected an error for a 3x3 image")
	}
}

func TestOctaveDims(t *testing.T) {
	cases := []struct {
		o          int
		wantW, wantH int
	}{
		{-1, 128, 128},
		{0, 64, 64},
		{1, 32, 32},
		{4, 4, 4},
	}
	for _, tc := range cases {
		w, h := octaveDims(64, 64, tc.o)
		if w != tc.wantW || h != tc.wantH {
			t.Errorf("octaveDims(64,64,%d) = (%d,%d), want (%d,%d)", tc.o, w, h, tc.wantW, tc.wantH)
		}
	}
}
