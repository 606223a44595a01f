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

// TestExtremumStrictnessTieYieldsNone exercises spec scenario: a synthetic
// DoG cube where the center equals one neighbor must yield zero extrema.
func TestExtremumStrictnessTieYieldsNone(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SamplesPerOctave = 1

	below := rimage.NewFloatImage(3, 3)
	above := rimage.NewFloatImage(3, 3)
	cur := rimage.NewFloatImage(3, 3)
	for i := range cur.Pix {
		cur.Pix[i] = 1
	}
	cur.Pix[4] = 5 // center candidate
	cur.Pix[0] = 5 // tied neighbor breaks strictness

	oct := pyramidOctave{o: 0, width: 3, height: 3, dog: []rimage.FloatImage{below, cur, above}}
	raws := detectExtrema(&oct, cfg)
	if len(raws) != 0 {
		t.Fatalf("expected zero extrema with a tied neighbor, got %d", len(raws))
	}
}

func TestExtremumStrictnessStrictYieldsOne(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SamplesPerOctave = 1

	below := rimage.NewFloatImage(3, 3)
	above := rimage.NewFloatImage(3, 3)
	cur := rimage.NewFloatImage(3, 3)
	for i := range cur.Pix {
		cur.Pix[i] = 1
	}
	cur.Pix[4] = 5

	oct := pyramidOctave{o: 0, width: 3, height: 3, dog: []rimage.FloatImage{below, cur, above}}
	raws := detectExtrema(&oct, cfg)
	if len(raws) != 1 {
		t.Fatalf("expected exactly one extremum, got %d", len(raws))
	}
	if raws[0].IX != 1 || raws[0].IY != 1 || raws[0].IS != 1 {
		t.Fatalf("unexpected raw keypoint location: %+v", raws[0])
	}
}

func TestExtremumStrictnessMinimum(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SamplesPerOctave = 1

	below := rimage.NewFloatImage(3, 3)
	above := rimage.NewFloatImage(3, 3)
	cur := rimage.NewFloatImage(3, 3)
	for i := range cur.Pix {
		cur.Pix[i] = 1
	}
	cur.Pix[4] = -5

	oct := pyramidOctave{o: 0, width: 3, height: 3, dog: []rimage.FloatImage{below, cur, above}}
	raws := detectExtrema(&oct, cfg)
	if len(raws) != 1 {
		t.Fatalf("expected exactly one extremum (a minimum), got %d", len(raws))
	}
}
