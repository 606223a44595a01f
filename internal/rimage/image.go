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

// Package rimage implements the "Image provider" boundary the SIFT core
// consumes: a single-channel float image value type, byte ingress, and
// file decoding. None of the SIFT algorithm lives here.
package rimage

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/tiff"
)

// ImageKind distinguishes how a FloatImage's pixel values were produced,
// per the "dynamic dispatch via base-image type" design note: a sum type
// at the sole ingress point rather than templating the algorithm.
type ImageKind int

const (
	// KindFloat marks data that was already floating point in [0,1].
	KindFloat ImageKind = iota
	// KindByte marks data ingested from an 8-bit source and divided by 255.
	KindByte
)

// FloatImage is a single-channel, row-major grayscale image with values in
// [0,1].
type FloatImage struct {
	Width  int
	Height int
	Pix    []float32
	Kind   ImageKind
}

// NewFloatImage allocates a zeroed FloatImage of the given size.
func NewFloatImage(width, height int) FloatImage {
	return FloatImage{Width: width, Height: height, Pix: make([]float32, width*height)}
}

// At returns the pixel value at (x,y). Out-of-bounds reads return 0.
func (img *FloatImage) At(x, y int) float32 {
	if x < 0 || x >= img.Width || y < 0 || y >= img.Height {
		return 0
	}
	return img.Pix[y*img.Width+x]
}

// Set stores the pixel value at (x,y).
func (img *FloatImage) Set(x, y int, v float32) {
	img.Pix[y*img.Width+x] = v
}

// FromGray converts an 8-bit grayscale image.Gray into a FloatImage,
// dividing values by 255 per spec.md §6.
func FromGray(g *image.Gray) FloatImage {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	out := NewFloatImage(w, h)
	out.Kind = KindByte
	for y := 0; y < h; y++ {
		row := g.Pix[(y)*g.Stride : (y)*g.Stride+w]
		for x := 0; x < w; x++ {
			out.Pix[y*w+x] = float32(row[x]) / 255.0
		}
	}
	return out
}

// FromImage converts any image.Image to grayscale FloatImage using the
// Rec. 601 luma weights, computed directly from the 16-bit RGBA channels.
func FromImage(src image.Image) FloatImage {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := NewFloatImage(w, h)
	out.Kind = KindByte
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g2, bch, _ := src.At(b.Min.X+x, b.Min.Y+y).RGBA()
			// RGBA() returns 16-bit-scaled channels; combine via Rec. 601 luma.
			lum := (0.299*float64(r) + 0.587*float64(g2) + 0.114*float64(bch)) / 65535.0
			out.Pix[y*w+x] = float32(lum)
		}
	}
	return out
}

// DecodeFile reads a PNG, JPEG or TIFF file from disk and converts it to a
// grayscale FloatImage. The file format is taken from the registered
// stdlib/x/image decoders and the extension is used only as a TIFF/PNG/JPEG
// hint for x/image/tiff, which is not registered with image.Decode in all
// toolchains.
func DecodeFile(path string) (FloatImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return FloatImage{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".tif", ".tiff":
		img, err := tiff.Decode(f)
		if err != nil {
			return FloatImage{}, fmt.Errorf("decoding tiff %s: %w", path, err)
		}
		return FromImage(img), nil
	default:
		img, _, err := image.Decode(f)
		if err != nil {
			return FloatImage{}, fmt.Errorf("decoding %s: %w", path, err)
		}
		return FromImage(img), nil
	}
}
