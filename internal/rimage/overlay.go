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

package rimage

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// OverlayPoint is a single debug annotation: position in the image's own
// frame, radius to draw, and orientation in radians used to pick the hue.
type OverlayPoint struct {
	X, Y      float32
	Radius    float32
	Orientation float32
}

// DrawOverlay renders img as grayscale with OverlayPoint markers drawn as
// hue-coded circles (hue encodes orientation, via go-colorful's HSV model)
// and writes the result as a PNG to path.
func DrawOverlay(img FloatImage, points []OverlayPoint, path string) error {
	dst := image.NewRGBA(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			v := img.At(x, y)
			if v < 0 {
				v = 0
			}
			if v > 1 {
				v = 1
			}
			g := uint8(v * 255)
			dst.Set(x, y, color.RGBA{g, g, g, 255})
		}
	}

	for _, p := range points {
		hueDeg := math.Mod(float64(p.Orientation)*180/math.Pi, 360)
		if hueDeg < 0 {
			hueDeg += 360
		}
		c := colorful.Hsv(hueDeg, 1, 1)
		drawCircle(dst, p.X, p.Y, p.Radius, c)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, dst)
}

// drawCircle draws an unfilled circle outline of the given radius centered
// at (cx,cy) using Bresenham-like sampling over the angle, in place.
func drawCircle(dst draw.Image, cx, cy, radius float32, c colorful.Color) {
	if radius < 1 {
		radius = 1
	}
	col := color.RGBA{uint8(c.R * 255), uint8(c.G * 255), uint8(c.B * 255), 255}
	steps := int(2 * math.Pi * float64(radius))
	if steps < 8 {
		steps = 8
	}
	for i := 0; i < steps; i++ {
		theta := 2 * math.Pi * float64(i) / float64(steps)
		x := int(cx + radius*float32(math.Cos(theta)))
		y := int(cy + radius*float32(math.Sin(theta)))
		if x >= 0 && x < dst.Bounds().Dx() && y >= 0 && y < dst.Bounds().Dy() {
			dst.Set(x, y, col)
		}
	}
	// Mark the center pixel too, so near-zero-radius keypoints stay visible.
	if int(cx) >= 0 && int(cx) < dst.Bounds().Dx() && int(cy) >= 0 && int(cy) < dst.Bounds().Dy() {
		dst.Set(int(cx), int(cy), col)
	}
}
