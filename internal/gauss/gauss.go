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

// Package gauss provides the separable Gaussian blur and resampling
// primitives consumed by the SIFT scale-space pyramid builder.
package gauss

import "math"

const sqrt2 = float32(math.Sqrt2)

// Check if coordinate is within [0, size-1], and if not, reflect out of
// bounds coordinates back into the value range.
func reflect(size, x int) int {
	for x < 0 || x >= size {
		if x < 0 {
			x = -x - 1
		} else {
			x = 2*size - x - 1
		}
	}
	return x
}

// GaussianDefiniteIntegral returns the definite integral of the gaussian
// function with midpoint mu and standard deviation sigma for input x.
func GaussianDefiniteIntegral(mu, sigma, x float32) float32 {
	return 0.5 * (1 + float32(math.Erf(float64((x-mu)/(sqrt2*sigma)))))
}

// GaussianKernel1D generates a 1D gaussian kernel for the given sigma,
// based on symbolic integration via the error function.
func GaussianKernel1D(sigma float32) (kernel []float32) {
	mu := float32(0)

	// Find minimal kernel width for which the area under the curve left
	// of the kernel is below the acceptable error.
	acceptOut := float32(0.01)
	radius := 0
	for {
		val := GaussianDefiniteIntegral(mu, sigma, float32(-0.5)-float32(radius))
		if val < acceptOut {
			break
		}
		radius++
	}
	width := 2*radius + 1
	kernel = make([]float32, width)

	// Calculate left half of the kernel via symbolic integration.
	sum := float32(0)
	lower := GaussianDefiniteIntegral(mu, sigma, float32(-0.5)-float32(radius))
	for i := 0; i <= radius; i++ {
		upper := GaussianDefiniteIntegral(mu, sigma, float32(-0.5)-float32(radius)+float32(i+1))
		delta := upper - lower
		kernel[i] = delta
		sum += delta
		lower = upper
	}

	// Mirror right half of the kernel to avoid numeric instability.
	for i := 1; i <= radius; i++ {
		value := kernel[radius-i]
		kernel[radius+i] = value
		sum += value
	}

	// Normalize the sum of the kernel to 1, for the truncated distribution tail.
	factor := 1.0 / sum
	for i := range kernel {
		kernel[i] *= factor
	}
	return kernel
}

// Convolve1DX convolves the 2D image given by data and width with kernel
// along the x axis, storing the result in res.
func Convolve1DX(res, data []float32, width int, kernel []float32) {
	height := len(data) / width
	k := len(kernel) / 2
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			sum := float32(0.0)
			for i := -k; i <= k; i++ {
				x1 := reflect(width, x+i)
				sum += data[y*width+x1] * kernel[i+k]
			}
			res[y*width+x] = sum
		}
	}
}

// Convolve1DY convolves the 2D image given by data and width with kernel
// along the y axis, storing the result in res.
func Convolve1DY(res, data []float32, width int, kernel []float32) {
	height := len(data) / width
	k := len(kernel) / 2
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			sum := float32(0.0)
			for i := -k; i <= k; i++ {
				y1 := reflect(height, y+i)
				sum += data[y1*width+x] * kernel[i+k]
			}
			res[y*width+x] = sum
		}
	}
}

// Blur applies a separable Gaussian blur of the given sigma to data (width
// x height), returning a newly allocated result.
func Blur(data []float32, width int, sigma float32) []float32 {
	if sigma <= 0 {
		res := make([]float32, len(data))
		copy(res, data)
		return res
	}
	kernel := GaussianKernel1D(sigma)
	tmp := make([]float32, len(data))
	res := make([]float32, len(data))
	Convolve1DX(tmp, data, width, kernel)
	Convolve1DY(res, tmp, width, kernel)
	return res
}

// IncrementalSigma returns the sigma of the additional blur needed to take
// an image already blurred to `current` up to `target`, per
// sigma = sqrt(target^2 - current^2). Returns 0 if target <= current.
func IncrementalSigma(current, target float32) float32 {
	diff := target*target - current*current
	if diff <= 0 {
		return 0
	}
	return float32(math.Sqrt(float64(diff)))
}

// Downsample2 picks every second pixel starting at (0,0), halving width
// and height (rounded down, minimum 1).
func Downsample2(data []float32, width, height int) (res []float32, newWidth, newHeight int) {
	newWidth = width / 2
	if newWidth < 1 {
		newWidth = 1
	}
	newHeight = height / 2
	if newHeight < 1 {
		newHeight = 1
	}
	res = make([]float32, newWidth*newHeight)
	for y := 0; y < newHeight; y++ {
		for x := 0; x < newWidth; x++ {
			res[y*newWidth+x] = data[(2*y)*width+(2*x)]
		}
	}
	return res, newWidth, newHeight
}

// Upsample2 performs bilinear 2x upsampling of data (width x height).
func Upsample2(data []float32, width, height int) (res []float32, newWidth, newHeight int) {
	newWidth = width * 2
	newHeight = height * 2
	res = make([]float32, newWidth*newHeight)
	for y := 0; y < newHeight; y++ {
		// Map destination row to source coordinate space.
		sy := (float32(y) + 0.5) * 0.5 - 0.5
		if sy < 0 {
			sy = 0
		}
		yl := int(math.Floor(float64(sy)))
		yh := yl + 1
		if yh >= height {
			yh = height - 1
		}
		yr := sy - float32(yl)

		for x := 0; x < newWidth; x++ {
			sx := (float32(x) + 0.5) * 0.5 - 0.5
			if sx < 0 {
				sx = 0
			}
			xl := int(math.Floor(float64(sx)))
			xh := xl + 1
			if xh >= width {
				xh = width - 1
			}
			xr := sx - float32(xl)

			vyl := data[yl*width+xl]*(1-xr) + data[yl*width+xh]*xr
			vyh := data[yh*width+xl]*(1-xr) + data[yh*width+xh]*xr
			res[y*newWidth+x] = vyl*(1-yr) + vyh*yr
		}
	}
	return res, newWidth, newHeight
}
