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

// Package statsum calculates basic summary statistics for diagnostic
// logging. It does not attempt outlier-robust location/scale estimation.
package statsum

import (
	"fmt"
	"math"
)

// Summary holds basic statistics on a data array.
type Summary struct {
	Min    float32
	Max    float32
	Mean   float32
	StdDev float32
}

func (s Summary) String() string {
	return fmt.Sprintf("min=%.4g max=%.4g mean=%.4g stddev=%.4g", s.Min, s.Max, s.Mean, s.StdDev)
}

// Summarize calculates min, max, mean and standard deviation for data.
func Summarize(data []float32) (s Summary) {
	if len(data) == 0 {
		return Summary{}
	}
	s.Min, s.Mean, s.Max = minMeanMax(data)
	variance := calcVariance(data, s.Mean)
	s.StdDev = float32(math.Sqrt(float64(variance)))
	return s
}

func minMeanMax(data []float32) (min, mean, max float32) {
	min, max = data[0], data[0]
	sum := float64(0)
	for _, d := range data {
		if d < min {
			min = d
		}
		if d > max {
			max = d
		}
		sum += float64(d)
	}
	mean = float32(sum / float64(len(data)))
	return min, mean, max
}

func calcVariance(data []float32, mean float32) float32 {
	sum := float64(0)
	for _, d := range data {
		delta := float64(d) - float64(mean)
		sum += delta * delta
	}
	return float32(sum / float64(len(data)))
}
