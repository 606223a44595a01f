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

	"gonum.org/v1/gonum/mat"
)

const maxLocalizeIters = 5

// dogAt reads DoG layer s at (x,y) in octave oct.
func dogAt(oct *pyramidOctave, s, x, y int) float32 {
	return oct.dog[s].At(x, y)
}

// derivatives computes the scale-space gradient and Hessian of the DoG
// function at integer sample (x,y,s) via central differences.
func derivatives(oct *pyramidOctave, x, y, s int) (grad [3]float64, hess [3][3]float64) {
	d := func(ix, iy, is int) float64 { return float64(dogAt(oct, is, ix, iy)) }

	center := d(x, y, s)
	grad[0] = (d(x+1, y, s) - d(x-1, y, s)) / 2
	grad[1] = (d(x, y+1, s) - d(x, y-1, s)) / 2
	grad[2] = (d(x, y, s+1) - d(x, y, s-1)) / 2

	dxx := d(x+1, y, s) - 2*center + d(x-1, y, s)
	dyy := d(x, y+1, s) - 2*center + d(x, y-1, s)
	dss := d(x, y, s+1) - 2*center + d(x, y, s-1)
	dxy := (d(x+1, y+1, s) - d(x+1, y-1, s) - d(x-1, y+1, s) + d(x-1, y-1, s)) / 4
	dxs := (d(x+1, y, s+1) - d(x+1, y, s-1) - d(x-1, y, s+1) + d(x-1, y, s-1)) / 4
	dys := (d(x, y+1, s+1) - d(x, y+1, s-1) - d(x, y-1, s+1) + d(x, y-1, s-1)) / 4

	hess = [3][3]float64{
		{dxx, dxy, dxs},
		{dxy, dyy, dys},
		{dxs, dys, dss},
	}
	return grad, hess
}

// solveOffset solves hess*delta = -grad for delta via gonum's LU-backed
// VecDense.SolveVec, returning false if the system is singular.
func solveOffset(grad [3]float64, hess [3][3]float64) (delta [3]float64, ok bool) {
	a := mat.NewDense(3, 3, []float64{
		hess[0][0], hess[0][1], hess[0][2],
		hess[1][0], hess[1][1], hess[1][2],
		hess[2][0], hess[2][1], hess[2][2],
	})
	b := mat.NewVecDense(3, []float64{-grad[0], -grad[1], -grad[2]})
	var x mat.VecDense
	if err := x.SolveVec(a, b); err != nil {
		return delta, false
	}
	delta[0], delta[1], delta[2] = x.AtVec(0), x.AtVec(1), x.AtVec(2)
	return delta, true
}

// localizeKeypoint iteratively refines a RawKeypoint's integer sample
// position via quadratic fit of the DoG function, then applies the
// contrast and edge-response rejection tests. ok is false if the candidate
// should be discarded at any stage.
func localizeKeypoint(oct *pyramidOctave, cfg Config, rk RawKeypoint) (kp Keypoint, ok bool) {
	S := cfg.SamplesPerOctave
	x, y, s := rk.IX, rk.IY, rk.IS

	var grad [3]float64
	var hess [3][3]float64
	var delta [3]float64
	converged := false

	for iter := 0; iter < maxLocalizeIters; iter++ {
		grad, hess = derivatives(oct, x, y, s)
		d, solved := solveOffset(grad, hess)
		if !solved {
			return kp, false
		}
		delta = d

		if math.Abs(delta[0]) < 0.6 && math.Abs(delta[1]) < 0.6 && math.Abs(delta[2]) < 0.6 {
			converged = true
			break
		}

		moveX := stepTowards(delta[0])
		moveY := stepTowards(delta[1])
		moveS := stepTowards(delta[2])

		nx, ny, ns := x+moveX, y+moveY, s+moveS
		if nx < 1 || nx > oct.width-2 || ny < 1 || ny > oct.height-2 || ns < 1 || ns > S {
			return kp, false
		}
		x, y, s = nx, ny, ns
	}

	if !converged {
		return kp, false
	}
	if math.Abs(delta[0]) >= 1.5 || math.Abs(delta[1]) >= 1.5 || math.Abs(delta[2]) >= 1.5 {
		return kp, false
	}

	center := float64(dogAt(oct, s, x, y))
	dHat := center + 0.5*(grad[0]*delta[0]+grad[1]*delta[1]+grad[2]*delta[2])
	if math.Abs(dHat) < float64(cfg.ContrastThreshold) {
		return kp, false
	}

	dxx, dxy, dyy := hess[0][0], hess[0][1], hess[1][1]
	trace := dxx + dyy
	det := dxx*dyy - dxy*dxy
	if det <= 0 {
		return kp, false
	}
	r := float64(cfg.EdgeThreshold)
	if trace*trace/det >= (r+1)*(r+1)/r {
		return kp, false
	}

	kp = Keypoint{
		RawKeypoint: RawKeypoint{O: oct.o, IX: x, IY: y, IS: s},
		X:           float32(float64(x) + delta[0]),
		Y:           float32(float64(y) + delta[1]),
		S:           float32(float64(s) + delta[2]),
	}
	kp.SigmaAbs = sigmaAbs(cfg, oct.o, kp.S)
	return kp, true
}

// stepTowards rounds a Newton offset to an integer sample step: zero if
// the offset is below the convergence threshold, else the nearest integer
// in its direction (almost always +-1).
func stepTowards(delta float64) int {
	if math.Abs(delta) < 0.6 {
		return 0
	}
	return int(math.Round(delta))
}
