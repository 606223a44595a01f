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

// Package sift implements a Scale-Invariant Feature Transform detector and
// descriptor extractor: given a grayscale image it produces a set of
// interest points invariant to translation, rotation and scale, each
// carrying a 128-dimensional descriptor.
package sift

// RawKeypoint is a candidate extremum straight out of the DoG pyramid,
// before sub-pixel refinement. Coordinates are in octave o's own frame.
type RawKeypoint struct {
	O  int // Octave index of the keypoint
	IX int // initially detected keypoint X coordinate
	IY int // initially detected keypoint Y coordinate
	IS int // scale space sample index in [1,S]
}

// Keypoint is a RawKeypoint refined via iterative quadratic fit. X, Y and S
// are sub-pixel/sub-scale coordinates in octave o's frame; SigmaAbs is the
// scale measured in input-image pixel units.
type Keypoint struct {
	RawKeypoint
	X        float32 // fitted X coordinate, octave frame
	Y        float32 // fitted Y coordinate, octave frame
	S        float32 // fitted scale index within the octave
	SigmaAbs float32 // absolute scale, sigma_pre * 2^(o + s/S)
}

// Descriptor is a Keypoint, a dominant orientation and its 128-dimensional
// unit-length feature vector, laid out as 4x4 spatial cells x 8 orientation
// bins in row-major (spatial y, spatial x, orientation) order.
type Descriptor struct {
	Keypoint    Keypoint
	Orientation float32 // radians, in [0, 2*pi)
	Vec         [128]float32
}
