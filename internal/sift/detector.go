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
	"runtime"
	"sort"
	"sync"

	"github.com/cos65535/mve/internal/rimage"
	"github.com/cos65535/mve/internal/xlog"
)

// Detector runs the full pipeline - pyramid construction, extremum
// detection, localization, orientation assignment and descriptor
// extraction - over a single input image.
type Detector struct {
	cfg         Config
	octaves     []pyramidOctave
	keypoints   []Keypoint
	descriptors []Descriptor
}

// NewDetector validates cfg and returns a Detector ready for Process.
func NewDetector(cfg Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Detector{cfg: cfg}, nil
}

// Process runs the pipeline on img, replacing any previous results.
func (d *Detector) Process(img rimage.FloatImage) error {
	xlog.LogSummary("sift: input image", img.Pix)

	octaves, err := buildPyramid(img, d.cfg)
	if err != nil {
		return err
	}
	d.octaves = octaves

	rawsByOctave := forEachOctave(octaves, func(oct *pyramidOctave) []RawKeypoint {
		raws := detectExtrema(oct, d.cfg)
		if len(raws) > 0 {
			oct.ensureGradOri()
		}
		return raws
	})

	var raws []RawKeypoint
	for _, r := range rawsByOctave {
		raws = append(raws, r...)
	}
	xlog.LogPrintf("sift: %d octaves, %d raw extrema\n", len(octaves), len(raws))

	octaveByIndex := func(o int) *pyramidOctave { return &d.octaves[o-d.cfg.MinOctave] }

	localized := forEachJob(len(raws), func(i int) (Keypoint, bool) {
		return localizeKeypoint(octaveByIndex(raws[i].O), d.cfg, raws[i])
	})

	keypoints := make([]Keypoint, 0, len(localized))
	for _, kp := range localized {
		if kp.ok {
			keypoints = append(keypoints, kp.val)
		}
	}
	sortKeypoints(keypoints)
	d.keypoints = keypoints
	xlog.LogPrintf("sift: %d localized keypoints\n", len(keypoints))

	type orientedJob struct {
		kp    Keypoint
		theta float32
	}
	perKeypointOrientations := forEachJobSlice(len(keypoints), func(i int) []float32 {
		return assignOrientations(octaveByIndex(keypoints[i].O), d.cfg, keypoints[i])
	})

	var jobs []orientedJob
	for i, thetas := range perKeypointOrientations {
		for _, t := range thetas {
			jobs = append(jobs, orientedJob{kp: keypoints[i], theta: t})
		}
	}

	descriptors := forEachJob(len(jobs), func(i int) (Descriptor, bool) {
		j := jobs[i]
		return buildDescriptor(octaveByIndex(j.kp.O), d.cfg, j.kp, j.theta), true
	})
	d.descriptors = make([]Descriptor, 0, len(descriptors))
	for _, r := range descriptors {
		if r.ok {
			d.descriptors = append(d.descriptors, r.val)
		}
	}
	xlog.LogPrintf("sift: %d descriptors\n", len(d.descriptors))

	d.octaves = nil // pyramid images are released once descriptors are built
	return nil
}

// Keypoints returns the localized keypoints from the last Process call,
// sorted by (octave ascending, raw y ascending, raw x ascending, scale
// ascending) for reproducibility regardless of internal parallelism.
func (d *Detector) Keypoints() []Keypoint { return d.keypoints }

// Descriptors returns the descriptors from the last Process call.
func (d *Detector) Descriptors() []Descriptor { return d.descriptors }

func sortKeypoints(kps []Keypoint) {
	sort.Slice(kps, func(i, j int) bool {
		a, b := kps[i], kps[j]
		if a.O != b.O {
			return a.O < b.O
		}
		if a.IY != b.IY {
			return a.IY < b.IY
		}
		if a.IX != b.IX {
			return a.IX < b.IX
		}
		return a.S < b.S
	})
}

// forEachOctave runs fn over every octave concurrently, one goroutine per
// octave - the octave count is small and bounded by Config, so no further
// capping is needed.
func forEachOctave(octaves []pyramidOctave, fn func(*pyramidOctave) []RawKeypoint) [][]RawKeypoint {
	results := make([][]RawKeypoint, len(octaves))
	var wg sync.WaitGroup
	for i := range octaves {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = fn(&octaves[i])
		}(i)
	}
	wg.Wait()
	return results
}

type jobResult[T any] struct {
	val T
	ok  bool
}

// forEachJob fans work item i in [0,n) out across a worker pool sized to
// the number of CPUs, collecting each (value,ok) result in input order.
func forEachJob[T any](n int, fn func(i int) (T, bool)) []jobResult[T] {
	results := make([]jobResult[T], n)
	if n == 0 {
		return results
	}
	workers := runtime.NumCPU()
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}
	jobsCh := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobsCh {
				v, ok := fn(i)
				results[i] = jobResult[T]{val: v, ok: ok}
			}
		}()
	}
	for i := 0; i < n; i++ {
		jobsCh <- i
	}
	close(jobsCh)
	wg.Wait()
	return results
}

// forEachJobSlice is forEachJob for functions returning a slice with no
// separate ok flag (an empty slice already signals "nothing produced").
func forEachJobSlice[T any](n int, fn func(i int) []T) [][]T {
	results := make([][]T, n)
	if n == 0 {
		return results
	}
	workers := runtime.NumCPU()
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}
	jobsCh := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobsCh {
				results[i] = fn(i)
			}
		}()
	}
	for i := 0; i < n; i++ {
		jobsCh <- i
	}
	close(jobsCh)
	wg.Wait()
	return results
}
