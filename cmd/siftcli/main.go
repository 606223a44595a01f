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

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/klauspost/cpuid"
	"github.com/pbnjay/memory"

	"github.com/cos65535/mve/internal/rest"
	"github.com/cos65535/mve/internal/rimage"
	"github.com/cos65535/mve/internal/sift"
	"github.com/cos65535/mve/internal/xlog"
)

const version = "0.1.0"

var totalMiBs = memory.TotalMemory() / 1024 / 1024

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to `file`")
var memprofile = flag.String("memprofile", "", "write memory profile to `file`")

var out = flag.String("out", "%auto", "save detected keypoints as a Lowe keyfile to `file`. `%auto` replaces the input's suffix with .key")
var log = flag.String("log", "%auto", "save log output to `file`. `%auto` replaces the -out file's suffix with .log, and writes no log file when -out is also %auto")
var overlay = flag.String("overlay", "", "save a debug overlay PNG with keypoint markers to `file`, empty=skip")

var samplesPerOctave = flag.Int64("s", int64(sift.DefaultConfig().SamplesPerOctave), "scale samples per octave")
var minOctave = flag.Int64("oMin", int64(sift.DefaultConfig().MinOctave), "index of the first octave, negative upsamples the input")
var maxOctave = flag.Int64("oMax", int64(sift.DefaultConfig().MaxOctave), "index of the last octave")
var contrastThreshold = flag.Float64("contrastThresh", float64(sift.DefaultConfig().ContrastThreshold), "minimum |DoG| at a keypoint, relative to [0,1] pixel range")
var edgeThreshold = flag.Float64("edgeThresh", float64(sift.DefaultConfig().EdgeThreshold), "maximum principal curvature ratio across a keypoint's edge")
var preSmoothing = flag.Float64("preSmoothing", float64(sift.DefaultConfig().PreSmoothing), "gaussian sigma applied to the first layer of each octave")
var inherentBlur = flag.Float64("inherentBlur", float64(sift.DefaultConfig().InherentBlur), "assumed sigma already present in the input image")

var chroot = flag.String("chroot", "", "chroot to `dir` before serving (unix only)")
var setuid = flag.Int64("setuid", -1, "drop to `uid` after chrooting (unix only), -1=no op")

func main() {
	logWriter := os.Stdout
	debug.SetGCPercent(10)
	start := time.Now()

	flag.Usage = func() {
		fmt.Fprintf(logWriter, `Copyright (c) 2020 Markus L. Noga
This program comes with ABSOLUTELY NO WARRANTY.
This is free software, and you are welcome to redistribute it under certain conditions.
Refer to https://www.gnu.org/licenses/gpl-3.0.en.html for details.

Usage: %s [-flag value] (process|serve|legal|version) (img0.png ... imgn.png)

Commands:
  process  Detect keypoints and descriptors in the given images
  serve    Start the REST API
  legal    Show license and attribution information
  version  Show version information

Flags:
`, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *log == "%auto" {
		if *out != "" && *out != "%auto" {
			*log = strings.TrimSuffix(*out, filepath.Ext(*out)) + ".log"
		} else {
			*log = ""
		}
	}
	if *log != "" {
		if err := xlog.LogAlsoToFile(*log); err != nil {
			xlog.LogFatalf("Unable to open logfile '%s'\n", *log)
		}
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			xlog.LogFatal("Could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			xlog.LogFatal("Could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
	}

	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		return
	}

	xlog.LogPrintf("%d logical CPUs, %d MiB physical memory, AVX2 %v\n", runtime.NumCPU(), totalMiBs, cpuid.CPU.AVX2())

	var err error
	switch args[0] {
	case "process":
		err = cmdProcess(args[1:], logWriter)
	case "serve":
		rest.MakeSandbox(*chroot, int(*setuid))
		rest.Serve()
	case "legal":
		cmdLegal()
	case "version":
		fmt.Fprintf(logWriter, "Version %s\n", version)
	case "help", "?":
		flag.Usage()
	default:
		fmt.Fprintf(logWriter, "Unknown command '%s'\n\n", args[0])
		flag.Usage()
		return
	}

	now := time.Now()
	elapsed := now.Sub(start)
	fmt.Fprintf(logWriter, "\nDone after %v\n", elapsed)

	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			xlog.LogFatal("Could not create memory profile: ", err)
		}
		defer f.Close()
		runtime.GC()
		if err := pprof.Lookup("allocs").WriteTo(f, 0); err != nil {
			xlog.LogFatal("Could not write allocation profile: ", err)
		}
	}

	if err != nil {
		fmt.Fprintf(logWriter, "Error: %s\n", err.Error())
		os.Exit(-1)
	}
	xlog.LogSync()
}

func cmdProcess(files []string, logWriter *os.File) error {
	if len(files) == 0 {
		return fmt.Errorf("process requires at least one image file")
	}

	cfg := sift.Config{
		SamplesPerOctave:  int(*samplesPerOctave),
		MinOctave:         int(*minOctave),
		MaxOctave:         int(*maxOctave),
		ContrastThreshold: float32(*contrastThreshold),
		EdgeThreshold:     float32(*edgeThreshold),
		PreSmoothing:      float32(*preSmoothing),
		InherentBlur:      float32(*inherentBlur),
	}

	for _, file := range files {
		img, err := rimage.DecodeFile(file)
		if err != nil {
			return fmt.Errorf("decoding %s: %w", file, err)
		}

		det, err := sift.NewDetector(cfg)
		if err != nil {
			return err
		}
		xlog.LogPrintf("%s: processing %dx%d image\n", file, img.Width, img.Height)
		if err := det.Process(img); err != nil {
			return fmt.Errorf("processing %s: %w", file, err)
		}
		xlog.LogPrintf("%s: %d keypoints, %d descriptors\n", file, len(det.Keypoints()), len(det.Descriptors()))

		outPath := *out
		if outPath == "%auto" || outPath == "" {
			outPath = strings.TrimSuffix(file, filepath.Ext(file)) + ".key"
		}
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating %s: %w", outPath, err)
		}
		err = sift.WriteKeyfile(f, det.Descriptors())
		f.Close()
		if err != nil {
			return fmt.Errorf("writing %s: %w", outPath, err)
		}
		xlog.LogPrintf("%s: wrote %s\n", file, outPath)

		if *overlay != "" {
			points := make([]rimage.OverlayPoint, 0, len(det.Descriptors()))
			for _, d := range det.Descriptors() {
				f := float32(1)
				for i := 0; i < d.Keypoint.O; i++ {
					f *= 2
				}
				for i := 0; i < -d.Keypoint.O; i++ {
					f /= 2
				}
				points = append(points, rimage.OverlayPoint{
					X:           d.Keypoint.X * f,
					Y:           d.Keypoint.Y * f,
					Radius:      d.Keypoint.SigmaAbs * 3,
					Orientation: d.Orientation,
				})
			}
			if err := rimage.DrawOverlay(img, points, *overlay); err != nil {
				return fmt.Errorf("writing overlay %s: %w", *overlay, err)
			}
			xlog.LogPrintf("%s: wrote overlay %s\n", file, *overlay)
		}
	}
	return nil
}
