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

// Package rest exposes the detector over HTTP.
package rest

import (
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cos65535/mve/internal/rimage"
	"github.com/cos65535/mve/internal/sift"
)

// Serve starts the REST API, listening on 0.0.0.0:8080.
func Serve() {
	r := gin.Default()
	v1 := r.Group("/api/v1")
	{
		v1.GET("/ping", getPing)
		v1.POST("/detect", postDetect)
	}
	r.Run()
}

func getPing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

// printArgs echoes the parsed request arguments to the response, mirroring
// the request back to the caller as a log line before the expensive work
// starts.
func printArgs(logWriter io.Writer, prefix, suffix string, args interface{}) error {
	m, err := json.MarshalIndent(args, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(logWriter, "%s%s%s", prefix, string(m), suffix)
	return err
}

// postDetectArgs is the JSON side channel accompanying the uploaded image:
// a config override and the desired response format.
type postDetectArgs struct {
	Config sift.Config `json:"config"`
	Format string      `json:"format"` // "keyfile" (default) or "json"
}

// postDetect accepts a multipart image upload under field "image", plus an
// optional "args" form field carrying JSON postDetectArgs, runs the detector
// and streams back either Lowe keyfile text or a JSON descriptor array.
func postDetect(c *gin.Context) {
	w := c.Writer

	args := postDetectArgs{Config: sift.DefaultConfig(), Format: "keyfile"}
	if raw := c.PostForm("args"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "decoding image: " + err.Error()})
		return
	}
	img := rimage.FromImage(src)

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if err := printArgs(w, "Arguments:\n", "\n", args); err != nil {
		fmt.Fprintf(w, "error printing arguments: %s\n", err.Error())
		return
	}

	det, err := sift.NewDetector(args.Config)
	if err != nil {
		fmt.Fprintf(w, "error: %s\n", err.Error())
		return
	}
	if err := det.Process(img); err != nil {
		fmt.Fprintf(w, "error: %s\n", err.Error())
		return
	}
	fmt.Fprintf(w, "Found %d keypoints, %d descriptors\n", len(det.Keypoints()), len(det.Descriptors()))

	switch args.Format {
	case "json":
		entries := make([]sift.KeyfileEntry, 0, len(det.Descriptors()))
		for _, d := range det.Descriptors() {
			entries = append(entries, sift.ToKeyfileEntry(d))
		}
		m, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			fmt.Fprintf(w, "error marshaling descriptors: %s\n", err.Error())
			return
		}
		w.Write(m)
	default:
		if err := sift.WriteKeyfile(w, det.Descriptors()); err != nil {
			fmt.Fprintf(w, "error writing keyfile: %s\n", err.Error())
			return
		}
	}

	w.Flush()
}
