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
	"errors"
	"testing"
)

func TestDefaultConfigValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config failed validation: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"samples too low", func(c *Config) { c.SamplesPerOctave = 0 }},
		{"min octave too low", func(c *Config) { c.MinOctave = -2 }},
		{"max below min", func(c *Config) { c.MaxOctave = c.MinOctave - 1 }},
		{"negative contrast", func(c *Config) { c.ContrastThreshold = -1 }},
		{"edge threshold too low", func(c *Config) { c.EdgeThreshold = 1 }},
		{"non-positive pre-smoothing", func(c *Config) { c.PreSmoothing = 0 }},
		{"negative inherent blur", func(c *Config) { c.InherentBlur = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected an error")
			}
			var serr *Error
			if !errors.As(err, &serr) || serr.Kind != ConfigInvalid {
				t.Fatalf("expected ConfigInvalid, got %v", err)
			}
		})
	}
}
