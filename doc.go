// Copyright 2025 The go-delila Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dgtz provides the raw-buffer decoding pipeline for CAEN-family
// waveform digitizers (first- and second-generation PSD/PHA firmwares).
package dgtz // import "github.com/go-delila/dgtz"

import (
	"fmt"
	"runtime/debug"
)

// Version returns the version of dgtz and its checksum.
// The returned values are only valid in binaries built with module support.
func Version() (version, sum string) {
	b, ok := debug.ReadBuildInfo()
	if !ok {
		return "", ""
	}
	return versionOf(b)
}

func versionOf(b *debug.BuildInfo) (version, sum string) {
	if b == nil {
		return "", ""
	}

	const root = "github.com/go-delila/dgtz"
	for _, m := range b.Deps {
		if m.Path != root {
			continue
		}
		if m.Replace != nil {
			switch {
			case m.Replace.Version != "" && m.Replace.Path != "":
				return fmt.Sprintf("%s %s", m.Replace.Path, m.Replace.Version), m.Replace.Sum
			case m.Replace.Version != "":
				return m.Replace.Version, m.Replace.Sum
			case m.Replace.Path != "":
				return m.Replace.Path, m.Replace.Sum
			default:
				return m.Version + "*", ""
			}
		}
		return m.Version, m.Sum
	}
	return "", ""
}
