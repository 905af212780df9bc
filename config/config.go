// Copyright 2025 The go-delila Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config reads digitizer parameter files. A file holds one
// "key value" pair per line, separated by blanks or tabs; '#' and ';'
// start comments, also inline ones.
package config // import "github.com/go-delila/dgtz/config"

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/xerrors"
)

// Param is a single key/value pair. Keys beginning with a slash
// address device parameters and keep their file order.
type Param struct {
	Key   string
	Value string
}

// Params holds the parameters of one digitizer module.
type Params struct {
	kv    map[string]string
	order []Param
}

// Load reads parameters from the file at path.
func Load(path string) (*Params, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, xerrors.Errorf("config: could not open %q: %w", path, err)
	}
	defer f.Close()

	ps, err := Parse(f)
	if err != nil {
		return nil, xerrors.Errorf("config: could not parse %q: %w", path, err)
	}
	return ps, nil
}

// Parse reads parameters from r.
func Parse(r io.Reader) (*Params, error) {
	ps := &Params{kv: make(map[string]string)}
	sc := bufio.NewScanner(r)
	for ln := 1; sc.Scan(); ln++ {
		line := sc.Text()
		if i := strings.IndexAny(line, "#;"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		i := strings.IndexAny(line, " \t")
		if i < 0 {
			return nil, xerrors.Errorf("config: line %d: missing value for %q", ln, line)
		}
		key := line[:i]
		val := strings.TrimSpace(line[i:])
		ps.Set(key, val)
	}
	if err := sc.Err(); err != nil {
		return nil, xerrors.Errorf("config: could not read input: %w", err)
	}
	return ps, nil
}

// Set adds or replaces a parameter. Every call is also recorded in
// order, so a repeated key appears once per occurrence in Digitizer.
func (ps *Params) Set(key, value string) {
	if ps.kv == nil {
		ps.kv = make(map[string]string)
	}
	ps.kv[key] = value
	ps.order = append(ps.order, Param{Key: key, Value: value})
}

// Get returns the last value set for key.
func (ps *Params) Get(key string) (string, bool) {
	v, ok := ps.kv[key]
	return v, ok
}

// GetString returns the value for key, or def when absent.
func (ps *Params) GetString(key, def string) string {
	if v, ok := ps.kv[key]; ok {
		return v
	}
	return def
}

// GetInt returns the integer value for key, or def when absent or
// malformed.
func (ps *Params) GetInt(key string, def int) int {
	v, ok := ps.kv[key]
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}

// GetFloat returns the floating-point value for key, or def when
// absent or malformed.
func (ps *Params) GetFloat(key string, def float64) float64 {
	v, ok := ps.kv[key]
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return def
	}
	return f
}

// GetBool returns the boolean value for key, or def when absent or
// malformed. Accepted spellings are true/1/yes/on and false/0/no/off.
func (ps *Params) GetBool(key string, def bool) bool {
	v, ok := ps.kv[key]
	if !ok {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	}
	return def
}

// Digitizer returns the device parameters (keys beginning with a
// slash) in file order, duplicates included.
func (ps *Params) Digitizer() []Param {
	var out []Param
	for _, p := range ps.order {
		if strings.HasPrefix(p.Key, "/") {
			out = append(out, p)
		}
	}
	return out
}

// Map returns the parameters as a plain map, last value wins.
func (ps *Params) Map() map[string]string {
	out := make(map[string]string, len(ps.kv))
	for k, v := range ps.kv {
		out[k] = v
	}
	return out
}
