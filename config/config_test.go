// Copyright 2025 The go-delila Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const cfg = `# digitizer setup for module 0
URL        dig2://caen/usb/0
Type       psd2      ; firmware flavour
Threads    4
Debug      no

/par/ch/0..63/ChEnable     true
/par/ch/0..63/DCOffset     20
/par/ch/0..63/ChEnable     false   # disabled for now
; trailing comment line
`

func TestParse(t *testing.T) {
	ps, err := Parse(strings.NewReader(cfg))
	if err != nil {
		t.Fatalf("could not parse: %+v", err)
	}

	if got, want := ps.GetString("URL", ""), "dig2://caen/usb/0"; got != want {
		t.Fatalf("invalid URL: got=%q, want=%q", got, want)
	}
	if got, want := ps.GetString("Type", "psd1"), "psd2"; got != want {
		t.Fatalf("invalid Type: got=%q, want=%q", got, want)
	}
	if got, want := ps.GetString("Missing", "def"), "def"; got != want {
		t.Fatalf("invalid default: got=%q, want=%q", got, want)
	}
	if got, want := ps.GetInt("Threads", 1), 4; got != want {
		t.Fatalf("invalid Threads: got=%d, want=%d", got, want)
	}
	if got, want := ps.GetInt("URL", 1), 1; got != want {
		t.Fatalf("invalid malformed int: got=%d, want=%d", got, want)
	}
	if got, want := ps.GetFloat("Threads", 0), 4.0; got != want {
		t.Fatalf("invalid float: got=%v, want=%v", got, want)
	}
	if got := ps.GetBool("Debug", true); got {
		t.Fatalf("invalid Debug: got=%v, want=false", got)
	}

	// last value wins for repeated keys.
	v, ok := ps.Get("/par/ch/0..63/ChEnable")
	if !ok {
		t.Fatalf("missing device parameter")
	}
	if got, want := v, "false"; got != want {
		t.Fatalf("invalid device parameter: got=%q, want=%q", got, want)
	}
}

func TestParseErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "missing-value",
			raw:  "URL\n",
			want: `config: line 1: missing value for "URL"`,
		},
		{
			name: "missing-value-after-comment",
			raw:  "# header\nURL dig2://caen/0\nThreads # no value\n",
			want: `config: line 3: missing value for "Threads"`,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.raw))
			if err == nil {
				t.Fatalf("expected an error")
			}
			if got, want := err.Error(), tc.want; got != want {
				t.Fatalf("invalid error:\ngot= %v\nwant=%v", got, want)
			}
		})
	}
}

func TestGetBool(t *testing.T) {
	var ps Params
	for k, v := range map[string]string{
		"t1": "true", "t2": "1", "t3": "Yes", "t4": "on",
		"f1": "false", "f2": "0", "f3": "No", "f4": "off",
		"bad": "maybe",
	} {
		ps.Set(k, v)
	}
	for _, k := range []string{"t1", "t2", "t3", "t4"} {
		if !ps.GetBool(k, false) {
			t.Fatalf("%s: expected true", k)
		}
	}
	for _, k := range []string{"f1", "f2", "f3", "f4"} {
		if ps.GetBool(k, true) {
			t.Fatalf("%s: expected false", k)
		}
	}
	if !ps.GetBool("bad", true) {
		t.Fatalf("malformed value should fall back to the default")
	}
}

func TestDigitizer(t *testing.T) {
	ps, err := Parse(strings.NewReader(cfg))
	if err != nil {
		t.Fatalf("could not parse: %+v", err)
	}
	got := ps.Digitizer()
	want := []Param{
		{Key: "/par/ch/0..63/ChEnable", Value: "true"},
		{Key: "/par/ch/0..63/DCOffset", Value: "20"},
		{Key: "/par/ch/0..63/ChEnable", Value: "false"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid device parameters:\ngot= %v\nwant=%v", got, want)
	}
}

func TestMap(t *testing.T) {
	ps, err := Parse(strings.NewReader("URL dig1://caen/0\nModID 3\n"))
	if err != nil {
		t.Fatalf("could not parse: %+v", err)
	}
	got := ps.Map()
	want := map[string]string{"URL": "dig1://caen/0", "ModID": "3"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid map:\ngot= %v\nwant=%v", got, want)
	}
}

func TestLoad(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "dgtz.conf")
	if err := os.WriteFile(fname, []byte(cfg), 0644); err != nil {
		t.Fatalf("could not write config file: %+v", err)
	}

	ps, err := Load(fname)
	if err != nil {
		t.Fatalf("could not load: %+v", err)
	}
	if got, want := ps.GetString("URL", ""), "dig2://caen/usb/0"; got != want {
		t.Fatalf("invalid URL: got=%q, want=%q", got, want)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.conf")); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}
