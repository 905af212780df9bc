// Copyright 2025 The go-delila Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dgtz

import (
	"fmt"
	"testing"

	"github.com/go-delila/dgtz/dig1"
	"github.com/go-delila/dgtz/dig2"
)

func decName(dec Decoder) string {
	switch dec.(type) {
	case *dig1.PSD1:
		return "*dig1.PSD1"
	case *dig1.PHA1:
		return "*dig1.PHA1"
	case *dig2.PSD2:
		return "*dig2.PSD2"
	}
	return fmt.Sprintf("%T", dec)
}

func TestNewDecoder(t *testing.T) {
	for _, tc := range []struct {
		typ  Type
		want string
	}{
		{TypePSD1, "*dig1.PSD1"},
		{TypePHA1, "*dig1.PHA1"},
		{TypeQDC1, "*dig1.PSD1"},
		{TypeScope1, "*dig1.PSD1"},
		{TypePSD2, "*dig2.PSD2"},
		{TypePHA2, "*dig2.PSD2"},
		{TypeScope2, "*dig2.PSD2"},
		{TypeUnknown, "*dig2.PSD2"},
	} {
		t.Run(tc.typ.String(), func(t *testing.T) {
			dec := NewDecoder(tc.typ)
			if got, want := decName(dec), tc.want; got != want {
				t.Fatalf("invalid decoder: got=%s, want=%s", got, want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	for _, tc := range []struct {
		name   string
		params map[string]string
		dec    string
		run    bool
		err    string
	}{
		{
			name:   "no-url",
			params: map[string]string{},
			err:    "dgtz: missing URL parameter",
		},
		{
			name:   "empty-url",
			params: map[string]string{"URL": ""},
			err:    "dgtz: missing URL parameter",
		},
		{
			name:   "bad-type",
			params: map[string]string{"URL": "dig2://caen/0", "Type": "bogus"},
			err:    `dgtz: could not parse Type parameter: dgtz: unknown firmware type "bogus"`,
		},
		{
			name:   "dig1-scheme",
			params: map[string]string{"URL": "dig1://caen/0"},
			dec:    "*dig1.PSD1",
			run:    true,
		},
		{
			name:   "dig2-scheme",
			params: map[string]string{"URL": "dig2://caen/0"},
			dec:    "*dig2.PSD2",
		},
		{
			name:   "default-scheme",
			params: map[string]string{"URL": "usb://caen/0"},
			dec:    "*dig2.PSD2",
		},
		{
			name:   "type-overrides-scheme",
			params: map[string]string{"URL": "dig2://caen/0", "Type": "pha1"},
			dec:    "*dig1.PHA1",
			run:    true,
		},
		{
			name: "full-config",
			params: map[string]string{
				"URL":     "dig2://caen/0",
				"Type":    "psd2",
				"Threads": "4",
				"ModID":   "3",
				"Debug":   "yes",
				"/par/ch/0..63/ChEnable": "true",
			},
			dec: "*dig2.PSD2",
		},
		{
			name:   "bad-modid",
			params: map[string]string{"URL": "dig1://caen/0", "ModID": "boo"},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			eng, err := New(tc.params)
			switch tc.name {
			case "bad-modid":
				if err == nil {
					eng.Close()
					t.Fatalf("expected an error")
				}
				return
			}
			if tc.err != "" {
				if err == nil {
					eng.Close()
					t.Fatalf("expected an error")
				}
				if got, want := err.Error(), tc.err; got != want {
					t.Fatalf("invalid error:\ngot= %v\nwant=%v", got, want)
				}
				return
			}
			if err != nil {
				t.Fatalf("could not create engine: %+v", err)
			}
			defer eng.Close()
			if got, want := decName(eng.dec), tc.dec; got != want {
				t.Fatalf("invalid decoder: got=%s, want=%s", got, want)
			}
			if got, want := eng.Running(), tc.run; got != want {
				t.Fatalf("invalid running state: got=%v, want=%v", got, want)
			}
		})
	}
}

func TestNewThreads(t *testing.T) {
	for _, tc := range []struct {
		threads string
		want    int
	}{
		{threads: "", want: 1},
		{threads: "4", want: 4},
		{threads: "0", want: 1},
		{threads: "-2", want: 1},
		{threads: "boo", want: 1},
	} {
		t.Run(tc.threads, func(t *testing.T) {
			params := map[string]string{"URL": "dig2://caen/0"}
			if tc.threads != "" {
				params["Threads"] = tc.threads
			}
			eng, err := New(params)
			if err != nil {
				t.Fatalf("could not create engine: %+v", err)
			}
			defer eng.Close()
			if got, want := eng.nworkers, tc.want; got != want {
				t.Fatalf("invalid number of workers: got=%d, want=%d", got, want)
			}
		})
	}
}
