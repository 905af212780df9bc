// Copyright 2025 The go-delila Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package crate

import (
	"encoding/json"
	"testing"
	"time"
)

func TestCRC8(t *testing.T) {
	for _, tc := range []struct {
		raw  []byte
		want byte
	}{
		{raw: []byte{0xBE, 0xEF}, want: 0x92}, // datasheet example
		{raw: []byte{0x00, 0x00}, want: 0x81},
		{raw: []byte{0xFF, 0xFF}, want: 0xAC},
	} {
		if got, want := crc8(tc.raw), tc.want; got != want {
			t.Fatalf("crc8(%#v): got=0x%02x, want=0x%02x", tc.raw, got, want)
		}
	}
}

func TestEnvJSON(t *testing.T) {
	env := Env{
		Time:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Temp:     23.5,
		Humidity: 41.25,
	}
	raw, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("could not marshal env: %+v", err)
	}
	const want = `{"time":"2025-06-01T12:00:00Z","temp":23.5,"humidity":41.25}`
	if got := string(raw); got != want {
		t.Fatalf("invalid env encoding:\ngot= %s\nwant=%s", got, want)
	}

	var chk Env
	if err := json.Unmarshal(raw, &chk); err != nil {
		t.Fatalf("could not unmarshal env: %+v", err)
	}
	if chk != env {
		t.Fatalf("env round trip failed:\ngot= %+v\nwant=%+v", chk, env)
	}
}
