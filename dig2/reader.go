// Copyright 2025 The go-delila Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dig2

import (
	"encoding/binary"

	"golang.org/x/xerrors"
)

// wreader is a bounds-checked cursor over a raw buffer, addressed in
// 64-bit little-endian words.
type wreader struct {
	buf []byte
	n   int // total number of whole words
}

func newReader(buf []byte) wreader {
	return wreader{buf: buf, n: len(buf) / wordSize}
}

func (r wreader) word(i int) (uint64, error) {
	if i < 0 || i >= r.n {
		return 0, xerrors.Errorf("dig2: word index %d out of range [0, %d)", i, r.n)
	}
	return binary.LittleEndian.Uint64(r.buf[wordSize*i:]), nil
}

func (r wreader) wordSafe(i int) (uint64, bool) {
	if i < 0 || i >= r.n {
		return 0, false
	}
	return binary.LittleEndian.Uint64(r.buf[wordSize*i:]), true
}

func (r wreader) remaining(i int) int {
	if i >= r.n {
		return 0
	}
	return r.n - i
}

// swapWords reverses the byte order of each 64-bit word of raw in
// place. Trailing bytes past the last whole word are left untouched.
// Applying it twice is the identity.
func swapWords(raw []byte) {
	for i := 0; i+wordSize <= len(raw); i += wordSize {
		w := raw[i : i+wordSize]
		w[0], w[7] = w[7], w[0]
		w[1], w[6] = w[6], w[1]
		w[2], w[5] = w[5], w[2]
		w[3], w[4] = w[4], w[3]
	}
}
