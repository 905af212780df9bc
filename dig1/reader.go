// Copyright 2025 The go-delila Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dig1

import (
	"encoding/binary"

	"golang.org/x/xerrors"
)

// wreader is a bounds-checked cursor over a raw buffer, addressed in
// 32-bit little-endian words.
type wreader struct {
	buf []byte
	n   int // total number of whole words
}

func newReader(buf []byte) wreader {
	return wreader{buf: buf, n: len(buf) / wordSize}
}

func (r wreader) word(i int) (uint32, error) {
	if i < 0 || i >= r.n {
		return 0, xerrors.Errorf("dig1: word index %d out of range [0, %d)", i, r.n)
	}
	return binary.LittleEndian.Uint32(r.buf[wordSize*i:]), nil
}

func (r wreader) wordSafe(i int) (uint32, bool) {
	if i < 0 || i >= r.n {
		return 0, false
	}
	return binary.LittleEndian.Uint32(r.buf[wordSize*i:]), true
}

func (r wreader) remaining(i int) int {
	if i >= r.n {
		return 0
	}
	return r.n - i
}

func (r wreader) advance(i *int, n int) bool {
	if *i+n > r.n {
		return false
	}
	*i += n
	return true
}
