// Copyright 2025 The go-delila Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package device

import (
	"encoding/json"

	"golang.org/x/xerrors"
)

// Tree is the parsed device-tree JSON of a board.
type Tree struct {
	Par map[string]TreeValue `json:"par"`
}

// TreeValue is one parameter node of the device tree.
type TreeValue struct {
	Value string `json:"value"`
}

// ParseTree decodes a device-tree JSON document.
func ParseTree(raw []byte) (*Tree, error) {
	var t Tree
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, xerrors.Errorf("device: could not parse device tree: %w", err)
	}
	return &t, nil
}

// FWType returns the firmware type string, or "" when absent.
func (t *Tree) FWType() string { return t.value("fwtype") }

// ModelName returns the board model name, or "" when absent.
func (t *Tree) ModelName() string { return t.value("modelname") }

// SerialNum returns the board serial number, or "" when absent.
func (t *Tree) SerialNum() string { return t.value("serialnum") }

func (t *Tree) value(key string) string {
	if t == nil || t.Par == nil {
		return ""
	}
	return t.Par[key].Value
}
