// Copyright 2025 The go-delila Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package conddb

import "fmt"

// Module is one digitizer board of the setup.
type Module struct {
	ID     uint32 // primary key
	ModID  uint8  // module number stamped on decoded events
	Name   string
	URL    string // driver connection string
	FWType string
	Model  string
	Serial string
}

func (m Module) String() string {
	return fmt.Sprintf(
		"module{id: %d, mod: %d, name: %q, url: %q, fw: %q, model: %q, serial: %q}",
		m.ID, m.ModID, m.Name, m.URL, m.FWType, m.Model, m.Serial,
	)
}

// Param is one device parameter of a run configuration.
type Param struct {
	Key   string
	Value string
}
