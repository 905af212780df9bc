// Copyright 2025 The go-delila Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package device defines the native digitizer driver collaborator and
// the acquisition lifecycle built on top of it.
package device // import "github.com/go-delila/dgtz/device"

import "time"

// Command and parameter paths understood by the native driver.
const (
	CmdArm       = "/cmd/ArmAcquisition"
	CmdDisarm    = "/cmd/DisarmAcquisition"
	CmdReset     = "/cmd/Reset"
	CmdSwStart   = "/cmd/SwStartAcquisition"
	CmdSwStop    = "/cmd/SwStopAcquisition"
	CmdSwTrigger = "/cmd/SendSwTrigger"

	ParRecLen      = "/par/reclen"
	ParChRecLen    = "/ch/0/par/ChRecordLengthT"
	ParMaxRawSize  = "/par/MaxRawDataSize"
	ParSamplRate   = "/par/ADC_SamplRate"
	ParStartMode   = "/par/startmode"
	ParActiveEndpt = "/endpoint/par/activeendpoint"

	StartModeSW = "START_MODE_SW"
)

// Driver is the native device driver collaborator. Implementations
// wrap a vendor SDK or a replay source.
type Driver interface {
	// Open connects to the board addressed by url.
	Open(url string) error
	Close() error

	// SendCommand executes a control command path such as CmdReset.
	SendCommand(path string) error
	// GetParameter reads a device parameter as a string.
	GetParameter(path string) (string, error)
	// SetParameter writes a device parameter.
	SetParameter(path, value string) error

	// DeviceTree returns the parameter schema as JSON.
	DeviceTree() ([]byte, error)

	// HasData reports whether a raw buffer is ready within timeout.
	HasData(timeout time.Duration) (bool, error)
	// ReadData reads one raw buffer within timeout. It returns the
	// buffer and the number of hardware events it holds.
	ReadData(timeout time.Duration) ([]byte, uint32, error)
}
