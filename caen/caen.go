// Copyright 2025 The go-delila Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package caen implements the device driver for CAEN digitizer boards
// on top of the vendor FELib C library.
package caen // import "github.com/go-delila/dgtz/caen"

//#cgo LDFLAGS: -lCAEN_FELib
//
//#include <stdlib.h>
//#include <stdint.h>
//#include <stddef.h>
//
//extern int CAEN_FELib_Open(const char* url, uint64_t* handle);
//extern int CAEN_FELib_Close(uint64_t handle);
//extern int CAEN_FELib_GetDeviceTree(uint64_t handle, char* json, size_t size);
//extern int CAEN_FELib_GetValue(uint64_t handle, const char* path, char* value);
//extern int CAEN_FELib_SetValue(uint64_t handle, const char* path, const char* value);
//extern int CAEN_FELib_SendCommand(uint64_t handle, const char* path);
//extern int CAEN_FELib_GetHandle(uint64_t handle, const char* path, uint64_t* out);
//extern int CAEN_FELib_SetReadDataFormat(uint64_t handle, const char* json);
//extern int CAEN_FELib_HasData(uint64_t handle, int timeout);
//extern int CAEN_FELib_ReadData(uint64_t handle, int timeout, ...);
//extern int CAEN_FELib_GetLastError(char* description);
//
//static int felib_read_data(uint64_t h, int timeout, uint8_t* data, size_t* size, uint32_t* nevents) {
//	return CAEN_FELib_ReadData(h, timeout, data, size, nevents);
//}
import "C"

import (
	"time"
	"unsafe"

	"golang.org/x/xerrors"

	"github.com/go-delila/dgtz/device"
)

const (
	ok      = 0
	timeout = -11

	valueSize = 256
	treeSize  = 1 << 20

	// default raw-buffer capacity; SetMaxRawSize replaces it.
	defaultRawSize = 8 << 20
)

// Driver drives one CAEN board through FELib. It implements
// device.Driver.
type Driver struct {
	handle C.uint64_t
	data   C.uint64_t // RAW end-point handle
	opened bool
	rawcap int
}

var _ device.Driver = (*Driver)(nil)

// New returns an unconnected CAEN driver.
func New() *Driver {
	return &Driver{rawcap: defaultRawSize}
}

func lastError() string {
	desc := make([]C.char, 1024)
	if rc := C.CAEN_FELib_GetLastError(&desc[0]); rc != ok {
		return "unknown error"
	}
	return C.GoString(&desc[0])
}

// Open connects to the board addressed by url.
func (drv *Driver) Open(url string) error {
	curl := C.CString(url)
	defer C.free(unsafe.Pointer(curl))

	if rc := C.CAEN_FELib_Open(curl, &drv.handle); rc != ok {
		return xerrors.Errorf("caen: could not open %q: %s", url, lastError())
	}
	drv.opened = true

	cep := C.CString("/endpoint/raw")
	defer C.free(unsafe.Pointer(cep))
	if rc := C.CAEN_FELib_GetHandle(drv.handle, cep, &drv.data); rc != ok {
		return xerrors.Errorf("caen: could not resolve raw end-point: %s", lastError())
	}
	cfmt := C.CString(`[{"name":"DATA","type":"U8","dim":1},{"name":"SIZE","type":"SIZE_T"},{"name":"N_EVENTS","type":"U32"}]`)
	defer C.free(unsafe.Pointer(cfmt))
	if rc := C.CAEN_FELib_SetReadDataFormat(drv.data, cfmt); rc != ok {
		return xerrors.Errorf("caen: could not set read-data format: %s", lastError())
	}
	return nil
}

func (drv *Driver) Close() error {
	if !drv.opened {
		return nil
	}
	if rc := C.CAEN_FELib_Close(drv.handle); rc != ok {
		return xerrors.Errorf("caen: could not close board: %s", lastError())
	}
	drv.opened = false
	return nil
}

// SendCommand executes a control command path such as /cmd/Reset.
func (drv *Driver) SendCommand(path string) error {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	if rc := C.CAEN_FELib_SendCommand(drv.handle, cpath); rc != ok {
		return xerrors.Errorf("caen: could not send command %q: %s", path, lastError())
	}
	return nil
}

// GetParameter reads a device parameter as a string.
func (drv *Driver) GetParameter(path string) (string, error) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	val := make([]C.char, valueSize)
	if rc := C.CAEN_FELib_GetValue(drv.handle, cpath, &val[0]); rc != ok {
		return "", xerrors.Errorf("caen: could not get %q: %s", path, lastError())
	}
	return C.GoString(&val[0]), nil
}

// SetParameter writes a device parameter.
func (drv *Driver) SetParameter(path, value string) error {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))
	cval := C.CString(value)
	defer C.free(unsafe.Pointer(cval))

	if rc := C.CAEN_FELib_SetValue(drv.handle, cpath, cval); rc != ok {
		return xerrors.Errorf("caen: could not set %q to %q: %s", path, value, lastError())
	}
	return nil
}

// DeviceTree returns the parameter schema as JSON.
func (drv *Driver) DeviceTree() ([]byte, error) {
	buf := make([]C.char, treeSize)
	if rc := C.CAEN_FELib_GetDeviceTree(drv.handle, &buf[0], treeSize); rc != ok {
		return nil, xerrors.Errorf("caen: could not fetch device tree: %s", lastError())
	}
	return []byte(C.GoString(&buf[0])), nil
}

// SetMaxRawSize sets the capacity of the buffers handed to ReadData.
func (drv *Driver) SetMaxRawSize(n int) {
	if n > 0 {
		drv.rawcap = n
	}
}

// HasData reports whether a raw buffer is ready within timeout.
func (drv *Driver) HasData(d time.Duration) (bool, error) {
	switch rc := C.CAEN_FELib_HasData(drv.data, C.int(d.Milliseconds())); rc {
	case ok:
		return true, nil
	case timeout:
		return false, nil
	default:
		return false, xerrors.Errorf("caen: could not poll board: %s", lastError())
	}
}

// ReadData reads one raw buffer within timeout. It returns the buffer
// and the number of hardware events it holds.
func (drv *Driver) ReadData(d time.Duration) ([]byte, uint32, error) {
	var (
		buf   = make([]byte, drv.rawcap)
		size  C.size_t
		nevts C.uint32_t
	)
	rc := C.felib_read_data(
		drv.data, C.int(d.Milliseconds()),
		(*C.uint8_t)(unsafe.Pointer(&buf[0])), &size, &nevts,
	)
	switch rc {
	case ok:
		return buf[:int(size):int(size)], uint32(nevts), nil
	case timeout:
		return nil, 0, nil
	default:
		return nil, 0, xerrors.Errorf("caen: could not read data: %s", lastError())
	}
}
