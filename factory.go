// Copyright 2025 The go-delila Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dgtz

import (
	"strconv"
	"strings"

	"github.com/go-daq/tdaq/log"
	"golang.org/x/xerrors"

	"github.com/go-delila/dgtz/dig1"
	"github.com/go-delila/dgtz/dig2"
)

// New builds an engine from a parameter map. The map must hold a URL;
// the firmware flavour is taken from the Type key when present, from
// the URL scheme otherwise. When neither resolves, the second
// generation PSD decoder is used and a warning is logged; callers that
// can query the device tree should resolve the flavour with
// TypeFromFirmware and call NewWithType instead.
//
// Recognised keys: URL, Type, Debug, Threads, ModID. Keys beginning
// with a slash address device parameters and are ignored here.
func New(params map[string]string) (*Engine, error) {
	msg := log.NewMsgStream("dgtz", log.LvlWarning, nil)

	url, ok := params["URL"]
	if !ok || url == "" {
		return nil, xerrors.Errorf("dgtz: missing URL parameter")
	}

	typ := TypeUnknown
	if v, ok := params["Type"]; ok {
		t, err := ParseType(v)
		if err != nil {
			return nil, xerrors.Errorf("dgtz: could not parse Type parameter: %w", err)
		}
		typ = t
	}
	if typ == TypeUnknown {
		switch {
		case strings.HasPrefix(url, "dig1://"):
			typ = TypePSD1
		case strings.HasPrefix(url, "dig2://"):
			typ = TypePSD2
		default:
			msg.Warnf("could not infer firmware type from %q, defaulting to %v", url, TypePSD2)
			typ = TypePSD2
		}
	}

	eng := NewWithType(typ, threadsFrom(params, msg))

	if v, ok := params["ModID"]; ok {
		mod, err := strconv.ParseUint(v, 10, 8)
		if err != nil {
			return nil, xerrors.Errorf("dgtz: could not parse ModID parameter %q: %w", v, err)
		}
		eng.SetModuleNumber(uint8(mod))
	}
	if debugFrom(params) {
		eng.SetDebug(true)
	}
	return eng, nil
}

// NewWithType builds an engine for an already resolved firmware
// flavour.
func NewWithType(typ Type, workers int) *Engine {
	return NewEngine(NewDecoder(typ), workers)
}

// NewDecoder returns the decoder for a firmware flavour. Flavours
// without a dedicated decoder map onto the closest one of the same
// generation, with a warning.
func NewDecoder(typ Type) Decoder {
	msg := log.NewMsgStream("dgtz", log.LvlWarning, nil)
	switch typ {
	case TypePSD1:
		return dig1.NewPSD1()
	case TypePHA1:
		return dig1.NewPHA1()
	case TypeQDC1, TypeScope1:
		msg.Warnf("no dedicated decoder for %v, using %v", typ, TypePSD1)
		return dig1.NewPSD1()
	case TypePSD2:
		return dig2.NewPSD2()
	case TypePHA2, TypeScope2:
		msg.Warnf("no dedicated decoder for %v, using %v", typ, TypePSD2)
		return dig2.NewPSD2()
	}
	msg.Warnf("unknown firmware type, using %v", TypePSD2)
	return dig2.NewPSD2()
}

func threadsFrom(params map[string]string, msg log.MsgStream) int {
	v, ok := params["Threads"]
	if !ok {
		return 1
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		msg.Warnf("invalid Threads parameter %q, using 1", v)
		return 1
	}
	return n
}

func debugFrom(params map[string]string) bool {
	switch strings.ToLower(params["Debug"]) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}
