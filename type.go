// Copyright 2025 The go-delila Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dgtz

import (
	"strings"

	"golang.org/x/xerrors"
)

// Type identifies a digitizer firmware flavour.
type Type uint8

const (
	TypeUnknown Type = iota
	TypePSD1
	TypePHA1
	TypeQDC1
	TypeScope1
	TypePSD2
	TypePHA2
	TypeScope2
)

func (t Type) String() string {
	switch t {
	case TypeUnknown:
		return "unknown"
	case TypePSD1:
		return "PSD1"
	case TypePHA1:
		return "PHA1"
	case TypeQDC1:
		return "QDC1"
	case TypeScope1:
		return "SCOPE1"
	case TypePSD2:
		return "PSD2"
	case TypePHA2:
		return "PHA2"
	case TypeScope2:
		return "SCOPE2"
	}
	return "unknown"
}

// Gen returns the firmware generation of t (1 or 2), or 0 for the
// unknown type.
func (t Type) Gen() int {
	switch t {
	case TypePSD1, TypePHA1, TypeQDC1, TypeScope1:
		return 1
	case TypePSD2, TypePHA2, TypeScope2:
		return 2
	}
	return 0
}

// ParseType parses a firmware type name such as "PSD1" or "pha2".
func ParseType(s string) (Type, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PSD1":
		return TypePSD1, nil
	case "PHA1":
		return TypePHA1, nil
	case "QDC1":
		return TypeQDC1, nil
	case "SCOPE1":
		return TypeScope1, nil
	case "PSD2":
		return TypePSD2, nil
	case "PHA2":
		return TypePHA2, nil
	case "SCOPE2":
		return TypeScope2, nil
	}
	return TypeUnknown, xerrors.Errorf("dgtz: unknown firmware type %q", s)
}

// TypeFromFirmware infers the firmware flavour from the fwtype and
// modelname parameters of a device tree. First-generation firmwares
// spell the DPP family with a hyphen, second-generation ones with an
// underscore. A four-digit model name beginning with 2 suggests a
// second-generation board.
func TypeFromFirmware(fwtype, model string) Type {
	fw := strings.ToLower(fwtype)
	switch {
	case strings.Contains(fw, "dpp-psd"):
		return TypePSD1
	case strings.Contains(fw, "dpp_psd"):
		return TypePSD2
	case strings.Contains(fw, "dpp-pha"):
		return TypePHA1
	case strings.Contains(fw, "dpp_pha"):
		return TypePHA2
	case strings.Contains(fw, "dpp-qdc"), strings.Contains(fw, "qdc"):
		return TypeQDC1
	case strings.Contains(fw, "scope"):
		if strings.Contains(fw, "_") {
			return TypeScope2
		}
		return TypeScope1
	}
	if len(model) == 4 && model[0] == '2' {
		return TypePSD2
	}
	return TypeUnknown
}
