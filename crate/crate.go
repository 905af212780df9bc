// Copyright 2025 The go-delila Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package crate monitors the environment of a digitizer crate through
// an SHT3x temperature and humidity sensor on the crate controller's
// I2C bus, and serves the readings over a small JSON protocol.
package crate // import "github.com/go-delila/dgtz/crate"

import (
	"time"

	"github.com/go-daq/smbus"
	"golang.org/x/xerrors"
)

const (
	// SensorAddr is the default I2C address of an SHT3x sensor.
	SensorAddr = 0x44

	shtCmdMSB = 0x2C // single-shot, clock stretching
	shtCmdLSB = 0x06 // high repeatability
)

// Env is one environment reading of the crate.
type Env struct {
	Time     time.Time `json:"time"`
	Temp     float64   `json:"temp"`     // in Celsius
	Humidity float64   `json:"humidity"` // in percent
}

// Sensor reads temperature and humidity from an SHT3x chip.
type Sensor struct {
	conn *smbus.Conn
	addr uint8
}

// NewSensor connects to the SHT3x sensor at addr on the given I2C bus.
func NewSensor(bus int, addr uint8) (*Sensor, error) {
	conn, err := smbus.Open(bus, addr)
	if err != nil {
		return nil, xerrors.Errorf("crate: could not open i2c bus %d: %w", bus, err)
	}
	return &Sensor{conn: conn, addr: addr}, nil
}

func (s *Sensor) Close() error {
	return s.conn.Close()
}

// Read performs one single-shot measurement.
func (s *Sensor) Read() (Env, error) {
	var env Env

	err := s.conn.WriteReg(s.addr, shtCmdMSB, shtCmdLSB)
	if err != nil {
		return env, xerrors.Errorf("crate: could not trigger measurement: %w", err)
	}
	time.Sleep(20 * time.Millisecond)

	buf := make([]byte, 6)
	err = s.conn.ReadBlockData(s.addr, 0x00, buf)
	if err != nil {
		return env, xerrors.Errorf("crate: could not read measurement: %w", err)
	}

	if crc8(buf[0:2]) != buf[2] {
		return env, xerrors.Errorf("crate: temperature CRC mismatch")
	}
	if crc8(buf[3:5]) != buf[5] {
		return env, xerrors.Errorf("crate: humidity CRC mismatch")
	}

	rawT := uint16(buf[0])<<8 | uint16(buf[1])
	rawH := uint16(buf[3])<<8 | uint16(buf[4])

	env.Time = time.Now().UTC()
	env.Temp = -45 + 175*float64(rawT)/65535
	env.Humidity = 100 * float64(rawH) / 65535
	return env, nil
}

// crc8 computes the CRC-8 checksum (poly 0x31, init 0xFF) the SHT3x
// appends to each 16-bit value.
func crc8(p []byte) byte {
	crc := byte(0xFF)
	for _, b := range p {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ 0x31
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
