// Copyright 2021 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ls7366r

import (
	"fmt"
)

// Debug enables checking that the fields passed to the mode
// register writers do not overlap. An overlap is a programming
// error and panics.
var Debug = false

// MDR0 fields.

// Quadrature selects the count mode, bits 0-1 of MDR0.
type Quadrature uint8

const (
	NonQuad Quadrature = 0x0 // Clock/direction mode
	X1      Quadrature = 0x1 // x1 quadrature
	X2      Quadrature = 0x2 // x2 quadrature
	X4      Quadrature = 0x3 // x4 quadrature
)

// CountMode selects the counting range, bits 2-3 of MDR0.
type CountMode uint8

const (
	FreeRun     CountMode = 0x0
	SingleCycle CountMode = 0x4
	RangeLimit  CountMode = 0x8
	ModuloN     CountMode = 0xC
)

// IndexMode selects the action on the index input, bits 4-5 of MDR0.
type IndexMode uint8

const (
	IndexDisabled  IndexMode = 0x00
	IndexLoadCNTR  IndexMode = 0x10
	IndexResetCNTR IndexMode = 0x20
	IndexLoadOTR   IndexMode = 0x30
)

// SyncMode selects asynchronous or synchronous index, bit 6 of MDR0.
type SyncMode uint8

const (
	Async SyncMode = 0x00
	Sync  SyncMode = 0x40
)

// Filter selects the filter clock division factor, bit 7 of MDR0.
type Filter uint8

const (
	Filter1 Filter = 0x00
	Filter2 Filter = 0x80
)

// MDR1 fields.

// Width is the counter width field, bits 0-1 of MDR1.
// It governs the number of bytes moved for CNTR, OTR and DTR.
// The zero value is a 4 byte counter.
type Width uint8

const (
	Byte4 Width = 0x0
	Byte3 Width = 0x1
	Byte2 Width = 0x2
	Byte1 Width = 0x3
)

// CountEnable enables or disables counting, bit 2 of MDR1.
type CountEnable uint8

const (
	CountEnabled  CountEnable = 0x0
	CountDisabled CountEnable = 0x4
)

// Flag enables a status flag on the DFLAG output, bits 4-7 of MDR1.
type Flag uint8

const (
	FlagNone Flag = 0x00
	FlagIDX  Flag = 0x10
	FlagCMP  Flag = 0x20
	FlagBW   Flag = 0x40
	FlagCY   Flag = 0x80
)

// Bytes returns the number of bytes transferred for a wide register.
// Anything other than a valid width is treated as 4 bytes.
func (w Width) Bytes() int {
	switch w {
	case Byte3:
		return 3
	case Byte2:
		return 2
	case Byte1:
		return 1
	}
	return 4
}

// Mask returns the mask of the counter bits for this width.
func (w Width) Mask() uint32 {
	return uint32(uint64(1)<<(8*uint(w.Bytes())) - 1)
}

// WidthOf returns the Width for a byte count of 1 to 4.
func WidthOf(n int) (Width, error) {
	switch n {
	case 4:
		return Byte4, nil
	case 3:
		return Byte3, nil
	case 2:
		return Byte2, nil
	case 1:
		return Byte1, nil
	}
	return Byte4, fmt.Errorf("%d: invalid counter width", n)
}

// Config is a complete set of mode register fields.
type Config struct {
	Quadrature Quadrature
	Count      CountMode
	Index      IndexMode
	Sync       SyncMode
	Filter     Filter
	Width      Width
	Enable     CountEnable
	Flags      []Flag
}

// MDR0 returns the MDR0 byte for the configuration.
func (c *Config) MDR0() byte {
	return mdr0(c.Quadrature, c.Count, c.Index, c.Sync, c.Filter)
}

// MDR1 returns the MDR1 byte for the configuration.
func (c *Config) MDR1() byte {
	fields := []uint8{uint8(c.Width), uint8(c.Enable)}
	for _, f := range c.Flags {
		fields = append(fields, uint8(f))
	}
	return combine(fields...)
}

func mdr0(q Quadrature, c CountMode, i IndexMode, s SyncMode, f Filter) byte {
	return combine(uint8(q), uint8(c), uint8(i), uint8(s), uint8(f))
}

func mdr1(w Width, e CountEnable, idx, cmp, bw, cy Flag) byte {
	return combine(uint8(w), uint8(e), uint8(idx), uint8(cmp), uint8(bw), uint8(cy))
}

// combine ORs the fields of a mode register together.
func combine(fields ...uint8) byte {
	var b byte
	for _, f := range fields {
		if Debug && b&f != 0 {
			panic(fmt.Sprintf("ls7366r: mode field 0x%02x overlaps 0x%02x", f, b))
		}
		b |= f
	}
	return b
}
