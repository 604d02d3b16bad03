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

// Package sim is a software model of the LS7366R, used in place of
// the SPI bus and chip select when no hardware is present.

package sim

import (
	"errors"
	"sync"

	"github.com/nhfnnc/LS7366R-Lib/ls7366r"
)

// ErrNotSelected is returned when a byte is exchanged without the chip selected.
var ErrNotSelected = errors.New("sim: chip not selected")

// Latched status bits, cleared by CLR STR.
const latched = ls7366r.StatusCY | ls7366r.StatusBW | ls7366r.StatusCMP | ls7366r.StatusIDX | ls7366r.StatusS

// State is a snapshot of the chip registers.
type State struct {
	MDR0 uint8
	MDR1 uint8
	DTR  uint32
	CNTR uint32
	OTR  uint32
	STR  ls7366r.Status
}

// Chip models an LS7366R. It implements the bus, and CS returns
// its chip select line. Chip is safe for concurrent use so that a
// simulated encoder can count while the bus is in use.
type Chip struct {
	mu       sync.Mutex
	reg      State
	up       bool // Last count direction
	stopped  bool // Single cycle count has completed
	selected bool
	cmd      byte   // Current instruction
	started  bool   // Instruction byte received
	out      []byte // Pending read bytes
	in       []byte // Received write bytes
	// Bus settings from Configure.
	Speed    int
	Mode     int
	LSBFirst bool
}

// Pin is the chip select input of a Chip.
type Pin struct {
	c *Chip
}

// New creates a chip in its power-on state.
func New() *Chip {
	c := new(Chip)
	c.up = true
	return c
}

// CS returns the chip select line.
func (c *Chip) CS() *Pin {
	return &Pin{c}
}

// Set drives the chip select line; 0 selects the chip.
func (p *Pin) Set(v int) error {
	c := p.c
	c.mu.Lock()
	defer c.mu.Unlock()
	sel := v == 0
	if sel && !c.selected {
		c.started = false
		c.out = nil
		c.in = nil
	}
	c.selected = sel
	return nil
}

// Configure records the bus settings.
func (c *Chip) Configure(speedHz, mode int, lsbFirst bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Speed = speedHz
	c.Mode = mode
	c.LSBFirst = lsbFirst
	return nil
}

// Exchange accepts one byte from the host and returns the chip's output.
func (c *Chip) Exchange(b byte) (byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.selected {
		return 0, ErrNotSelected
	}
	if !c.started {
		c.started = true
		c.cmd = b
		c.instruction()
		return 0, nil
	}
	op, r := ls7366r.Decode(c.cmd)
	switch op {
	case ls7366r.RD:
		var v byte
		if len(c.out) > 0 {
			v = c.out[0]
			c.out = c.out[1:]
		}
		return v, nil
	case ls7366r.WR:
		c.in = append(c.in, b)
		if len(c.in) == c.size(r) {
			c.write(r)
		}
	}
	return 0, nil
}

// State returns a snapshot of the registers.
func (c *Chip) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.reg
	s.STR = c.status()
	return s
}

// Selected returns true if the chip select line is active.
func (c *Chip) Selected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// Count applies n counts, up if positive and down if negative.
func (c *Chip) Count(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ls7366r.CountEnable(c.reg.MDR1&0x04) == ls7366r.CountDisabled || c.stopped {
		return
	}
	up := n >= 0
	if n < 0 {
		n = -n
	}
	c.up = up
	for i := 0; i < n && !c.stopped; i++ {
		if up {
			c.increment()
		} else {
			c.decrement()
		}
		if c.reg.CNTR == c.reg.DTR {
			c.reg.STR |= ls7366r.StatusCMP
		}
	}
}

// Index applies an index pulse according to the index mode in MDR0.
func (c *Chip) Index() {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch ls7366r.IndexMode(c.reg.MDR0 & 0x30) {
	case ls7366r.IndexDisabled:
		return
	case ls7366r.IndexLoadCNTR:
		c.reg.CNTR = c.reg.DTR & c.mask()
	case ls7366r.IndexResetCNTR:
		c.reg.CNTR = 0
	case ls7366r.IndexLoadOTR:
		c.reg.OTR = c.reg.CNTR
	}
	c.reg.STR |= ls7366r.StatusIDX
}

// instruction decodes the instruction byte. CLR and LOAD act at once,
// RD stages the output bytes.
func (c *Chip) instruction() {
	op, r := ls7366r.Decode(c.cmd)
	switch op {
	case ls7366r.CLR:
		switch r {
		case ls7366r.MDR0:
			c.reg.MDR0 = 0
		case ls7366r.MDR1:
			c.reg.MDR1 = 0
		case ls7366r.CNTR:
			c.reg.CNTR = 0
			c.stopped = false
		case ls7366r.STR:
			c.reg.STR &^= latched
		}
	case ls7366r.RD:
		switch r {
		case ls7366r.MDR0:
			c.out = []byte{c.reg.MDR0}
		case ls7366r.MDR1:
			c.out = []byte{c.reg.MDR1}
		case ls7366r.STR:
			c.out = []byte{byte(c.status())}
		case ls7366r.CNTR:
			// CNTR is latched into OTR, and OTR is shifted out.
			c.reg.OTR = c.reg.CNTR
			c.out = c.bytes(c.reg.OTR)
		case ls7366r.OTR:
			c.out = c.bytes(c.reg.OTR)
		}
	case ls7366r.LOAD:
		switch r {
		case ls7366r.CNTR:
			c.reg.CNTR = c.reg.DTR & c.mask()
			c.stopped = false
		case ls7366r.OTR:
			c.reg.OTR = c.reg.CNTR
		}
	}
}

func (c *Chip) write(r ls7366r.Register) {
	var v uint32
	for _, b := range c.in {
		v = v<<8 | uint32(b)
	}
	switch r {
	case ls7366r.MDR0:
		c.reg.MDR0 = uint8(v)
	case ls7366r.MDR1:
		c.reg.MDR1 = uint8(v)
	case ls7366r.DTR:
		c.reg.DTR = v
	}
	c.in = nil
}

// size returns the payload size of a write to r.
func (c *Chip) size(r ls7366r.Register) int {
	if r.Wide() {
		return c.width().Bytes()
	}
	return 1
}

func (c *Chip) width() ls7366r.Width {
	return ls7366r.Width(c.reg.MDR1 & 0x03)
}

func (c *Chip) mask() uint32 {
	return c.width().Mask()
}

// bytes returns v as a counter width sized value, MSB first.
func (c *Chip) bytes(v uint32) []byte {
	b := make([]byte, c.width().Bytes())
	for i := len(b) - 1; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return b
}

func (c *Chip) status() ls7366r.Status {
	s := c.reg.STR & latched
	if ls7366r.CountEnable(c.reg.MDR1&0x04) == ls7366r.CountEnabled {
		s |= ls7366r.StatusCEN
	}
	if c.up {
		s |= ls7366r.StatusUD
	}
	return s
}

// limit returns the count limit for the count mode.
func (c *Chip) limit() uint32 {
	switch ls7366r.CountMode(c.reg.MDR0 & 0x0C) {
	case ls7366r.RangeLimit, ls7366r.ModuloN:
		return c.reg.DTR & c.mask()
	}
	return c.mask()
}

func (c *Chip) increment() {
	mode := ls7366r.CountMode(c.reg.MDR0 & 0x0C)
	if c.reg.CNTR != c.limit() {
		c.reg.CNTR = (c.reg.CNTR + 1) & c.mask()
		return
	}
	c.reg.STR |= ls7366r.StatusCY
	c.reg.STR &^= ls7366r.StatusS
	switch mode {
	case ls7366r.RangeLimit:
		// Counter freezes at the limit.
	case ls7366r.SingleCycle:
		c.reg.CNTR = 0
		c.stopped = true
	default:
		c.reg.CNTR = 0
	}
}

func (c *Chip) decrement() {
	mode := ls7366r.CountMode(c.reg.MDR0 & 0x0C)
	if c.reg.CNTR != 0 {
		c.reg.CNTR--
		return
	}
	c.reg.STR |= ls7366r.StatusBW | ls7366r.StatusS
	switch mode {
	case ls7366r.RangeLimit:
	case ls7366r.SingleCycle:
		c.reg.CNTR = c.limit()
		c.stopped = true
	default:
		c.reg.CNTR = c.limit()
	}
}
