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

// DefaultSpeed is the SPI clock rate used unless SetSpeed is called.
const DefaultSpeed = 4000000

// SPI mode 0: clock idle low, data sampled on the leading edge.
const spiMode = 0

// Bus exchanges bytes with the chip, full duplex, one byte at a time.
type Bus interface {
	Configure(speedHz, mode int, lsbFirst bool) error
	Exchange(byte) (byte, error)
}

// Setter drives the chip-select output. 0 selects the chip, 1 deselects it.
type Setter interface {
	Set(int) error
}

// Device is one LS7366R, addressed by its chip-select line.
// All operations on a Device must be serialised by the caller.
type Device struct {
	bus   Bus
	cs    Setter
	speed int   // SPI clock rate in Hz for the next Init
	width Width // Counter width last written to MDR1
	buf   [5]byte
}

// New creates a Device using the bus and chip-select line.
// Init must be called before any register access.
func New(bus Bus, cs Setter) *Device {
	d := new(Device)
	d.bus = bus
	d.cs = cs
	d.speed = DefaultSpeed
	return d
}

// Init deselects the chip and configures the bus for the chip:
// MSB first, SPI mode 0, at the current speed.
func (d *Device) Init() error {
	if err := d.cs.Set(1); err != nil {
		return fmt.Errorf("chip select: %v", err)
	}
	return d.bus.Configure(d.speed, spiMode, false)
}

// SetSpeed sets the SPI clock rate. It takes effect at the next Init.
func (d *Device) SetSpeed(hz int) {
	d.speed = hz
}

// Speed returns the SPI clock rate to be used at the next Init.
func (d *Device) Speed() int {
	return d.speed
}

// Width returns the counter width used for CNTR, OTR and DTR transfers.
func (d *Device) Width() Width {
	return d.width
}

// Clear clears a register (MDR0, MDR1, CNTR or STR).
func (d *Device) Clear(r Register) error {
	return d.transfer(Command(CLR, r), nil)
}

// Read8 reads a single byte register (MDR0, MDR1 or STR).
func (d *Device) Read8(r Register) (uint8, error) {
	b := d.buf[:1]
	b[0] = 0
	if err := d.transfer(Command(RD, r), b); err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadWide reads CNTR or OTR using the current counter width.
func (d *Device) ReadWide(r Register) (uint32, error) {
	b := d.buf[:d.width.Bytes()]
	for i := range b {
		b[i] = 0
	}
	if err := d.transfer(Command(RD, r), b); err != nil {
		return 0, err
	}
	return unpack(b), nil
}

// WriteMDR0 writes the mode register 0 fields.
func (d *Device) WriteMDR0(q Quadrature, c CountMode, i IndexMode, s SyncMode, f Filter) error {
	return d.write8(MDR0, mdr0(q, c, i, s, f))
}

// WriteMDR1 writes the mode register 1 fields, and sets the
// counter width for all following CNTR, OTR and DTR transfers.
func (d *Device) WriteMDR1(w Width, e CountEnable, idx, cmp, bw, cy Flag) error {
	if err := d.write8(MDR1, mdr1(w, e, idx, cmp, bw, cy)); err != nil {
		return err
	}
	d.width = w
	return nil
}

// Configure writes both mode registers from c.
func (d *Device) Configure(c *Config) error {
	if err := d.write8(MDR0, c.MDR0()); err != nil {
		return err
	}
	if err := d.write8(MDR1, c.MDR1()); err != nil {
		return err
	}
	d.width = c.Width
	return nil
}

// WriteDTR writes the low bytes of v to the data register, according
// to the counter width. The value is moved to CNTR or OTR by Load.
func (d *Device) WriteDTR(v uint32) error {
	b := d.buf[:d.width.Bytes()]
	pack(b, v)
	return d.transfer(Command(WR, DTR), b)
}

// Load transfers DTR to CNTR, or CNTR to OTR.
func (d *Device) Load(r Register) error {
	return d.transfer(Command(LOAD, r), nil)
}

func (d *Device) ReadMDR0() (uint8, error) { return d.Read8(MDR0) }
func (d *Device) ReadMDR1() (uint8, error) { return d.Read8(MDR1) }
func (d *Device) ReadCNTR() (uint32, error) { return d.ReadWide(CNTR) }
func (d *Device) ReadOTR() (uint32, error) { return d.ReadWide(OTR) }
func (d *Device) ClearCNTR() error { return d.Clear(CNTR) }
func (d *Device) ClearSTR() error { return d.Clear(STR) }
func (d *Device) LoadCNTR() error { return d.Load(CNTR) }
func (d *Device) LoadOTR() error { return d.Load(OTR) }

// ReadSTR reads the status register.
func (d *Device) ReadSTR() (Status, error) {
	s, err := d.Read8(STR)
	return Status(s), err
}

func (d *Device) write8(r Register, v byte) error {
	b := d.buf[:1]
	b[0] = v
	return d.transfer(Command(WR, r), b)
}

// transfer selects the chip, sends the instruction byte and then
// exchanges each byte of buf in place. The chip is always deselected
// before returning, so a failed exchange never leaves the line low.
func (d *Device) transfer(cmd byte, buf []byte) (err error) {
	if err = d.cs.Set(0); err != nil {
		return fmt.Errorf("chip select: %v", err)
	}
	defer func() {
		if e := d.cs.Set(1); e != nil && err == nil {
			err = fmt.Errorf("chip deselect: %v", e)
		}
	}()
	if _, err = d.bus.Exchange(cmd); err != nil {
		return fmt.Errorf("instruction 0x%02x: %v", cmd, err)
	}
	for i := range buf {
		if buf[i], err = d.bus.Exchange(buf[i]); err != nil {
			return fmt.Errorf("instruction 0x%02x: byte %d: %v", cmd, i, err)
		}
	}
	return nil
}

// pack stores the low len(b) bytes of v in b, most significant first.
func pack(b []byte, v uint32) {
	for i := len(b) - 1; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
}

// unpack assembles b into a value, most significant byte first.
func unpack(b []byte) uint32 {
	var v uint32
	for _, c := range b {
		v = v<<8 | uint32(c)
	}
	return v
}
