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

// Package counter assembles an LS7366R from its configuration,
// and provides polling and a HTTP monitor of the count.

package counter

import (
	"fmt"
	"log"
	"time"

	gpio "github.com/aamcrae/gpio"
	"github.com/nhfnnc/LS7366R-Lib/io"
	"github.com/nhfnnc/LS7366R-Lib/ls7366r"
)

// Sample is a reading of the counter and status registers.
type Sample struct {
	Count  uint32
	Status ls7366r.Status
	Time   time.Time
}

// Counter combines the I/O for a counter and the device driver.
type Counter struct {
	Name    string
	Dev     *ls7366r.Device
	Config  *CounterConfig
	closers []func()
}

// Open opens the SPI bus and chip select GPIO from the
// configuration, and initialises the counter.
func Open(cc *CounterConfig) (*Counter, error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	var bus ls7366r.Bus
	if len(cc.Pins) != 0 {
		if len(cc.Pins) != 3 {
			return nil, fmt.Errorf("%s: s/w SPI needs 3 GPIOs", cc.Name)
		}
		var pins [3]*gpio.Gpio
		for i, n := range cc.Pins {
			var err error
			if i == 2 {
				pins[i], err = gpio.Pin(n)
			} else {
				pins[i], err = gpio.OutputPin(n)
			}
			if err != nil {
				closeAll()
				return nil, fmt.Errorf("%s: pin %d: %v", cc.Name, n, err)
			}
			p := pins[i]
			closers = append(closers, func() { p.Close() })
		}
		bus = io.NewSoftSPI(pins[0], pins[1], pins[2])
	} else {
		spi, err := io.OpenSPI(cc.SPI)
		if err != nil {
			return nil, fmt.Errorf("%s: %v", cc.Name, err)
		}
		closers = append(closers, func() { spi.Close() })
		bus = spi
	}
	cs, err := gpio.OutputPin(cc.Select)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("%s: chip select %d: %v", cc.Name, cc.Select, err)
	}
	closers = append(closers, func() { cs.Close() })
	c, err := Attach(cc, bus, cs)
	if err != nil {
		closeAll()
		return nil, err
	}
	c.closers = closers
	return c, nil
}

// Attach initialises a counter reached through an existing bus and chip select.
// The mode registers are written, and the counter and status are cleared.
func Attach(cc *CounterConfig, bus ls7366r.Bus, cs ls7366r.Setter) (*Counter, error) {
	c := new(Counter)
	c.Name = cc.Name
	c.Config = cc
	c.Dev = ls7366r.New(bus, cs)
	c.Dev.SetSpeed(cc.Speed)
	if err := c.Dev.Init(); err != nil {
		return nil, fmt.Errorf("%s: init: %v", c.Name, err)
	}
	if err := c.Dev.Configure(&cc.Chip); err != nil {
		return nil, fmt.Errorf("%s: mode: %v", c.Name, err)
	}
	if err := c.Dev.ClearCNTR(); err != nil {
		return nil, fmt.Errorf("%s: clear counter: %v", c.Name, err)
	}
	if err := c.Dev.ClearSTR(); err != nil {
		return nil, fmt.Errorf("%s: clear status: %v", c.Name, err)
	}
	log.Printf("%s: MDR0 0x%02x, MDR1 0x%02x, %d byte counter at %d Hz", c.Name, cc.Chip.MDR0(), cc.Chip.MDR1(), cc.Chip.Width.Bytes(), cc.Speed)
	return c, nil
}

// Read samples the counter and the status register.
func (c *Counter) Read() (Sample, error) {
	var s Sample
	var err error
	if s.Count, err = c.Dev.ReadCNTR(); err != nil {
		return s, fmt.Errorf("%s: CNTR: %v", c.Name, err)
	}
	if s.Status, err = c.Dev.ReadSTR(); err != nil {
		return s, fmt.Errorf("%s: STR: %v", c.Name, err)
	}
	s.Time = time.Now()
	return s, nil
}

// Preset loads a new value into the counter via the data register.
func (c *Counter) Preset(v uint32) error {
	if err := c.Dev.WriteDTR(v); err != nil {
		return fmt.Errorf("%s: DTR: %v", c.Name, err)
	}
	if err := c.Dev.LoadCNTR(); err != nil {
		return fmt.Errorf("%s: load CNTR: %v", c.Name, err)
	}
	return nil
}

// Position returns the count as a location within a revolution.
// The count is signed at the configured width, so stepping back
// from zero gives the last position of the revolution.
func (c *Counter) Position(s Sample) int {
	rev := int64(c.Config.Revolution)
	p := Signed(s.Count, c.Dev.Width()) % rev
	if p < 0 {
		p += rev
	}
	return int(p)
}

// Signed sign extends a count read at width w.
func Signed(v uint32, w ls7366r.Width) int64 {
	shift := 32 - 8*uint(w.Bytes())
	return int64(int32(v<<shift) >> shift)
}

// Close releases the counter's I/O.
func (c *Counter) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
