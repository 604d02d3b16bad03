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

package io

import (
	"fmt"
	"time"
)

// SoftSPI is a bit-banged SPI bus driven through GPIO pins,
// for boards where the hardware SPI pins are not available.
// Chip select is not handled by the bus.
type SoftSPI struct {
	clk      Setter
	mosi     Setter
	miso     Getter
	cpol     int           // Clock idle level
	cpha     int           // 0 = sample on leading edge
	lsbFirst bool          // Bit order
	half     time.Duration // Half clock period
}

// NewSoftSPI creates a s/w SPI bus. The bus defaults to mode 0,
// MSB first and no clock delay until Configure is called.
func NewSoftSPI(clk, mosi Setter, miso Getter) *SoftSPI {
	s := new(SoftSPI)
	s.clk = clk
	s.mosi = mosi
	s.miso = miso
	return s
}

// Configure sets the clock rate, SPI mode (0-3) and bit order.
// The clock line is set to its idle level.
func (s *SoftSPI) Configure(speedHz, mode int, lsbFirst bool) error {
	if mode < 0 || mode > 3 {
		return fmt.Errorf("soft SPI: invalid mode %d", mode)
	}
	if speedHz <= 0 {
		return fmt.Errorf("soft SPI: invalid speed %d", speedHz)
	}
	s.cpol = mode >> 1
	s.cpha = mode & 1
	s.lsbFirst = lsbFirst
	s.half = time.Second / time.Duration(2*speedHz)
	return s.clk.Set(s.cpol)
}

// Exchange clocks out one byte while clocking in the reply.
func (s *SoftSPI) Exchange(out byte) (byte, error) {
	var in byte
	for i := 0; i < 8; i++ {
		bit := uint(7 - i)
		if s.lsbFirst {
			bit = uint(i)
		}
		v, err := s.cycle(int(out>>bit) & 1)
		if err != nil {
			return 0, err
		}
		in |= byte(v&1) << bit
	}
	return in, nil
}

// cycle runs one clock period, writing bit to MOSI and sampling MISO.
func (s *SoftSPI) cycle(bit int) (int, error) {
	idle := s.cpol
	active := s.cpol ^ 1
	var v int
	var err error
	if s.cpha == 0 {
		// Data is valid before the leading edge.
		if err = s.mosi.Set(bit); err != nil {
			return 0, err
		}
		s.delay()
		if err = s.clk.Set(active); err != nil {
			return 0, err
		}
		if v, err = s.miso.Get(); err != nil {
			return 0, err
		}
		s.delay()
		err = s.clk.Set(idle)
	} else {
		// Data changes on the leading edge, sampled on the trailing edge.
		if err = s.clk.Set(active); err != nil {
			return 0, err
		}
		if err = s.mosi.Set(bit); err != nil {
			return 0, err
		}
		s.delay()
		if err = s.clk.Set(idle); err != nil {
			return 0, err
		}
		if v, err = s.miso.Get(); err != nil {
			return 0, err
		}
		s.delay()
	}
	return v, err
}

func (s *SoftSPI) delay() {
	if s.half > 0 {
		time.Sleep(s.half)
	}
}
