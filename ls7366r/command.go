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

// Package ls7366r drives the LS7366R 32 bit quadrature counter over SPI.
//
// Every register access is a single chip-select bracket: the line is driven
// low, an instruction byte is sent, any payload is exchanged most
// significant byte first, and the line is driven high again.
// A Device is not safe for concurrent use.

package ls7366r

import (
	"fmt"
	"strings"
)

// Op is the instruction class held in bits 6-7 of an instruction byte.
type Op uint8

const (
	CLR  Op = 0x00 // Clear register
	RD   Op = 0x40 // Read register
	WR   Op = 0x80 // Write register
	LOAD Op = 0xC0 // Load register from DTR/CNTR
)

// Register selects a register in bits 3-5 of an instruction byte.
type Register uint8

const (
	MDR0 Register = 0x08 // Mode register 0
	MDR1 Register = 0x10 // Mode register 1
	DTR  Register = 0x18 // Data register
	CNTR Register = 0x20 // Counter
	OTR  Register = 0x28 // Output register
	STR  Register = 0x30 // Status register
)

const (
	opMask  = 0xC0
	regMask = 0x38
)

// Command returns the instruction byte for op applied to r.
// The combination is not checked; see Valid.
func Command(op Op, r Register) byte {
	return byte(op)&opMask | byte(r)&regMask
}

// Decode splits an instruction byte into its op and register.
func Decode(b byte) (Op, Register) {
	return Op(b & opMask), Register(b & regMask)
}

// Valid reports whether the chip defines op for register r.
func Valid(op Op, r Register) bool {
	switch op {
	case CLR:
		return r == MDR0 || r == MDR1 || r == CNTR || r == STR
	case RD:
		return r == MDR0 || r == MDR1 || r == CNTR || r == OTR || r == STR
	case WR:
		return r == MDR0 || r == MDR1 || r == DTR
	case LOAD:
		return r == CNTR || r == OTR
	}
	return false
}

// Wide reports whether r is sized by the configured counter width.
func (r Register) Wide() bool {
	return r == DTR || r == CNTR || r == OTR
}

func (r Register) String() string {
	switch r {
	case MDR0:
		return "MDR0"
	case MDR1:
		return "MDR1"
	case DTR:
		return "DTR"
	case CNTR:
		return "CNTR"
	case OTR:
		return "OTR"
	case STR:
		return "STR"
	}
	return fmt.Sprintf("register(0x%02x)", uint8(r))
}

func (op Op) String() string {
	switch op {
	case CLR:
		return "CLR"
	case RD:
		return "RD"
	case WR:
		return "WR"
	case LOAD:
		return "LOAD"
	}
	return fmt.Sprintf("op(0x%02x)", uint8(op))
}

// ParseRegister returns the register with the given name e.g "cntr".
func ParseRegister(s string) (Register, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for _, r := range []Register{MDR0, MDR1, DTR, CNTR, OTR, STR} {
		if r.String() == name {
			return r, nil
		}
	}
	return 0, fmt.Errorf("%s: unknown register", s)
}
