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
	"testing"
)

func TestCommand(t *testing.T) {
	tests := []struct {
		op   Op
		reg  Register
		want byte
	}{
		{CLR, MDR0, 0x08},
		{CLR, MDR1, 0x10},
		{CLR, CNTR, 0x20},
		{CLR, STR, 0x30},
		{RD, MDR0, 0x48},
		{RD, MDR1, 0x50},
		{RD, CNTR, 0x60},
		{RD, OTR, 0x68},
		{RD, STR, 0x70},
		{WR, MDR0, 0x88},
		{WR, MDR1, 0x90},
		{WR, DTR, 0x98},
		{LOAD, CNTR, 0xE0},
		{LOAD, OTR, 0xE8},
	}
	for _, tt := range tests {
		got := Command(tt.op, tt.reg)
		if got != tt.want {
			t.Errorf("Command(%s, %s) = 0x%02X, want 0x%02X", tt.op, tt.reg, got, tt.want)
		}
		if got&0x07 != 0 {
			t.Errorf("Command(%s, %s) = 0x%02X has low bits set", tt.op, tt.reg, got)
		}
		if !Valid(tt.op, tt.reg) {
			t.Errorf("Valid(%s, %s) = false", tt.op, tt.reg)
		}
		op, reg := Decode(got)
		if op != tt.op || reg != tt.reg {
			t.Errorf("Decode(0x%02X) = %s %s, want %s %s", got, op, reg, tt.op, tt.reg)
		}
	}
}

func TestValid(t *testing.T) {
	invalid := []struct {
		op  Op
		reg Register
	}{
		{CLR, DTR},
		{CLR, OTR},
		{RD, DTR},
		{WR, CNTR},
		{WR, OTR},
		{WR, STR},
		{LOAD, MDR0},
		{LOAD, DTR},
		{LOAD, STR},
	}
	for _, tt := range invalid {
		if Valid(tt.op, tt.reg) {
			t.Errorf("Valid(%s, %s) = true, want false", tt.op, tt.reg)
		}
	}
}

func TestParseRegister(t *testing.T) {
	r, err := ParseRegister("cntr")
	if err != nil || r != CNTR {
		t.Errorf("ParseRegister(cntr) = %s, %v", r, err)
	}
	r, err = ParseRegister(" OTR ")
	if err != nil || r != OTR {
		t.Errorf("ParseRegister(OTR) = %s, %v", r, err)
	}
	if _, err := ParseRegister("MDR2"); err == nil {
		t.Errorf("ParseRegister(MDR2): expected error")
	}
}

func TestWide(t *testing.T) {
	for _, r := range []Register{MDR0, MDR1, DTR, CNTR, OTR, STR} {
		want := r == DTR || r == CNTR || r == OTR
		if r.Wide() != want {
			t.Errorf("%s.Wide() = %v", r, r.Wide())
		}
	}
}
