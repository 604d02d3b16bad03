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

func TestWidthBytes(t *testing.T) {
	tests := []struct {
		w     Width
		bytes int
		mask  uint32
	}{
		{Byte4, 4, 0xffffffff},
		{Byte3, 3, 0xffffff},
		{Byte2, 2, 0xffff},
		{Byte1, 1, 0xff},
		{Width(7), 4, 0xffffffff},
	}
	for _, tt := range tests {
		if n := tt.w.Bytes(); n != tt.bytes {
			t.Errorf("Width(%d).Bytes() = %d, want %d", tt.w, n, tt.bytes)
		}
		if m := tt.w.Mask(); m != tt.mask {
			t.Errorf("Width(%d).Mask() = 0x%x, want 0x%x", tt.w, m, tt.mask)
		}
	}
}

func TestWidthOf(t *testing.T) {
	for n := 1; n <= 4; n++ {
		w, err := WidthOf(n)
		if err != nil {
			t.Fatalf("WidthOf(%d): %v", n, err)
		}
		if w.Bytes() != n {
			t.Errorf("WidthOf(%d).Bytes() = %d", n, w.Bytes())
		}
	}
	for _, n := range []int{0, 5, -1} {
		if _, err := WidthOf(n); err == nil {
			t.Errorf("WidthOf(%d): expected error", n)
		}
	}
}

func TestFieldsDoNotOverlap(t *testing.T) {
	mdr0 := [][]uint8{
		{uint8(NonQuad), uint8(X1), uint8(X2), uint8(X4)},
		{uint8(FreeRun), uint8(SingleCycle), uint8(RangeLimit), uint8(ModuloN)},
		{uint8(IndexDisabled), uint8(IndexLoadCNTR), uint8(IndexResetCNTR), uint8(IndexLoadOTR)},
		{uint8(Async), uint8(Sync)},
		{uint8(Filter1), uint8(Filter2)},
	}
	checkDisjoint(t, "MDR0", mdr0)
	mdr1 := [][]uint8{
		{uint8(Byte4), uint8(Byte3), uint8(Byte2), uint8(Byte1)},
		{uint8(CountEnabled), uint8(CountDisabled)},
		{uint8(FlagIDX)},
		{uint8(FlagCMP)},
		{uint8(FlagBW)},
		{uint8(FlagCY)},
	}
	checkDisjoint(t, "MDR1", mdr1)
}

// checkDisjoint verifies that the bits used by each field group
// are not used by any other group.
func checkDisjoint(t *testing.T, name string, groups [][]uint8) {
	t.Helper()
	var used uint8
	for i, g := range groups {
		var bits uint8
		for _, v := range g {
			bits |= v
		}
		if used&bits != 0 {
			t.Errorf("%s: field group %d overlaps bits 0x%02x", name, i, used&bits)
		}
		used |= bits
	}
}

func TestConfigBytes(t *testing.T) {
	c := Config{
		Quadrature: X1,
		Count:      RangeLimit,
		Index:      IndexLoadOTR,
		Sync:       Sync,
		Filter:     Filter2,
		Width:      Byte1,
		Enable:     CountDisabled,
		Flags:      []Flag{FlagIDX, FlagCMP},
	}
	if b := c.MDR0(); b != 0xF9 {
		t.Errorf("MDR0() = 0x%02x, want 0xf9", b)
	}
	if b := c.MDR1(); b != 0x37 {
		t.Errorf("MDR1() = 0x%02x, want 0x37", b)
	}
	var zero Config
	if zero.MDR0() != 0 || zero.MDR1() != 0 {
		t.Errorf("zero Config = 0x%02x 0x%02x, want 0 0", zero.MDR0(), zero.MDR1())
	}
}

func TestDebugOverlap(t *testing.T) {
	Debug = true
	defer func() { Debug = false }()
	defer func() {
		if recover() == nil {
			t.Errorf("overlapping flags did not panic")
		}
	}()
	mdr1(Byte4, CountEnabled, FlagIDX, FlagIDX, FlagNone, FlagNone)
}

func TestOverlapUncheckedByDefault(t *testing.T) {
	if b := mdr1(Byte4, CountEnabled, FlagIDX, FlagIDX, FlagNone, FlagNone); b != 0x10 {
		t.Errorf("mdr1 = 0x%02x, want 0x10", b)
	}
}

func TestStatus(t *testing.T) {
	s := StatusCY | StatusCEN | StatusUD
	if !s.Has(StatusCY) || s.Has(StatusBW) {
		t.Errorf("Has on %v", s)
	}
	if !s.Up() {
		t.Errorf("Up() = false for %v", s)
	}
	if got := s.String(); got != "CY|CEN|U/D" {
		t.Errorf("String() = %q", got)
	}
	if got := Status(0).String(); got != "-" {
		t.Errorf("Status(0).String() = %q", got)
	}
}
