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
	"strings"
)

// Status is the value of the status register (STR).
type Status uint8

const (
	StatusS   Status = 0x01 // Sign
	StatusUD  Status = 0x02 // Count direction, 1 = up
	StatusPLS Status = 0x04 // Power loss latch
	StatusCEN Status = 0x08 // Count enabled
	StatusIDX Status = 0x10 // Index latch
	StatusCMP Status = 0x20 // CNTR = DTR latch
	StatusBW  Status = 0x40 // Borrow latch
	StatusCY  Status = 0x80 // Carry latch
)

var statusNames = []struct {
	bit  Status
	name string
}{
	{StatusCY, "CY"},
	{StatusBW, "BW"},
	{StatusCMP, "CMP"},
	{StatusIDX, "IDX"},
	{StatusCEN, "CEN"},
	{StatusPLS, "PLS"},
	{StatusUD, "U/D"},
	{StatusS, "S"},
}

// Has returns true if all the bits in b are set.
func (s Status) Has(b Status) bool {
	return s&b == b
}

// Up returns true if the counter is counting up.
func (s Status) Up() bool {
	return s.Has(StatusUD)
}

func (s Status) String() string {
	var names []string
	for _, n := range statusNames {
		if s.Has(n.bit) {
			names = append(names, n.name)
		}
	}
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, "|")
}
