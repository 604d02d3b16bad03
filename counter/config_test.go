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

package counter

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/nhfnnc/LS7366R-Lib/ls7366r"
)

func mapLookup(m map[string]string) lookup {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestParseDefaults(t *testing.T) {
	c, err := parse("enc", mapLookup(map[string]string{
		"spi":    "/dev/spidev0.0",
		"select": "8",
	}))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := &CounterConfig{
		Name:       "enc",
		SPI:        "/dev/spidev0.0",
		Select:     8,
		Speed:      ls7366r.DefaultSpeed,
		Chip:       ls7366r.Config{Quadrature: ls7366r.X4, Width: ls7366r.Byte4},
		Revolution: 2048,
		Poll:       100 * time.Millisecond,
	}
	if !reflect.DeepEqual(c, want) {
		t.Errorf("parse = %+v, want %+v", c, want)
	}
}

func TestParseAll(t *testing.T) {
	c, err := parse("enc", mapLookup(map[string]string{
		"spi":        "/dev/spidev1.0",
		"select":     "25",
		"speed":      "1000000",
		"quadrature": "x2",
		"count":      "modulo-n",
		"index":      "reset-cntr",
		"sync":       "sync",
		"filter":     "2",
		"width":      "2",
		"enable":     "false",
		"flags":      "cy, idx,cy",
		"revolution": "400",
		"poll":       "20ms",
	}))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Select != 25 || c.Speed != 1000000 || c.Revolution != 400 || c.Poll != 20*time.Millisecond {
		t.Errorf("parse = %+v", c)
	}
	if b := c.Chip.MDR0(); b != 0xEE {
		t.Errorf("MDR0 = 0x%02x, want 0xee", b)
	}
	if b := c.Chip.MDR1(); b != 0x96 {
		t.Errorf("MDR1 = 0x%02x, want 0x96", b)
	}
	if !reflect.DeepEqual(c.Chip.Flags, []ls7366r.Flag{ls7366r.FlagIDX, ls7366r.FlagCY}) {
		t.Errorf("flags = %v", c.Chip.Flags)
	}
}

func TestParseErrors(t *testing.T) {
	base := map[string]string{"spi": "/dev/spidev0.0", "select": "8"}
	tests := []struct {
		key, value, errMsg string
	}{
		{"spi", "", "spi"},
		{"select", "x", "select"},
		{"select", "-1", "select"},
		{"speed", "0", "speed"},
		{"quadrature", "x3", "quadrature"},
		{"count", "forever", "count"},
		{"index", "on", "index"},
		{"sync", "maybe", "sync"},
		{"filter", "4", "filter"},
		{"width", "5", "width"},
		{"enable", "perhaps", "enable"},
		{"flags", "idx,zz", "flags"},
		{"revolution", "0", "revolution"},
		{"poll", "soon", "poll"},
		{"poll", "-1s", "poll"},
	}
	for _, tt := range tests {
		m := make(map[string]string)
		for k, v := range base {
			m[k] = v
		}
		m[tt.key] = tt.value
		_, err := parse("enc", mapLookup(m))
		if err == nil {
			t.Errorf("%s=%q: expected error", tt.key, tt.value)
			continue
		}
		if !strings.Contains(err.Error(), tt.errMsg) {
			t.Errorf("%s=%q: error = %v, want substring %q", tt.key, tt.value, err, tt.errMsg)
		}
	}
	if _, err := parse("enc", mapLookup(map[string]string{"spi": "/dev/spidev0.0"})); err == nil {
		t.Errorf("missing select: expected error")
	}
}

func TestParseSoftSPI(t *testing.T) {
	c, err := parse("enc", mapLookup(map[string]string{
		"spi":    "gpio:11, 10,9",
		"select": "8",
	}))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !reflect.DeepEqual(c.Pins, []int{11, 10, 9}) {
		t.Errorf("pins = %v", c.Pins)
	}
	for _, bad := range []string{"gpio:11,10", "gpio:11,10,x", "gpio:1,2,-3"} {
		_, err := parse("enc", mapLookup(map[string]string{"spi": bad, "select": "8"}))
		if err == nil {
			t.Errorf("spi=%s: expected error", bad)
		}
	}
}

const tomlDoc = `
[left]
spi = "/dev/spidev0.0"
select = 8
width = 3
flags = ["cmp", "bw"]
enable = true

[right]
spi = "/dev/spidev0.1"
select = 7
poll = "1s"
`

func TestParseTOML(t *testing.T) {
	c, err := ParseTOML([]byte(tomlDoc), "left")
	if err != nil {
		t.Fatalf("ParseTOML: %v", err)
	}
	if c.SPI != "/dev/spidev0.0" || c.Select != 8 || c.Chip.Width != ls7366r.Byte3 {
		t.Errorf("left = %+v", c)
	}
	if !reflect.DeepEqual(c.Chip.Flags, []ls7366r.Flag{ls7366r.FlagCMP, ls7366r.FlagBW}) {
		t.Errorf("left flags = %v", c.Chip.Flags)
	}
	c, err = ParseTOML([]byte(tomlDoc), "right")
	if err != nil {
		t.Fatalf("ParseTOML: %v", err)
	}
	if c.Select != 7 || c.Poll != time.Second {
		t.Errorf("right = %+v", c)
	}
	if _, err := ParseTOML([]byte(tomlDoc), "middle"); err == nil {
		t.Errorf("missing table: expected error")
	}
	if _, err := ParseTOML([]byte("[left"), "left"); err == nil {
		t.Errorf("bad TOML: expected error")
	}
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	tf := filepath.Join(dir, "counter.toml")
	if err := os.WriteFile(tf, []byte(tomlDoc), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := ReadConfig(tf, "right")
	if err != nil {
		t.Fatalf("ReadConfig(%s): %v", tf, err)
	}
	if c.SPI != "/dev/spidev0.1" {
		t.Errorf("right = %+v", c)
	}
	cf := filepath.Join(dir, "counter.conf")
	conf := "[encoder]\nspi=/dev/spidev0.0\nselect=8\nquadrature=x1\nwidth=2\n"
	if err := os.WriteFile(cf, []byte(conf), 0644); err != nil {
		t.Fatal(err)
	}
	c, err = ReadConfig(cf, "encoder")
	if err != nil {
		t.Fatalf("ReadConfig(%s): %v", cf, err)
	}
	if c.Select != 8 || c.Chip.Quadrature != ls7366r.X1 || c.Chip.Width != ls7366r.Byte2 {
		t.Errorf("encoder = %+v", c)
	}
	if _, err := ReadConfig(cf, "missing"); err == nil {
		t.Errorf("missing section: expected error")
	}
}
