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
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/aamcrae/config"
	"github.com/nhfnnc/LS7366R-Lib/ls7366r"
)

// softPrefix selects a s/w SPI bus e.g spi=gpio:11,10,9
const softPrefix = "gpio:"

// Defaults for optional settings.
const (
	defaultRevolution = 2048
	defaultPoll       = 100 * time.Millisecond
)

// CounterConfig is the configuration of one counter, read from a configuration file.
type CounterConfig struct {
	Name       string
	SPI        string         // spidev device
	Pins       []int          // GPIOs for s/w SPI clock, MOSI and MISO
	Select     int            // GPIO for chip select
	Speed      int            // SPI clock in Hz
	Chip       ls7366r.Config // Mode registers
	Revolution int            // Counts per revolution, for display
	Poll       time.Duration  // Polling interval
}

// lookup returns the value of a setting, and whether it is present.
type lookup func(key string) (string, bool)

var quadModes = map[string]ls7366r.Quadrature{
	"none": ls7366r.NonQuad,
	"x1":   ls7366r.X1,
	"x2":   ls7366r.X2,
	"x4":   ls7366r.X4,
}

var countModes = map[string]ls7366r.CountMode{
	"free-run":     ls7366r.FreeRun,
	"single-cycle": ls7366r.SingleCycle,
	"range-limit":  ls7366r.RangeLimit,
	"modulo-n":     ls7366r.ModuloN,
}

var indexModes = map[string]ls7366r.IndexMode{
	"disabled":   ls7366r.IndexDisabled,
	"load-cntr":  ls7366r.IndexLoadCNTR,
	"reset-cntr": ls7366r.IndexResetCNTR,
	"load-otr":   ls7366r.IndexLoadOTR,
}

var syncModes = map[string]ls7366r.SyncMode{
	"async": ls7366r.Async,
	"sync":  ls7366r.Sync,
}

var filters = map[string]ls7366r.Filter{
	"1": ls7366r.Filter1,
	"2": ls7366r.Filter2,
}

var flagNames = map[string]ls7366r.Flag{
	"idx": ls7366r.FlagIDX,
	"cmp": ls7366r.FlagCMP,
	"bw":  ls7366r.FlagBW,
	"cy":  ls7366r.FlagCY,
}

// NewConfig returns a configuration holding the defaults.
func NewConfig(name string) *CounterConfig {
	return &CounterConfig{
		Name:       name,
		Speed:      ls7366r.DefaultSpeed,
		Chip:       ls7366r.Config{Quadrature: ls7366r.X4},
		Revolution: defaultRevolution,
		Poll:       defaultPoll,
	}
}

// ReadConfig reads the named counter's configuration from a file.
// Files ending in .toml are read as TOML, with a table per counter,
// otherwise the file is a section based configuration file.
func ReadConfig(file, name string) (*CounterConfig, error) {
	if filepath.Ext(file) == ".toml" {
		var doc map[string]map[string]interface{}
		if _, err := toml.DecodeFile(file, &doc); err != nil {
			return nil, fmt.Errorf("%s: %v", file, err)
		}
		return tomlConfig(doc, name)
	}
	conf, err := config.ParseFile(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", file, err)
	}
	return Config(conf, name)
}

// Config reads and validates a counter config from a config file section.
// Sample config:
//  [encoder]              # name of counter
//  spi=/dev/spidev0.0     # spidev device, or gpio:CLK,MOSI,MISO
//  select=8               # GPIO for chip select
//  speed=2000000          # SPI clock in Hz
//  quadrature=x4          # none, x1, x2, x4
//  count=free-run         # free-run, single-cycle, range-limit, modulo-n
//  index=disabled         # disabled, load-cntr, reset-cntr, load-otr
//  sync=async             # async, sync
//  filter=1               # filter clock division, 1 or 2
//  width=4                # counter width in bytes
//  enable=true            # enable counting
//  flags=idx,cy           # flags on DFLAG: idx, cmp, bw, cy
//  revolution=2048        # counts per revolution
//  poll=100ms             # polling interval
func Config(conf *config.Config, name string) (*CounterConfig, error) {
	s := conf.GetSection(name)
	if s == nil {
		return nil, fmt.Errorf("no config for %s", name)
	}
	return parse(name, func(key string) (string, bool) {
		v, err := s.GetArg(key)
		if err != nil {
			return "", false
		}
		return v, true
	})
}

// ParseTOML reads the named counter's table from a TOML document.
func ParseTOML(data []byte, name string) (*CounterConfig, error) {
	var doc map[string]map[string]interface{}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return tomlConfig(doc, name)
}

func tomlConfig(doc map[string]map[string]interface{}, name string) (*CounterConfig, error) {
	t, ok := doc[name]
	if !ok {
		return nil, fmt.Errorf("no config for %s", name)
	}
	return parse(name, func(key string) (string, bool) {
		v, ok := t[key]
		if !ok {
			return "", false
		}
		if list, ok := v.([]interface{}); ok {
			var s []string
			for _, e := range list {
				s = append(s, fmt.Sprint(e))
			}
			return strings.Join(s, ","), true
		}
		return fmt.Sprint(v), true
	})
}

// parse builds a configuration from the settings, applying defaults
// for those not present.
func parse(name string, get lookup) (*CounterConfig, error) {
	c := NewConfig(name)
	var ok bool
	var err error
	if c.SPI, ok = get("spi"); !ok || c.SPI == "" {
		return nil, fmt.Errorf("%s: spi: missing device", name)
	}
	if strings.HasPrefix(c.SPI, softPrefix) {
		if c.Pins, err = parsePins(strings.TrimPrefix(c.SPI, softPrefix)); err != nil {
			return nil, fmt.Errorf("%s: spi: %v", name, err)
		}
	}
	if c.Select, err = intArg(get, "select", -1); err != nil {
		return nil, fmt.Errorf("%s: %v", name, err)
	}
	if c.Select < 0 {
		return nil, fmt.Errorf("%s: select: missing GPIO", name)
	}
	if c.Speed, err = intArg(get, "speed", ls7366r.DefaultSpeed); err != nil {
		return nil, fmt.Errorf("%s: %v", name, err)
	}
	if c.Speed <= 0 {
		return nil, fmt.Errorf("%s: speed: %d invalid", name, c.Speed)
	}
	if v, ok := get("quadrature"); ok {
		if c.Chip.Quadrature, ok = quadModes[v]; !ok {
			return nil, fmt.Errorf("%s: quadrature: unknown mode %q", name, v)
		}
	}
	if v, ok := get("count"); ok {
		if c.Chip.Count, ok = countModes[v]; !ok {
			return nil, fmt.Errorf("%s: count: unknown mode %q", name, v)
		}
	}
	if v, ok := get("index"); ok {
		if c.Chip.Index, ok = indexModes[v]; !ok {
			return nil, fmt.Errorf("%s: index: unknown mode %q", name, v)
		}
	}
	if v, ok := get("sync"); ok {
		if c.Chip.Sync, ok = syncModes[v]; !ok {
			return nil, fmt.Errorf("%s: sync: unknown mode %q", name, v)
		}
	}
	if v, ok := get("filter"); ok {
		if c.Chip.Filter, ok = filters[v]; !ok {
			return nil, fmt.Errorf("%s: filter: unknown divisor %q", name, v)
		}
	}
	w, err := intArg(get, "width", 4)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", name, err)
	}
	if c.Chip.Width, err = ls7366r.WidthOf(w); err != nil {
		return nil, fmt.Errorf("%s: width: %v", name, err)
	}
	if v, ok := get("enable"); ok {
		en, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("%s: enable: %v", name, err)
		}
		if !en {
			c.Chip.Enable = ls7366r.CountDisabled
		}
	}
	if v, ok := get("flags"); ok {
		if c.Chip.Flags, err = parseFlags(v); err != nil {
			return nil, fmt.Errorf("%s: flags: %v", name, err)
		}
	}
	if c.Revolution, err = intArg(get, "revolution", defaultRevolution); err != nil {
		return nil, fmt.Errorf("%s: %v", name, err)
	}
	if c.Revolution <= 0 {
		return nil, fmt.Errorf("%s: revolution: %d invalid", name, c.Revolution)
	}
	if v, ok := get("poll"); ok {
		if c.Poll, err = time.ParseDuration(v); err != nil {
			return nil, fmt.Errorf("%s: poll: %v", name, err)
		}
		if c.Poll <= 0 {
			return nil, fmt.Errorf("%s: poll: %s invalid", name, v)
		}
	}
	return c, nil
}

func intArg(get lookup, key string, def int) (int, error) {
	v, ok := get(key)
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%s: %v", key, err)
	}
	return n, nil
}

// parseFlags parses a comma separated list of flag names.
// Duplicates are ignored.
func parseFlags(s string) ([]ls7366r.Flag, error) {
	set := make(map[ls7366r.Flag]bool)
	for _, n := range strings.Split(s, ",") {
		n = strings.TrimSpace(n)
		if n == "" || n == "none" {
			continue
		}
		f, ok := flagNames[n]
		if !ok {
			return nil, fmt.Errorf("unknown flag %q", n)
		}
		set[f] = true
	}
	var flags []ls7366r.Flag
	for f := range set {
		flags = append(flags, f)
	}
	sort.Slice(flags, func(i, j int) bool { return flags[i] < flags[j] })
	return flags, nil
}

// parsePins parses the clock, MOSI and MISO GPIOs of a s/w SPI bus.
func parsePins(s string) ([]int, error) {
	f := strings.Split(s, ",")
	if len(f) != 3 {
		return nil, fmt.Errorf("%q: need clock, MOSI and MISO GPIOs", s)
	}
	pins := make([]int, len(f))
	for i, p := range f {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%q: invalid GPIO", p)
		}
		pins[i] = n
	}
	return pins, nil
}
