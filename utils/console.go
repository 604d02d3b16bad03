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

// Register console utility

package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/nhfnnc/LS7366R-Lib/counter"
	"github.com/nhfnnc/LS7366R-Lib/ls7366r"
)

var configFile = flag.String("config", "counter.conf", "Configuration file")
var section = flag.String("counter", "encoder", "Counter to access")

func main() {
	flag.Parse()
	cc, err := counter.ReadConfig(*configFile, *section)
	if err != nil {
		log.Fatalf("%s: %v", *configFile, err)
	}
	c, err := counter.Open(cc)
	if err != nil {
		log.Fatalf("Counter: %s %v", *section, err)
	}
	defer c.Close()
	dev := c.Dev
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("Enter command ('help' for help) ")
		text, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		f := strings.Fields(text)
		if len(f) == 0 {
			continue
		}
		switch f[0] {
		case "help":
			fmt.Println("  help - print help")
			fmt.Println("  r REG - read MDR0, MDR1, CNTR, OTR or STR")
			fmt.Println("  c REG - clear MDR0, MDR1, CNTR or STR")
			fmt.Println("  l REG - load CNTR (from DTR) or OTR (from CNTR)")
			fmt.Println("  dtr N - write N to DTR")
			fmt.Println("  p N - preset counter to N")
			fmt.Println("  w N - set counter width to N bytes")
			fmt.Println("  speed N - set SPI clock to N Hz")
			fmt.Println("  q - quit")
		case "q":
			return
		case "r", "c", "l":
			if len(f) != 2 {
				fmt.Println("Register required")
				continue
			}
			r, err := ls7366r.ParseRegister(f[1])
			if err != nil {
				fmt.Printf("%v\n", err)
				continue
			}
			command(dev, f[0], r)
		case "dtr", "p", "w", "speed":
			if len(f) != 2 {
				fmt.Println("Value required")
				continue
			}
			v, err := strconv.ParseUint(f[1], 0, 32)
			if err != nil {
				fmt.Printf("%s: %v\n", f[1], err)
				continue
			}
			set(c, f[0], uint32(v))
		default:
			fmt.Printf("Unrecognised input\n")
		}
	}
}

func command(dev *ls7366r.Device, cmd string, r ls7366r.Register) {
	var err error
	switch cmd {
	case "r":
		if r.Wide() {
			var v uint32
			if v, err = dev.ReadWide(r); err == nil {
				fmt.Printf("%s = %d (0x%0*x)\n", r, v, dev.Width().Bytes()*2, v)
			}
		} else {
			var v uint8
			if v, err = dev.Read8(r); err == nil {
				if r == ls7366r.STR {
					fmt.Printf("%s = 0x%02x %v\n", r, v, ls7366r.Status(v))
				} else {
					fmt.Printf("%s = 0x%02x\n", r, v)
				}
			}
		}
	case "c":
		err = dev.Clear(r)
	case "l":
		err = dev.Load(r)
	}
	if err != nil {
		fmt.Printf("%s %s: %v\n", cmd, r, err)
	}
}

func set(c *counter.Counter, cmd string, v uint32) {
	var err error
	dev := c.Dev
	switch cmd {
	case "dtr":
		err = dev.WriteDTR(v)
	case "p":
		err = c.Preset(v)
	case "w":
		var w ls7366r.Width
		if w, err = ls7366r.WidthOf(int(v)); err == nil {
			chip := c.Config.Chip
			chip.Width = w
			err = dev.Configure(&chip)
		}
	case "speed":
		dev.SetSpeed(int(v))
		err = dev.Init()
	}
	if err != nil {
		fmt.Printf("%s %d: %v\n", cmd, v, err)
	}
}
