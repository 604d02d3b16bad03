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

// Program to demonstrate direct access to the counter registers.

package main

import (
	"flag"
	"log"
	"time"

	gpio "github.com/aamcrae/gpio"
	"github.com/nhfnnc/LS7366R-Lib/io"
	"github.com/nhfnnc/LS7366R-Lib/ls7366r"
)

var spiDev = flag.String("spi", "/dev/spidev0.0", "SPI device")
var cs = flag.Int("cs", 8, "GPIO pin for chip select")
var speed = flag.Int("speed", ls7366r.DefaultSpeed, "SPI clock in Hz")
var width = flag.Int("width", 4, "Counter width in bytes")
var preset = flag.Uint("preset", 0, "Initial counter value")

func main() {
	flag.Parse()
	w, err := ls7366r.WidthOf(*width)
	if err != nil {
		log.Fatalf("width: %v", err)
	}
	bus, err := io.OpenSPI(*spiDev)
	if err != nil {
		log.Fatalf("%s: %v", *spiDev, err)
	}
	defer bus.Close()
	pin, err := gpio.OutputPin(*cs)
	if err != nil {
		log.Fatalf("Pin %d: %v", *cs, err)
	}
	defer pin.Close()
	dev := ls7366r.New(bus, pin)
	dev.SetSpeed(*speed)
	if err := dev.Init(); err != nil {
		log.Fatalf("Init: %v", err)
	}
	if err := dev.WriteMDR0(ls7366r.X4, ls7366r.FreeRun, ls7366r.IndexDisabled, ls7366r.Async, ls7366r.Filter1); err != nil {
		log.Fatalf("MDR0: %v", err)
	}
	if err := dev.WriteMDR1(w, ls7366r.CountEnabled, ls7366r.FlagNone, ls7366r.FlagNone, ls7366r.FlagNone, ls7366r.FlagNone); err != nil {
		log.Fatalf("MDR1: %v", err)
	}
	if err := dev.WriteDTR(uint32(*preset)); err != nil {
		log.Fatalf("DTR: %v", err)
	}
	if err := dev.LoadCNTR(); err != nil {
		log.Fatalf("Load CNTR: %v", err)
	}
	if err := dev.ClearSTR(); err != nil {
		log.Fatalf("Clear STR: %v", err)
	}
	for {
		v, err := dev.ReadCNTR()
		if err != nil {
			log.Fatalf("CNTR: %v", err)
		}
		s, err := dev.ReadSTR()
		if err != nil {
			log.Fatalf("STR: %v", err)
		}
		log.Printf("count %d, status %v\n", v, s)
		time.Sleep(500 * time.Millisecond)
	}
}
