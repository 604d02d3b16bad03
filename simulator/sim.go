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

// Simulator counter program

package main

import (
	"flag"
	"log"
	"time"

	"github.com/nhfnnc/LS7366R-Lib/counter"
	"github.com/nhfnnc/LS7366R-Lib/ls7366r"
	"github.com/nhfnnc/LS7366R-Lib/sim"
)

var port = flag.Int("port", 8080, "Web server port number")
var rpm = flag.Float64("rpm", 6.0, "Simulated shaft speed in RPM")
var revolution = flag.Int("revolution", 2048, "Counts per revolution")
var reverse = flag.Duration("reverse", 30*time.Second, "Interval between direction changes")

func main() {
	flag.Parse()
	chip := sim.New()
	cc := counter.NewConfig("sim")
	cc.SPI = "sim"
	cc.Revolution = *revolution
	cc.Chip.Index = ls7366r.IndexLoadOTR
	cc.Chip.Flags = []ls7366r.Flag{ls7366r.FlagIDX}
	c, err := counter.Attach(cc, chip, chip.CS())
	if err != nil {
		log.Fatalf("Counter: %v", err)
	}
	p := counter.NewPoller(c)
	defer p.Stop()
	go encoder(chip, *revolution, *rpm, *reverse)
	log.Fatal(counter.Serve(*port, p))
}

// encoder acts like a rotating shaft, counting one step at a time
// and pulsing the index once per revolution.
func encoder(chip *sim.Chip, rev int, rpm float64, reverse time.Duration) {
	delay := time.Duration(float64(time.Minute) / (rpm * float64(rev)))
	dir := 1
	pos := 0
	changed := time.Now()
	for {
		chip.Count(dir)
		pos = (pos + dir + rev) % rev
		if pos == 0 {
			chip.Index()
		}
		if time.Since(changed) > reverse {
			dir = -dir
			changed = time.Now()
			log.Printf("Reversing direction")
		}
		time.Sleep(delay)
	}
}
