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

// Counter program

package main

import (
	"flag"
	"log"
	"time"

	"github.com/nhfnnc/LS7366R-Lib/counter"
)

var configFile = flag.String("config", "counter.conf", "Configuration file")
var name = flag.String("counter", "encoder", "Counter section in the configuration file")
var port = flag.Int("port", 0, "Web server port number, 0 for none")
var report = flag.Duration("report", 10*time.Second, "Count reporting interval, 0 for none")

func main() {
	flag.Parse()
	cc, err := counter.ReadConfig(*configFile, *name)
	if err != nil {
		log.Fatalf("%s: %v", *configFile, err)
	}
	c, err := counter.Open(cc)
	if err != nil {
		log.Fatalf("Counter: %s %v", *name, err)
	}
	defer c.Close()
	p := counter.NewPoller(c)
	defer p.Stop()
	if *port != 0 {
		go func() {
			log.Fatal(counter.Serve(*port, p))
		}()
	}
	if *report == 0 {
		select {}
	}
	for range time.Tick(*report) {
		s, err := p.Latest()
		if err != nil {
			log.Printf("%s: %v", c.Name, err)
			continue
		}
		log.Printf("%s: count %d, position %d/%d, status %v", c.Name, s.Count, c.Position(s), cc.Revolution, s.Status)
	}
}
