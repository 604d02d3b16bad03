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

// HTTP server for the counter.

package counter

import (
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"

	"github.com/fogleman/gg"
)

const dialSize = 400

// Handler returns the HTTP handlers for a polled counter:
//  /count     the latest count and status as text
//  /dial.png  the count drawn as a dial, one revolution per turn
//  /preset    POST with value=N to load N into the counter
func Handler(p *Poller) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/count", func(w http.ResponseWriter, r *http.Request) {
		s, err := p.Latest()
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprintf(w, "%d %s\n", s.Count, s.Status)
	})
	mux.HandleFunc("/dial.png", func(w http.ResponseWriter, r *http.Request) {
		s, err := p.Latest()
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		c := p.Counter()
		dc := drawDial(c.Position(s), c.Config.Revolution, s)
		if err := dc.EncodePNG(w); err != nil {
			log.Printf("%s: error writing image: %v", c.Name, err)
		}
	})
	mux.HandleFunc("/preset", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		v, err := strconv.ParseUint(r.FormValue("value"), 0, 32)
		if err != nil {
			http.Error(w, fmt.Sprintf("value: %v", err), http.StatusBadRequest)
			return
		}
		err = p.Do(func(c *Counter) error {
			return c.Preset(uint32(v))
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		log.Printf("%s: preset to %d", p.Counter().Name, v)
		fmt.Fprintf(w, "%d\n", v)
	})
	return mux
}

// Serve runs the HTTP server on the port.
func Serve(port int, p *Poller) error {
	url := fmt.Sprintf(":%d", port)
	log.Printf("Starting server on %s", url)
	server := &http.Server{Addr: url, Handler: Handler(p)}
	return server.ListenAndServe()
}

// drawDial draws a dial with a hand at pos out of rev.
func drawDial(pos, rev int, s Sample) *gg.Context {
	mid := float64(dialSize) / 2
	radius := mid - 20
	dc := gg.NewContext(dialSize, dialSize)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(4)
	dc.DrawCircle(mid, mid, radius)
	dc.Stroke()
	// Ticks every 30 degrees.
	dc.SetLineWidth(2)
	for i := 0; i < 12; i++ {
		a := float64(i) * math.Pi / 6
		dc.DrawLine(mid+math.Sin(a)*(radius-15), mid-math.Cos(a)*(radius-15), mid+math.Sin(a)*radius, mid-math.Cos(a)*radius)
	}
	dc.Stroke()
	a := float64(pos) * 2 * math.Pi / float64(rev)
	dc.SetRGB(0, 0, 1)
	dc.SetLineWidth(6)
	dc.DrawLine(mid, mid, mid+math.Sin(a)*(radius-30), mid-math.Cos(a)*(radius-30))
	dc.Stroke()
	dc.SetRGB(0, 0, 0)
	dc.DrawStringAnchored(fmt.Sprintf("%d", s.Count), mid, mid+radius/2, 0.5, 0.5)
	dc.DrawStringAnchored(s.Status.String(), mid, mid+radius/2+16, 0.5, 0.5)
	return dc
}
