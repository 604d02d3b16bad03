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
	"errors"
	"log"
	"sync"
	"time"
)

// ErrStopped is returned for requests made after the poller has stopped.
var ErrStopped = errors.New("poller stopped")

type request struct {
	f      func(*Counter) error
	result chan error
}

// Poller owns a Counter and samples it in a background goroutine.
// All access to the device is made from that goroutine, so other
// operations are passed to it using Do.
type Poller struct {
	c        *Counter
	interval time.Duration
	reqChan  chan request
	stopChan chan bool
	stopOnce sync.Once
	done     chan bool
	mu       sync.Mutex // Guards latest and err
	latest   Sample
	err      error
}

// NewPoller starts polling the counter at its configured interval.
func NewPoller(c *Counter) *Poller {
	p := new(Poller)
	p.c = c
	p.interval = c.Config.Poll
	p.reqChan = make(chan request)
	p.stopChan = make(chan bool)
	p.done = make(chan bool)
	go p.driver()
	return p
}

// Counter returns the counter being polled.
func (p *Poller) Counter() *Counter {
	return p.c
}

// Latest returns the most recent sample, and the error from the last
// poll if it failed.
func (p *Poller) Latest() (Sample, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latest, p.err
}

// Do runs f on the polling goroutine and returns its result.
func (p *Poller) Do(f func(*Counter) error) error {
	r := request{f, make(chan error, 1)}
	select {
	case p.reqChan <- r:
	case <-p.done:
		return ErrStopped
	}
	return <-r.result
}

// Refresh takes a sample immediately.
func (p *Poller) Refresh() (Sample, error) {
	var s Sample
	err := p.Do(func(c *Counter) error {
		var err error
		s, err = p.sample()
		return err
	})
	return s, err
}

// Stop stops polling and waits for the goroutine to exit.
// Further calls have no effect.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stopChan) })
	<-p.done
}

// driver is the goroutine that owns the counter.
// Status changes are logged as they are seen.
func (p *Poller) driver() {
	defer close(p.done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stopChan:
			return
		case r := <-p.reqChan:
			r.result <- r.f(p.c)
		case <-ticker.C:
			p.sample()
		}
	}
}

func (p *Poller) sample() (Sample, error) {
	s, err := p.c.Read()
	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		if p.err == nil {
			log.Printf("%s: %v", p.c.Name, err)
		}
		p.err = err
		return s, err
	}
	if s.Status != p.latest.Status {
		log.Printf("%s: status %v (count %d)", p.c.Name, s.Status, s.Count)
	}
	p.latest = s
	p.err = nil
	return s, nil
}
