package game

import (
	"sync"
	"time"
)

// Countdown calls a tick function on a fixed interval until the function
// reports false or Stop is called.
type Countdown struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// StartCountdown launches the ticking goroutine.
func StartCountdown(interval time.Duration, tick func() bool) *Countdown {
	c := &Countdown{stop: make(chan struct{}), done: make(chan struct{})}
	go func() {
		defer close(c.done)
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-c.stop:
				return
			case <-t.C:
				if !tick() {
					return
				}
			}
		}
	}()
	return c
}

// Stop cancels the countdown. Safe to call more than once and from inside tick.
func (c *Countdown) Stop() {
	c.once.Do(func() { close(c.stop) })
}

// Done is closed once the ticking goroutine has exited.
func (c *Countdown) Done() <-chan struct{} { return c.done }
