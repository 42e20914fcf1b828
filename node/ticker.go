package node

import (
	"math/rand"
	"time"
)

// ScheduleTicks emits a TickEvent every interval until the emitter is
// closed.
//
// Each tick is delayed by up to 10% of the interval to avoid nodes
// synchronising.
func ScheduleTicks(emitter Emitter, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				select {
				case <-time.After(jitter(interval)):
				case <-emitter.Done():
					return
				}

				if !emitter.Emit(TickEvent{At: time.Now()}) {
					return
				}
			case <-emitter.Done():
				return
			}
		}
	}()
}

func jitter(interval time.Duration) time.Duration {
	max := int64(interval) / 10
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(max))
}
