package fanout

import (
	"context"
	"errors"

	"github.com/benchdeck/benchdeck/pkg/logring"
)

// Bridge forwards every ring append to a publisher. It owns its ring
// subscription and drains until the context ends or the ring shuts down.
type Bridge struct {
	ring *logring.Ring
	pub  *Publisher
	done chan struct{}
}

// NewBridge connects ring to pub.
func NewBridge(ring *logring.Ring, pub *Publisher) *Bridge {
	return &Bridge{ring: ring, pub: pub, done: make(chan struct{})}
}

// Start subscribes and begins forwarding. The publisher must already be
// started.
func (b *Bridge) Start(ctx context.Context) error {
	sub := b.ring.Subscribe(ctx)
	if sub == nil {
		return errors.New("log ring is shut down")
	}

	go func() {
		defer close(b.done)
		defer sub.Unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case entry, ok := <-sub.Channel():
				if !ok {
					return
				}
				if err := b.pub.Publish(entry); err != nil {
					return // publisher stopped
				}
			}
		}
	}()
	return nil
}

// Done is closed when the forwarding loop exits.
func (b *Bridge) Done() <-chan struct{} {
	return b.done
}
