// Package fanout publishes every captured log line on a PUB socket so
// external tooling can follow experiments without polling the panel.
package fanout

import (
	"fmt"
	"io"
)

// Topic prefixes every published message so subscribers can filter.
const Topic = "LOG:"

// Socket is the PUB side of a messaging transport.
type Socket interface {
	io.Closer
	Send([]byte) error
	Listen(addr string) error
}

// SocketFactory creates publisher sockets.
// Implementations can provide real sockets or mocks for testing.
type SocketFactory interface {
	NewPubSocket() (Socket, error)
}

// NewFactory returns the factory for the named transport. The zmq
// transport needs the zmq build tag; without it the name is rejected
// here rather than at bind time.
func NewFactory(transport string) (SocketFactory, error) {
	switch transport {
	case "", "nng":
		return NewNNGSocketFactory(), nil
	case "zmq":
		return newZMQFactory()
	default:
		return nil, fmt.Errorf("unknown fanout transport: %s", transport)
	}
}
