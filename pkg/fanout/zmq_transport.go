//go:build zmq
// +build zmq

package fanout

import (
	zmq "github.com/pebbe/zmq4"
)

// zmqSocket wraps a ZeroMQ socket to implement our Socket interface.
type zmqSocket struct {
	sock *zmq.Socket
}

func (s *zmqSocket) Send(data []byte) error {
	_, err := s.sock.SendBytes(data, 0)
	return err
}

func (s *zmqSocket) Close() error {
	return s.sock.Close()
}

func (s *zmqSocket) Listen(addr string) error {
	return s.sock.Bind(addr)
}

// ZMQSocketFactory creates ZeroMQ sockets. Requires the zmq build tag and
// libzmq at link time.
type ZMQSocketFactory struct{}

// NewZMQSocketFactory creates a new ZeroMQ socket factory.
func NewZMQSocketFactory() *ZMQSocketFactory {
	return &ZMQSocketFactory{}
}

// NewPubSocket creates a PUB socket.
func (f *ZMQSocketFactory) NewPubSocket() (Socket, error) {
	sock, err := zmq.NewSocket(zmq.PUB)
	if err != nil {
		return nil, err
	}
	return &zmqSocket{sock: sock}, nil
}

func newZMQFactory() (SocketFactory, error) {
	return NewZMQSocketFactory(), nil
}

// Ensure ZMQSocketFactory implements SocketFactory
var _ SocketFactory = (*ZMQSocketFactory)(nil)
