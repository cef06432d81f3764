//go:build !zmq
// +build !zmq

package fanout

import "errors"

func newZMQFactory() (SocketFactory, error) {
	return nil, errors.New("zmq transport not compiled in (rebuild with -tags zmq)")
}
