package fanout

import (
	"fmt"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/benchdeck/benchdeck/pkg/logging"
	"github.com/benchdeck/benchdeck/pkg/logring"
	"github.com/benchdeck/benchdeck/pkg/metrics"
)

// defaultBufferSize absorbs bursts while a subscriber catches up.
const defaultBufferSize = 1000

// Publisher fans log entries out to subscribers.
// Single responsibility: serialize entries and push them on the socket.
type Publisher struct {
	socket          Socket
	addr            string
	stream          chan logring.Entry
	stopCh          chan struct{}
	wg              sync.WaitGroup
	running         bool
	runningMu       sync.Mutex
	logger          logging.Logger
	metricsRegistry *metrics.Registry
}

// PublisherConfig configures the publisher.
type PublisherConfig struct {
	Address    string
	BufferSize int
}

// NewPublisher creates a publisher using a socket from factory.
func NewPublisher(factory SocketFactory, cfg PublisherConfig, logger logging.Logger) (*Publisher, error) {
	socket, err := factory.NewPubSocket()
	if err != nil {
		return nil, fmt.Errorf("failed to create PUB socket: %w", err)
	}

	bufSize := cfg.BufferSize
	if bufSize <= 0 {
		bufSize = defaultBufferSize
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	return &Publisher{
		socket:          socket,
		addr:            cfg.Address,
		stream:          make(chan logring.Entry, bufSize),
		stopCh:          make(chan struct{}),
		logger:          logger,
		metricsRegistry: metrics.DefaultRegistry(),
	}, nil
}

// Start binds the socket and begins publishing.
func (p *Publisher) Start() error {
	p.runningMu.Lock()
	defer p.runningMu.Unlock()

	if p.running {
		return fmt.Errorf("fanout publisher already running")
	}

	if err := p.socket.Listen(p.addr); err != nil {
		return fmt.Errorf("failed to bind PUB socket to %s: %w", p.addr, err)
	}

	p.running = true
	p.wg.Add(1)
	go p.publishLoop()

	p.logger.Info("fanout publisher started", logging.String("addr", p.addr))
	return nil
}

// Stop stops the publisher and closes the socket.
func (p *Publisher) Stop() error {
	p.runningMu.Lock()
	defer p.runningMu.Unlock()

	if !p.running {
		return nil
	}

	close(p.stopCh)
	p.running = false
	p.wg.Wait()

	if err := p.socket.Close(); err != nil {
		p.logger.Warn("failed to close fanout socket", logging.Error(err))
	}

	p.logger.Info("fanout publisher stopped")
	return nil
}

// Publish queues an entry. A full buffer drops the entry rather than
// holding up the caller. Returns an error once the publisher stopped.
func (p *Publisher) Publish(entry logring.Entry) error {
	select {
	case <-p.stopCh:
		return fmt.Errorf("fanout publisher stopped")
	default:
	}

	select {
	case p.stream <- entry:
		return nil
	default:
		p.metricsRegistry.RecordFanoutDrop()
		return nil
	}
}

func (p *Publisher) publishLoop() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopCh:
			return
		case entry := <-p.stream:
			data, err := json.Marshal(entry)
			if err != nil {
				p.logger.Warn("failed to marshal log entry", logging.Error(err))
				continue
			}

			// Prepend topic for filtering
			msg := append([]byte(Topic), data...)
			if err := p.socket.Send(msg); err != nil {
				p.metricsRegistry.RecordFanoutSendError()
				p.logger.Warn("failed to publish log entry", logging.Error(err))
				continue
			}
			p.metricsRegistry.RecordFanoutPublish()
		}
	}
}
