package zeromq

import (
	"fmt"
	"sync"
	"time"

	"github.com/pebbe/zmq4"

	customlog "github.com/open-teleop/navsim/pkg/log"
)

// Dispatcher routes inbound messages to the handler registered for their
// topic.
type Dispatcher struct {
	handlers map[string]MessageHandler
	logger   customlog.Logger
	mu       sync.RWMutex
}

// NewDispatcher creates a new message dispatcher
func NewDispatcher(logger customlog.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string]MessageHandler),
		logger:   logger,
	}
}

// RegisterHandler adds a handler for a specific topic
func (d *Dispatcher) RegisterHandler(topic string, handler MessageHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.handlers[topic] = handler
	d.logger.Infof("Registered handler for topic: %s", topic)
}

// Dispatch routes a message to the handler registered for its topic.
func (d *Dispatcher) Dispatch(topic string, data []byte) error {
	d.mu.RLock()
	handler, exists := d.handlers[topic]
	d.mu.RUnlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
	}
	return handler.HandleMessage(data)
}

// CommandListener receives velocity commands and pose resets on a SUB socket
// and dispatches them into the simulation loop. Inputs are fire-and-forget:
// a malformed message is logged and dropped, never answered.
type CommandListener struct {
	socket     *zmq4.Socket
	poller     *zmq4.Poller
	dispatcher *Dispatcher
	logger     customlog.Logger
	running    bool
	mu         sync.Mutex
	wg         sync.WaitGroup
}

// NewCommandListener creates a SUB socket bound to the given address and
// subscribed to the command topics.
func NewCommandListener(ctx *zmq4.Context, bindAddress string, dispatcher *Dispatcher, logger customlog.Logger) (*CommandListener, error) {
	socket, err := ctx.NewSocket(zmq4.SUB)
	if err != nil {
		return nil, fmt.Errorf("failed to create SUB socket: %w", err)
	}

	for _, topic := range []string{TopicCmdVel, TopicInitialPose} {
		if err := socket.SetSubscribe(topic); err != nil {
			socket.Close()
			return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
		}
	}

	if err := socket.Bind(bindAddress); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to bind to %s: %w", bindAddress, err)
	}

	if err := socket.SetLinger(0); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set linger option: %w", err)
	}

	poller := zmq4.NewPoller()
	poller.Add(socket, zmq4.POLLIN)

	logger.Infof("Command listener bound to %s", bindAddress)

	return &CommandListener{
		socket:     socket,
		poller:     poller,
		dispatcher: dispatcher,
		logger:     logger,
	}, nil
}

// Start begins the receive loop in a goroutine.
func (l *CommandListener) Start() {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return
	}
	l.running = true
	l.mu.Unlock()

	l.wg.Add(1)
	go l.receiveLoop()
}

func (l *CommandListener) receiveLoop() {
	defer l.wg.Done()

	for l.isRunning() {
		// Poll with timeout so Stop is noticed promptly.
		sockets, err := l.poller.Poll(500 * time.Millisecond)
		if err != nil {
			if l.isRunning() {
				l.logger.Errorf("Error polling command socket: %v", err)
			}
			continue
		}
		if len(sockets) == 0 {
			continue
		}

		// Topic frame, then payload frame.
		frames, err := l.socket.RecvMessageBytes(0)
		if err != nil {
			if l.isRunning() {
				l.logger.Errorf("Error receiving command message: %v", err)
			}
			continue
		}
		if len(frames) < 2 {
			l.logger.Warnf("Dropping short command message (%d frames)", len(frames))
			continue
		}

		topic := string(frames[0])
		if err := l.dispatcher.Dispatch(topic, frames[1]); err != nil {
			l.logger.Warnf("Dropping message on %s: %v", topic, err)
		}
	}
}

func (l *CommandListener) isRunning() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Stop halts the receive loop and closes the socket.
func (l *CommandListener) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	l.running = false
	l.mu.Unlock()

	if l.socket != nil {
		l.socket.Close()
	}
	l.wg.Wait()
}
