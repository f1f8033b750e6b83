package zeromq

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/pebbe/zmq4"

	"github.com/open-teleop/navsim/pkg/geometry"
	customlog "github.com/open-teleop/navsim/pkg/log"
)

// Publisher sends the simulator outputs on a PUB socket, one topic frame
// followed by a JSON envelope frame. It implements sim.Publisher.
type Publisher struct {
	socket  *zmq4.Socket
	logger  customlog.Logger
	running bool
	mu      sync.Mutex
}

// NewPublisher creates a PUB socket bound to the given address.
func NewPublisher(ctx *zmq4.Context, bindAddress string, logger customlog.Logger) (*Publisher, error) {
	socket, err := ctx.NewSocket(zmq4.PUB)
	if err != nil {
		return nil, fmt.Errorf("failed to create PUB socket: %w", err)
	}

	if err := socket.Bind(bindAddress); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to bind to %s: %w", bindAddress, err)
	}

	if err := socket.SetLinger(0); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set linger option: %w", err)
	}

	logger.Infof("ZeroMQ publisher bound to %s", bindAddress)

	return &Publisher{
		socket:  socket,
		logger:  logger,
		running: true,
	}, nil
}

// PublishPose publishes the current robot pose.
func (p *Publisher) PublishPose(pose geometry.PoseStamped) error {
	return p.publish(TopicPose, MsgTypePose, pose)
}

// PublishPath publishes the per-tick landmark path.
func (p *Publisher) PublishPath(path geometry.Path) error {
	return p.publish(TopicPath, MsgTypePath, path)
}

// PublishTransform publishes one frame broadcast.
func (p *Publisher) PublishTransform(tf geometry.TransformStamped) error {
	return p.publish(TopicTransform, MsgTypeTransform, tf)
}

func (p *Publisher) publish(topic, msgType string, payload interface{}) error {
	envelope := Envelope{
		Type:      msgType,
		Timestamp: float64(time.Now().UnixNano()) / float64(time.Second),
		Data:      payload,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to serialize %s message: %w", msgType, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return ErrServiceClosed
	}

	// Send two frames in sequence (topic first, then message)
	if _, err := p.socket.Send(topic, zmq4.SNDMORE); err != nil {
		return fmt.Errorf("failed to send topic: %w", err)
	}
	if _, err := p.socket.SendBytes(data, 0); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// Close cleans up resources
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.running = false
	if p.socket != nil {
		p.socket.Close()
		p.socket = nil
	}
}
