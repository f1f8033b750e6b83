package api

import (
	"encoding/json"
	"sync"

	"github.com/open-teleop/navsim/pkg/geometry"
	customlog "github.com/open-teleop/navsim/pkg/log"
)

// StreamMessage is the frame sent to WebSocket subscribers.
type StreamMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub fans simulator outputs out to connected WebSocket clients. It
// implements sim.Publisher. Each subscriber has a buffered channel; a slow
// client's messages are dropped rather than stalling the tick.
type Hub struct {
	mu          sync.Mutex
	subscribers map[chan []byte]struct{}
	logger      customlog.Logger
}

// subscriberBuffer is the per-connection queue size before drops start.
const subscriberBuffer = 16

// NewHub creates an empty hub.
func NewHub(logger customlog.Logger) *Hub {
	return &Hub{
		subscribers: make(map[chan []byte]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a new stream consumer.
func (h *Hub) Subscribe() chan []byte {
	ch := make(chan []byte, subscriberBuffer)
	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes a stream consumer.
func (h *Hub) Unsubscribe(ch chan []byte) {
	h.mu.Lock()
	delete(h.subscribers, ch)
	h.mu.Unlock()
}

// PublishPose streams the current pose to all subscribers.
func (h *Hub) PublishPose(pose geometry.PoseStamped) error {
	return h.broadcast("pose", pose)
}

// PublishPath streams the landmark path to all subscribers.
func (h *Hub) PublishPath(path geometry.Path) error {
	return h.broadcast("path", path)
}

// PublishTransform is a no-op: per-frame broadcasts at tick rate are too
// chatty for operator UIs, which reconstruct frames from pose and path.
func (h *Hub) PublishTransform(tf geometry.TransformStamped) error {
	return nil
}

func (h *Hub) broadcast(msgType string, payload interface{}) error {
	data, err := json.Marshal(StreamMessage{Type: msgType, Data: payload})
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers {
		select {
		case ch <- data:
		default:
			// Subscriber queue is full, drop the frame.
			h.logger.Debugf("WS subscriber queue full, dropping %s frame", msgType)
		}
	}
	return nil
}
