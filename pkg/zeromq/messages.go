// Package zeromq provides the pub/sub transport binding: it publishes the
// simulator's per-tick outputs and feeds inbound velocity commands and pose
// resets into the simulation loop.
package zeromq

import (
	"encoding/json"
	"errors"
)

// Common errors
var (
	ErrServiceClosed     = errors.New("zeromq service is closed")
	ErrUnknownTopic      = errors.New("unknown topic")
	ErrUnexpectedMsgType = errors.New("unexpected message type")
)

// Topics
const (
	TopicPose        = "nav.pose"
	TopicPath        = "nav.path"
	TopicTransform   = "nav.tf"
	TopicCmdVel      = "cmd_vel"
	TopicInitialPose = "initialpose"
)

// Message types carried in the envelope
const (
	MsgTypePose        = "POSE_UPDATE"
	MsgTypePath        = "LANDMARK_PATH"
	MsgTypeTransform   = "TRANSFORM"
	MsgTypeCmdVel      = "CMD_VEL"
	MsgTypeInitialPose = "INITIAL_POSE"
)

// Envelope is the generic JSON message frame sent on every topic.
type Envelope struct {
	Type      string      `json:"type"`
	Timestamp float64     `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// RawEnvelope is the decode-side counterpart of Envelope: the payload is kept
// raw so the handler for the topic can unmarshal it into the right shape.
type RawEnvelope struct {
	Type      string          `json:"type"`
	Timestamp float64         `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// MessageHandler defines the interface for handlers that process inbound
// messages for a specific topic.
type MessageHandler interface {
	HandleMessage(data []byte) error
}

// HandlerFunc is a function type that implements MessageHandler
type HandlerFunc func(data []byte) error

// HandleMessage calls the function
func (f HandlerFunc) HandleMessage(data []byte) error {
	return f(data)
}
