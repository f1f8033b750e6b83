package sim

import "github.com/open-teleop/navsim/pkg/geometry"

// Publisher receives the simulator's per-tick outputs. Transport surfaces
// (ZeroMQ, MQTT, WebSocket) implement this; publish failures are logged by
// the loop and never fail a tick.
type Publisher interface {
	PublishPose(pose geometry.PoseStamped) error
	PublishPath(path geometry.Path) error
	PublishTransform(tf geometry.TransformStamped) error
}
