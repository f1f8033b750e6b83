// Package sim implements the motion simulation core: kinematic integration,
// velocity tracking, stochastic pose error, and the per-tick loop that turns
// velocity commands into published poses, landmark paths, and transforms.
package sim

// State is the authoritative noisy robot pose in the world frame.
// Yaw is in radians and left unbounded (never wrapped).
type State struct {
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
	Yaw float64 `json:"yaw"`
}

// Velocity is the simulator's currently tracked actuation, distinct from the
// externally commanded target. It converges toward the command over ticks.
type Velocity struct {
	V float64 `json:"v"`
	W float64 `json:"w"`
}

// Twist is a commanded velocity target: linear and angular speed.
type Twist struct {
	V float64 `json:"v"`
	W float64 `json:"w"`
}
