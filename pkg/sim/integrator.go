package sim

import "math"

// Kp is the proportional gain pulling tracked velocity toward the command.
const Kp = 1.0

// Integrate advances a state one step of the discrete unicycle model.
// Yaw is updated before it is used in the position update; the original
// simulator integrates in this order and downstream consumers are calibrated
// against it, so the ordering must not be "fixed" to a midpoint scheme.
//
// dt = 0 leaves the state unchanged. Negative dt is not validated.
func Integrate(s State, vel Velocity, dt float64) State {
	s.Yaw += vel.W * dt
	s.X += vel.V * math.Cos(s.Yaw) * dt
	s.Y += vel.V * math.Sin(s.Yaw) * dt
	return s
}

// PlanVelocity computes the P-control velocity deltas toward the commanded
// target from the current tracked velocity.
func PlanVelocity(cmd Twist, vel Velocity) (targetV, targetW float64) {
	targetV = Kp * (cmd.V - vel.V)
	targetW = Kp * (cmd.W - vel.W)
	return targetV, targetW
}
