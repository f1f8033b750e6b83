// Package geometry provides the pose, transform, and message shapes shared by
// the simulator core and its transport surfaces. The JSON layout follows the
// ROS geometry_msgs / nav_msgs conventions so bridged tooling can consume the
// output unchanged.
package geometry

import "time"

// Vector3 defines a standard 3D vector.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Quaternion defines an orientation as a unit quaternion.
type Quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// Header carries the timestamp and coordinate frame of a stamped message.
type Header struct {
	Stamp   time.Time `json:"stamp"`
	FrameID string    `json:"frame_id"`
}

// Pose is a position plus orientation.
type Pose struct {
	Position    Vector3    `json:"position"`
	Orientation Quaternion `json:"orientation"`
}

// PoseStamped is a Pose tagged with a frame and timestamp.
type PoseStamped struct {
	Header Header `json:"header"`
	Pose   Pose   `json:"pose"`
}

// Path is an ordered sequence of stamped poses.
type Path struct {
	Header Header        `json:"header"`
	Poses  []PoseStamped `json:"poses"`
}

// Transform is a rigid transform: rotate by Rotation, then translate by
// Translation. See FromPose, Mul, and Inverse in transform.go.
type Transform struct {
	Translation Vector3    `json:"translation"`
	Rotation    Quaternion `json:"rotation"`
}

// TransformStamped names a rigid transform from the header frame to the child
// frame, as broadcast every tick for the robot and each landmark.
type TransformStamped struct {
	Header       Header    `json:"header"`
	ChildFrameID string    `json:"child_frame_id"`
	Transform    Transform `json:"transform"`
}

// TwistMsg represents a command velocity message, matching geometry_msgs/Twist.
type TwistMsg struct {
	Linear  Vector3 `json:"linear"`
	Angular Vector3 `json:"angular"`
}

// PoseWithCovariance is a pose with a row-major 6x6 covariance matrix.
// The covariance is accepted for wire compatibility and otherwise ignored.
type PoseWithCovariance struct {
	Pose       Pose      `json:"pose"`
	Covariance []float64 `json:"covariance,omitempty"`
}

// PoseWithCovarianceStamped matches geometry_msgs/PoseWithCovarianceStamped,
// the shape delivered on the initial-pose reset channel.
type PoseWithCovarianceStamped struct {
	Header Header             `json:"header"`
	Pose   PoseWithCovariance `json:"pose"`
}
