package geometry

import "math"

// IdentityQuaternion returns the no-rotation quaternion.
func IdentityQuaternion() Quaternion {
	return Quaternion{W: 1}
}

// QuaternionFromYaw builds the quaternion for a pure rotation about Z
// (roll = 0, pitch = 0, ZYX convention).
func QuaternionFromYaw(yaw float64) Quaternion {
	half := yaw / 2
	return Quaternion{Z: math.Sin(half), W: math.Cos(half)}
}

// Yaw extracts the Z rotation from a quaternion via the standard
// roll-pitch-yaw decomposition. Non-unit quaternions are not validated.
func (q Quaternion) Yaw() float64 {
	sinYaw := 2 * (q.W*q.Z + q.X*q.Y)
	cosYaw := 1 - 2*(q.Y*q.Y+q.Z*q.Z)
	return math.Atan2(sinYaw, cosYaw)
}

// Mul returns the Hamilton product q*r. Applying the result rotates by r
// first, then by q.
func (q Quaternion) Mul(r Quaternion) Quaternion {
	return Quaternion{
		X: q.W*r.X + q.X*r.W + q.Y*r.Z - q.Z*r.Y,
		Y: q.W*r.Y - q.X*r.Z + q.Y*r.W + q.Z*r.X,
		Z: q.W*r.Z + q.X*r.Y - q.Y*r.X + q.Z*r.W,
		W: q.W*r.W - q.X*r.X - q.Y*r.Y - q.Z*r.Z,
	}
}

// Conjugate returns the inverse rotation for a unit quaternion.
func (q Quaternion) Conjugate() Quaternion {
	return Quaternion{X: -q.X, Y: -q.Y, Z: -q.Z, W: q.W}
}

// Rotate applies the rotation to a vector.
func (q Quaternion) Rotate(v Vector3) Vector3 {
	p := Quaternion{X: v.X, Y: v.Y, Z: v.Z}
	r := q.Mul(p).Mul(q.Conjugate())
	return Vector3{X: r.X, Y: r.Y, Z: r.Z}
}
