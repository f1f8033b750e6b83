package geometry

// PoseFromPlanar converts any planar pose (x, y, yaw) into a full Pose with
// z = 0 and a yaw-only orientation. Robot state and landmarks both convert
// through this single function.
func PoseFromPlanar(x, y, yaw float64) Pose {
	return Pose{
		Position:    Vector3{X: x, Y: y},
		Orientation: QuaternionFromYaw(yaw),
	}
}

// FromPose converts a Pose into a composable rigid transform.
func FromPose(p Pose) Transform {
	return Transform{
		Translation: p.Position,
		Rotation:    p.Orientation,
	}
}

// Mul composes two transforms: the result applies o first, then t.
func (t Transform) Mul(o Transform) Transform {
	rotated := t.Rotation.Rotate(o.Translation)
	return Transform{
		Translation: Vector3{
			X: t.Translation.X + rotated.X,
			Y: t.Translation.Y + rotated.Y,
			Z: t.Translation.Z + rotated.Z,
		},
		Rotation: t.Rotation.Mul(o.Rotation),
	}
}

// Inverse returns the transform mapping the child frame back to the parent.
// Expressing landmark L in robot frame R is Inverse(R).Mul(L).
func (t Transform) Inverse() Transform {
	inv := t.Rotation.Conjugate()
	back := inv.Rotate(t.Translation)
	return Transform{
		Translation: Vector3{X: -back.X, Y: -back.Y, Z: -back.Z},
		Rotation:    inv,
	}
}
