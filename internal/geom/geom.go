// Package geom provides the vector and orientation helpers shared by the
// path, flight and race packages.
//
// Conventions: +X is right, +Y is up and +Z is forward in body space.
// Euler angles are in degrees and compose as yaw(Y) * pitch(X) * roll(Z),
// so positive pitch lowers the nose, positive yaw turns right and positive
// roll raises the right wing.
package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type (
	Vec3 = mgl64.Vec3
	Quat = mgl64.Quat
)

var (
	Right   = Vec3{1, 0, 0}
	Up      = Vec3{0, 1, 0}
	Forward = Vec3{0, 0, 1}
)

// Identity returns the zero rotation.
func Identity() Quat { return mgl64.QuatIdent() }

// Euler builds an orientation from pitch, yaw and roll in degrees.
func Euler(pitch, yaw, roll float64) Quat {
	qy := mgl64.QuatRotate(mgl64.DegToRad(yaw), Up)
	qx := mgl64.QuatRotate(mgl64.DegToRad(pitch), Right)
	qz := mgl64.QuatRotate(mgl64.DegToRad(roll), Forward)
	return qy.Mul(qx).Mul(qz).Normalize()
}

// Angles decomposes q into pitch, yaw and roll in degrees. Pitch lies in
// [-90, 90]; yaw and roll lie in (-180, 180].
func Angles(q Quat) (pitch, yaw, roll float64) {
	m := q.Normalize().Mat4()
	sx := mgl64.Clamp(-m.At(1, 2), -1, 1)
	pitch = math.Asin(sx)
	if math.Abs(sx) < 1-1e-9 {
		yaw = math.Atan2(m.At(0, 2), m.At(2, 2))
		roll = math.Atan2(m.At(1, 0), m.At(1, 1))
	} else {
		// gimbal lock, fold roll into yaw
		yaw = math.Atan2(-m.At(2, 0), m.At(0, 0))
	}
	return mgl64.RadToDeg(pitch), mgl64.RadToDeg(yaw), mgl64.RadToDeg(roll)
}

// LookRotation returns the orientation whose forward axis points along
// forward and whose up axis is as close to up as possible.
func LookRotation(forward, up Vec3) Quat {
	if forward.Len() < 1e-12 {
		return Identity()
	}
	f := forward.Normalize()
	r := up.Cross(f)
	if r.Len() < 1e-9 {
		alt := Forward
		if math.Abs(f.Z()) > 0.9 {
			alt = Right
		}
		r = alt.Cross(f)
	}
	r = r.Normalize()
	u := f.Cross(r)
	return mgl64.Mat4ToQuat(mgl64.Mat3FromCols(r, u, f).Mat4()).Normalize()
}

// TransformDirection maps a body-space direction into world space.
func TransformDirection(q Quat, v Vec3) Vec3 { return q.Rotate(v) }

// InverseTransformDirection maps a world-space direction into the body
// space of q.
func InverseTransformDirection(q Quat, v Vec3) Vec3 { return q.Normalize().Conjugate().Rotate(v) }

// ForwardOf returns the world-space forward axis of q.
func ForwardOf(q Quat) Vec3 { return q.Rotate(Forward) }

// RightOf returns the world-space right axis of q.
func RightOf(q Quat) Vec3 { return q.Rotate(Right) }

// MoveTowards moves current toward target by at most maxDelta.
func MoveTowards(current, target, maxDelta float64) float64 {
	if math.Abs(target-current) <= maxDelta {
		return target
	}
	if target > current {
		return current + maxDelta
	}
	return current - maxDelta
}

// NormalizeAngle wraps deg into (-180, 180].
func NormalizeAngle(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg > 180 {
		deg -= 360
	} else if deg <= -180 {
		deg += 360
	}
	return deg
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 { return mgl64.Clamp(v, lo, hi) }

// IsFinite reports whether every component of v is a finite number.
func IsFinite(v Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
