package mathx

import "math"

// Vec3 is a world-space position or direction.
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }
func (v Vec3) Len2() float64      { return v.Dot(v) }
func (v Vec3) Len() float64       { return math.Sqrt(v.Len2()) }

func (v Vec3) Normalized() Vec3 {
	l := v.Len()
	if l == 0 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// Mat3 is a row-major 3x3 rotation matrix.
type Mat3 [9]float64

func Identity3() Mat3 {
	return Mat3{1, 0, 0, 0, 1, 0, 0, 0, 1}
}

// RotationYXZ builds a rotation from yaw (around Y), pitch (around X) and
// roll (around Z), applied in Z, X, Y order. Angles are radians.
func RotationYXZ(yaw, pitch, roll float64) Mat3 {
	sy, cy := math.Sincos(yaw)
	sp, cp := math.Sincos(pitch)
	sr, cr := math.Sincos(roll)

	// Ry * Rx * Rz
	return Mat3{
		cy*cr + sy*sp*sr, -cy*sr + sy*sp*cr, sy * cp,
		cp * sr, cp * cr, -sp,
		-sy*cr + cy*sp*sr, sy*sr + cy*sp*cr, cy * cp,
	}
}

func (m Mat3) Apply(v Vec3) Vec3 {
	return Vec3{
		m[0]*v.X + m[1]*v.Y + m[2]*v.Z,
		m[3]*v.X + m[4]*v.Y + m[5]*v.Z,
		m[6]*v.X + m[7]*v.Y + m[8]*v.Z,
	}
}

// ApplyInv applies the inverse rotation. For an orthonormal matrix the
// inverse is the transpose.
func (m Mat3) ApplyInv(v Vec3) Vec3 {
	return Vec3{
		m[0]*v.X + m[3]*v.Y + m[6]*v.Z,
		m[1]*v.X + m[4]*v.Y + m[7]*v.Z,
		m[2]*v.X + m[5]*v.Y + m[8]*v.Z,
	}
}
