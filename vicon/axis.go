package vicon

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// AxisMapping names the direction each output axis points in, relative to
// the Vicon world (Forward is +X, Left is +Y, Up is +Z).
type AxisMapping struct {
	X, Y, Z Direction
}

// DefaultAxisMapping is the identity mapping.
var DefaultAxisMapping = AxisMapping{X: Forward, Y: Left, Z: Up}

type vec3 [3]float64

var directionVectors = map[Direction]vec3{
	Forward:  {1, 0, 0},
	Backward: {-1, 0, 0},
	Left:     {0, 1, 0},
	Right:    {0, -1, 0},
	Up:       {0, 0, 1},
	Down:     {0, 0, -1},
}

func (a AxisMapping) rows() ([3]vec3, bool) {
	var m [3]vec3
	for i, d := range [3]Direction{a.X, a.Y, a.Z} {
		v, ok := directionVectors[d]
		if !ok {
			return m, false
		}
		m[i] = v
	}
	return m, true
}

func axisOf(v vec3) int {
	for i, c := range v {
		if c != 0 {
			return i
		}
	}
	return -1
}

func det3(m [3]vec3) float64 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

// Validate returns CoLinearAxes when two axes share a line and
// LeftHandedAxes when the mapping would mirror the frame.
func (a AxisMapping) Validate() error {
	m, ok := a.rows()
	if !ok {
		return InvalidOperation
	}
	seen := [3]bool{}
	for _, row := range m {
		axis := axisOf(row)
		if seen[axis] {
			return CoLinearAxes
		}
		seen[axis] = true
	}
	if det3(m) < 0 {
		return LeftHandedAxes
	}
	return nil
}

// ApplyTranslation re-expresses t in the mapped frame. a must be valid.
func (a AxisMapping) ApplyTranslation(t Translation) Translation {
	m, _ := a.rows()
	p := vec3{t.X, t.Y, t.Z}
	var out vec3
	for i, row := range m {
		out[i] = row[0]*p[0] + row[1]*p[1] + row[2]*p[2]
	}
	return Translation{X: out[0], Y: out[1], Z: out[2], Occluded: t.Occluded}
}

// ApplyRotation re-expresses q in the mapped frame. a must be valid.
func (a AxisMapping) ApplyRotation(q Quaternion) Quaternion {
	m, _ := a.rows()
	qm := matrixQuat(m)
	n := quat.Mul(quat.Mul(qm, toNumber(q)), quat.Conj(qm))
	out := fromNumber(n)
	out.Occluded = q.Occluded
	return out
}

// matrixQuat converts a rotation matrix to a unit quaternion.
func matrixQuat(m [3]vec3) quat.Number {
	var w, x, y, z float64
	switch trace := m[0][0] + m[1][1] + m[2][2]; {
	case trace > 0:
		s := math.Sqrt(trace+1) * 2
		w = s / 4
		x = (m[2][1] - m[1][2]) / s
		y = (m[0][2] - m[2][0]) / s
		z = (m[1][0] - m[0][1]) / s
	case m[0][0] > m[1][1] && m[0][0] > m[2][2]:
		s := math.Sqrt(1+m[0][0]-m[1][1]-m[2][2]) * 2
		w = (m[2][1] - m[1][2]) / s
		x = s / 4
		y = (m[0][1] + m[1][0]) / s
		z = (m[0][2] + m[2][0]) / s
	case m[1][1] > m[2][2]:
		s := math.Sqrt(1+m[1][1]-m[0][0]-m[2][2]) * 2
		w = (m[0][2] - m[2][0]) / s
		x = (m[0][1] + m[1][0]) / s
		y = s / 4
		z = (m[1][2] + m[2][1]) / s
	default:
		s := math.Sqrt(1+m[2][2]-m[0][0]-m[1][1]) * 2
		w = (m[1][0] - m[0][1]) / s
		x = (m[0][2] + m[2][0]) / s
		y = (m[1][2] + m[2][1]) / s
		z = s / 4
	}
	return quat.Number{Real: w, Imag: x, Jmag: y, Kmag: z}
}

func toNumber(q Quaternion) quat.Number {
	return quat.Number{Real: q.W, Imag: q.X, Jmag: q.Y, Kmag: q.Z}
}

func fromNumber(n quat.Number) Quaternion {
	return Quaternion{X: n.Imag, Y: n.Jmag, Z: n.Kmag, W: n.Real}
}

// QuaternionFromEulerXYZ converts XYZ Euler angles in radians, applied as
// Rx * Ry * Rz, to a unit quaternion.
func QuaternionFromEulerXYZ(x, y, z float64) Quaternion {
	qx := quat.Number{Real: math.Cos(x / 2), Imag: math.Sin(x / 2)}
	qy := quat.Number{Real: math.Cos(y / 2), Jmag: math.Sin(y / 2)}
	qz := quat.Number{Real: math.Cos(z / 2), Kmag: math.Sin(z / 2)}
	return fromNumber(quat.Mul(quat.Mul(qx, qy), qz))
}
