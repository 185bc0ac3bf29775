package ros

import (
	gotime "time"
)

const secondInNanosecond = 1000000000

const maxUint32 = int64(^uint32(0))

func normalizeTemporal(sec int64, nsec int64) (uint32, uint32) {
	sec += nsec / secondInNanosecond
	nsec %= secondInNanosecond
	if nsec < 0 {
		sec--
		nsec += secondInNanosecond
	}
	if sec < 0 || sec > maxUint32 {
		panic("ros: time is out of range")
	}
	return uint32(sec), uint32(nsec)
}

func cmpUint64(lhs, rhs uint64) int {
	switch {
	case lhs > rhs:
		return 1
	case lhs < rhs:
		return -1
	}
	return 0
}

type temporal struct {
	Sec  uint32
	NSec uint32
}

func (t *temporal) IsZero() bool {
	return t.Sec == 0 && t.NSec == 0
}

func (t *temporal) ToSec() float64 {
	return float64(t.Sec) + float64(t.NSec)*1e-9
}

func (t *temporal) ToNSec() uint64 {
	return uint64(t.Sec)*secondInNanosecond + uint64(t.NSec)
}

func (t *temporal) FromSec(sec float64) {
	t.FromNSec(uint64(sec * 1e9))
}

func (t *temporal) FromNSec(nsec uint64) {
	t.Sec, t.NSec = normalizeTemporal(0, int64(nsec))
}

// Time is a ROS time value {sec,nsec} since the Unix epoch
type Time struct {
	temporal
}

// NewTime creates a Time object of given integers {sec,nsec}
func NewTime(sec uint32, nsec uint32) Time {
	s, ns := normalizeTemporal(int64(sec), int64(nsec))
	return Time{temporal{s, ns}}
}

// FromTime converts a Go time to a ROS Time
func FromTime(t gotime.Time) Time {
	var r Time
	r.FromNSec(uint64(t.UnixNano()))
	return r
}

// Now creates a Time object of value Now
func Now() Time {
	return FromTime(gotime.Now())
}

// GoTime converts t back to a Go time
func (t Time) GoTime() gotime.Time {
	return gotime.Unix(int64(t.Sec), int64(t.NSec))
}

// Diff returns difference of two Time objects as a Duration
func (t Time) Diff(from Time) Duration {
	sec, nsec := normalizeTemporal(int64(t.Sec)-int64(from.Sec),
		int64(t.NSec)-int64(from.NSec))
	return Duration{temporal{sec, nsec}}
}

// Add returns sum of Time and Duration given
func (t Time) Add(d Duration) Time {
	sec, nsec := normalizeTemporal(int64(t.Sec)+int64(d.Sec),
		int64(t.NSec)+int64(d.NSec))
	return Time{temporal{sec, nsec}}
}

// Cmp returns int comparison of two Time objects
func (t Time) Cmp(other Time) int {
	return cmpUint64(t.ToNSec(), other.ToNSec())
}

// Duration is a non-negative span of time {sec,nsec}
type Duration struct {
	temporal
}

// NewDuration instantiates a new Duration item with given sec and nsec integers
func NewDuration(sec uint32, nsec uint32) Duration {
	s, ns := normalizeTemporal(int64(sec), int64(nsec))
	return Duration{temporal{s, ns}}
}

// Add function for adding two durations together
func (d Duration) Add(other Duration) Duration {
	sec, nsec := normalizeTemporal(int64(d.Sec)+int64(other.Sec),
		int64(d.NSec)+int64(other.NSec))
	return Duration{temporal{sec, nsec}}
}

// Sub function for subtracting a duration from another
func (d Duration) Sub(other Duration) Duration {
	sec, nsec := normalizeTemporal(int64(d.Sec)-int64(other.Sec),
		int64(d.NSec)-int64(other.NSec))
	return Duration{temporal{sec, nsec}}
}

// Cmp function to compare two durations
func (d Duration) Cmp(other Duration) int {
	return cmpUint64(d.ToNSec(), other.ToNSec())
}

// GoDuration converts d to a time.Duration
func (d Duration) GoDuration() gotime.Duration {
	return gotime.Duration(d.ToNSec())
}
