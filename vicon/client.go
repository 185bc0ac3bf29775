// Package vicon describes the call surface of a Vicon motion capture client.
//
// Implementations live in subpackages: datastream wraps the vendor
// DataStream SDK, udpstream decodes the Tracker UDP object stream and
// vicontest provides a scripted fake for tests.
package vicon

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Client is a connection to a Vicon server. Methods that return an error
// return a Result (possibly wrapped) on failure.
type Client interface {
	Version() Version
	Connect(host string) error
	IsConnected() bool
	Disconnect() error

	EnableSegmentData() error
	IsSegmentDataEnabled() bool
	SetStreamMode(mode StreamMode) error
	SetAxisMapping(x, y, z Direction) error

	// GetFrame advances to the next frame. NoFrame means no new frame was
	// available.
	GetFrame() error
	FrameNumber() (uint32, error)
	FrameRate() (float64, error)

	SubjectCount() (int, error)
	SubjectName(index int) (string, error)
	SegmentCount(subject string) (int, error)
	SegmentName(subject string, index int) (string, error)

	// SegmentGlobalTranslation is in millimetres.
	SegmentGlobalTranslation(subject, segment string) (Translation, error)
	SegmentGlobalRotationQuaternion(subject, segment string) (Quaternion, error)
	// ObjectQuality is the RMS deviation of markers from the subject model.
	ObjectQuality(subject string) (float64, error)
}

type Version struct {
	Major, Minor, Point uint32
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Point)
}

type Translation struct {
	X, Y, Z  float64
	Occluded bool
}

type Quaternion struct {
	X, Y, Z, W float64
	Occluded   bool
}

type StreamMode int

const (
	ClientPull StreamMode = iota
	ClientPullPreFetch
	ServerPush
)

var streamModeNames = map[StreamMode]string{
	ClientPull:         "ClientPull",
	ClientPullPreFetch: "ClientPullPreFetch",
	ServerPush:         "ServerPush",
}

func (m StreamMode) String() string {
	if s, ok := streamModeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("StreamMode(%d)", int(m))
}

// ParseStreamMode accepts the mode names case-insensitively.
func ParseStreamMode(s string) (StreamMode, error) {
	for m, name := range streamModeNames {
		if strings.EqualFold(s, name) {
			return m, nil
		}
	}
	return 0, errors.Errorf("unknown stream mode %q", s)
}

type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
	Forward
	Backward
)

var directionNames = map[Direction]string{
	Up:       "Up",
	Down:     "Down",
	Left:     "Left",
	Right:    "Right",
	Forward:  "Forward",
	Backward: "Backward",
}

func (d Direction) String() string {
	if s, ok := directionNames[d]; ok {
		return s
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// ParseDirection accepts the direction names case-insensitively.
func ParseDirection(s string) (Direction, error) {
	for d, name := range directionNames {
		if strings.EqualFold(s, name) {
			return d, nil
		}
	}
	return 0, errors.Errorf("unknown direction %q", s)
}
