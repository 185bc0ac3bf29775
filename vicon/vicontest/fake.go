// Package vicontest provides a scripted vicon.Client for tests.
package vicontest

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/edwinhayes/vicon_mocap/vicon"
)

type Segment struct {
	Name        string
	Translation vicon.Translation
	Rotation    vicon.Quaternion
}

type Subject struct {
	Name     string
	Segments []Segment
	Quality  float64
	// QualityErr, when set, is returned by ObjectQuality.
	QualityErr error
}

// Frame is one scripted GetFrame result. A frame with Err set makes
// GetFrame fail with Err.
type Frame struct {
	Number   uint32
	Subjects []Subject
	Err      error
}

// Fake replays Frames in order. Once they run out GetFrame returns
// Exhausted, or NoFrame when Exhausted is nil.
type Fake struct {
	VersionInfo vicon.Version
	ConnectErr  error
	// ConnectRefused leaves the client disconnected without an error.
	ConnectRefused bool
	// SetupErr, when set, is returned by EnableSegmentData, SetStreamMode
	// and SetAxisMapping while the settings stay unchanged.
	SetupErr  error
	Rate      float64
	Frames    []Frame
	Exhausted error

	Host  string
	Mode  vicon.StreamMode
	Axes  vicon.AxisMapping
	Calls []string

	mu          sync.Mutex
	connected   bool
	segmentData bool
	current     *Frame
}

var _ vicon.Client = (*Fake)(nil)

func (f *Fake) record(name string) {
	f.mu.Lock()
	f.Calls = append(f.Calls, name)
	f.mu.Unlock()
}

// Count is the number of recorded calls to name.
func (f *Fake) Count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *Fake) Version() vicon.Version {
	f.record("Version")
	return f.VersionInfo
}

func (f *Fake) Connect(host string) error {
	f.record("Connect")
	f.Host = host
	if f.ConnectErr != nil {
		return f.ConnectErr
	}
	if f.connected {
		return vicon.ClientAlreadyConnected
	}
	f.connected = !f.ConnectRefused
	return nil
}

func (f *Fake) IsConnected() bool {
	f.record("IsConnected")
	return f.connected
}

func (f *Fake) Disconnect() error {
	f.record("Disconnect")
	if !f.connected {
		return vicon.NotConnected
	}
	f.connected = false
	return nil
}

func (f *Fake) EnableSegmentData() error {
	f.record("EnableSegmentData")
	if !f.connected {
		return vicon.NotConnected
	}
	if f.SetupErr != nil {
		return f.SetupErr
	}
	f.segmentData = true
	return nil
}

func (f *Fake) IsSegmentDataEnabled() bool {
	f.record("IsSegmentDataEnabled")
	return f.segmentData
}

func (f *Fake) SetStreamMode(mode vicon.StreamMode) error {
	f.record("SetStreamMode")
	if !f.connected {
		return vicon.NotConnected
	}
	if f.SetupErr != nil {
		return f.SetupErr
	}
	f.Mode = mode
	return nil
}

func (f *Fake) SetAxisMapping(x, y, z vicon.Direction) error {
	f.record("SetAxisMapping")
	if f.SetupErr != nil {
		return f.SetupErr
	}
	axes := vicon.AxisMapping{X: x, Y: y, Z: z}
	if err := axes.Validate(); err != nil {
		return err
	}
	f.Axes = axes
	return nil
}

func (f *Fake) GetFrame() error {
	f.record("GetFrame")
	if !f.connected {
		return vicon.NotConnected
	}
	if len(f.Frames) == 0 {
		f.current = nil
		if f.Exhausted != nil {
			return f.Exhausted
		}
		return vicon.NoFrame
	}
	frame := f.Frames[0]
	f.Frames = f.Frames[1:]
	if frame.Err != nil {
		f.current = nil
		return frame.Err
	}
	f.current = &frame
	return nil
}

func (f *Fake) frame() (*Frame, error) {
	if !f.connected {
		return nil, vicon.NotConnected
	}
	if f.current == nil {
		return nil, vicon.NoFrame
	}
	return f.current, nil
}

func (f *Fake) FrameNumber() (uint32, error) {
	f.record("FrameNumber")
	fr, err := f.frame()
	if err != nil {
		return 0, err
	}
	return fr.Number, nil
}

func (f *Fake) FrameRate() (float64, error) {
	f.record("FrameRate")
	if _, err := f.frame(); err != nil {
		return 0, err
	}
	return f.Rate, nil
}

func (f *Fake) SubjectCount() (int, error) {
	f.record("SubjectCount")
	fr, err := f.frame()
	if err != nil {
		return 0, err
	}
	return len(fr.Subjects), nil
}

func (f *Fake) SubjectName(index int) (string, error) {
	f.record("SubjectName")
	fr, err := f.frame()
	if err != nil {
		return "", err
	}
	if index < 0 || index >= len(fr.Subjects) {
		return "", vicon.InvalidIndex
	}
	return fr.Subjects[index].Name, nil
}

func (f *Fake) subject(name string) (*Subject, error) {
	fr, err := f.frame()
	if err != nil {
		return nil, err
	}
	for i := range fr.Subjects {
		if fr.Subjects[i].Name == name {
			return &fr.Subjects[i], nil
		}
	}
	return nil, errors.Wrap(vicon.InvalidSubjectName, name)
}

func (f *Fake) segment(subject, segment string) (*Segment, error) {
	s, err := f.subject(subject)
	if err != nil {
		return nil, err
	}
	for i := range s.Segments {
		if s.Segments[i].Name == segment {
			return &s.Segments[i], nil
		}
	}
	return nil, errors.Wrap(vicon.InvalidSegmentName, segment)
}

func (f *Fake) SegmentCount(subject string) (int, error) {
	f.record("SegmentCount")
	s, err := f.subject(subject)
	if err != nil {
		return 0, err
	}
	return len(s.Segments), nil
}

func (f *Fake) SegmentName(subject string, index int) (string, error) {
	f.record("SegmentName")
	s, err := f.subject(subject)
	if err != nil {
		return "", err
	}
	if index < 0 || index >= len(s.Segments) {
		return "", vicon.InvalidIndex
	}
	return s.Segments[index].Name, nil
}

func (f *Fake) SegmentGlobalTranslation(subject, segment string) (vicon.Translation, error) {
	f.record("SegmentGlobalTranslation")
	s, err := f.segment(subject, segment)
	if err != nil {
		return vicon.Translation{}, err
	}
	return s.Translation, nil
}

func (f *Fake) SegmentGlobalRotationQuaternion(subject, segment string) (vicon.Quaternion, error) {
	f.record("SegmentGlobalRotationQuaternion")
	s, err := f.segment(subject, segment)
	if err != nil {
		return vicon.Quaternion{}, err
	}
	return s.Rotation, nil
}

func (f *Fake) ObjectQuality(subject string) (float64, error) {
	f.record("ObjectQuality")
	s, err := f.subject(subject)
	if err != nil {
		return 0, err
	}
	if s.QualityErr != nil {
		return 0, s.QualityErr
	}
	return s.Quality, nil
}
