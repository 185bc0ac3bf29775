package mocap

import (
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	modular "github.com/edwinhayes/logrus-modular"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edwinhayes/vicon_mocap/msgs/geometry_msgs"
	"github.com/edwinhayes/vicon_mocap/msgs/vicon_mocap_package"
	"github.com/edwinhayes/vicon_mocap/ros"
	"github.com/edwinhayes/vicon_mocap/vicon"
	"github.com/edwinhayes/vicon_mocap/vicon/vicontest"
)

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []ros.Message
	err  error
}

func (p *recordingPublisher) Publish(msg ros.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.msgs)
}

func quadFrame(n uint32) vicontest.Frame {
	return vicontest.Frame{
		Number: n,
		Subjects: []vicontest.Subject{{
			Name: "quad",
			Segments: []vicontest.Segment{{
				Name:        "body",
				Translation: vicon.Translation{X: 1500, Y: -250, Z: 10},
				Rotation:    vicon.Quaternion{X: 0, Y: 0, Z: 0.6, W: 0.8},
			}},
			Quality: 0.25,
		}},
	}
}

type fixture struct {
	client  *vicontest.Fake
	pose    *recordingPublisher
	quality *recordingPublisher
	hook    *test.Hook
	bridge  *Bridge
}

func newFixture(t *testing.T, cfg Config, frames ...vicontest.Frame) *fixture {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	f := &fixture{
		client:  &vicontest.Fake{VersionInfo: vicon.Version{Major: 1, Minor: 12}, Rate: 100, Frames: frames},
		pose:    &recordingPublisher{},
		quality: &recordingPublisher{},
		hook:    hook,
	}
	var err error
	f.bridge, err = NewBridge(f.client, cfg, f.pose, f.quality, modular.NewRootLogger(logger))
	require.NoError(t, err)
	mock := clock.NewMock()
	mock.Set(time.Unix(1700000000, 500))
	f.bridge.clock = mock
	return f
}

func (f *fixture) warnings() []string {
	var out []string
	for _, e := range f.hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			out = append(out, e.Message)
		}
	}
	return out
}

func TestNewBridgeRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.QueueSize = 0
	_, err := NewBridge(&vicontest.Fake{}, cfg, &recordingPublisher{}, &recordingPublisher{}, nil)
	assert.Error(t, err)
}

func TestConnect(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	require.NoError(t, f.bridge.Connect())

	assert.Equal(t, "192.168.1.2:801", f.client.Host)
	assert.Equal(t, vicon.ServerPush, f.client.Mode)
	assert.Equal(t, vicon.DefaultAxisMapping, f.client.Axes)
	assert.Equal(t, []string{
		"Version",
		"Connect",
		"IsConnected",
		"EnableSegmentData",
		"IsSegmentDataEnabled",
		"SetStreamMode",
		"SetAxisMapping",
	}, f.client.Calls)

	var messages []string
	for _, e := range f.hook.AllEntries() {
		messages = append(messages, e.Message)
	}
	assert.Contains(t, messages, "Vicon client version 1.12.0")
	assert.Contains(t, messages, "segment data enabled: true")
}

func TestConnectFailureNoPublish(t *testing.T) {
	f := newFixture(t, DefaultConfig(), quadFrame(1))
	f.client.ConnectErr = vicon.ClientConnectionFailed

	err := f.bridge.Connect()
	assert.Equal(t, ErrNotConnected, errors.Cause(err))
	assert.Zero(t, f.client.Count("EnableSegmentData"))

	assert.True(t, vicon.Is(f.bridge.Run(func() bool { return true }), vicon.NotConnected))
	assert.Zero(t, f.pose.count())
	assert.Zero(t, f.quality.count())
}

func TestConnectRefused(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.client.ConnectRefused = true
	err := f.bridge.Connect()
	assert.Equal(t, ErrNotConnected, errors.Cause(err))
}

func TestConnectBadAxisMapping(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.bridge.cfg.Axes = vicon.AxisMapping{X: vicon.Forward, Y: vicon.Right, Z: vicon.Up}
	err := f.bridge.Connect()
	assert.True(t, vicon.Is(err, vicon.LeftHandedAxes), err)
	assert.Zero(t, f.client.Count("Connect"))
}

func TestConnectSetupErrorsKeepStreaming(t *testing.T) {
	f := newFixture(t, DefaultConfig(), quadFrame(7))
	f.client.SetupErr = vicon.NotSupported
	require.NoError(t, f.bridge.Connect())

	assert.Equal(t, []string{
		"segment data not enabled",
		"set stream mode ServerPush",
		"set axis mapping Forward Left Up",
	}, f.warnings())
	var messages []string
	for _, e := range f.hook.AllEntries() {
		messages = append(messages, e.Message)
	}
	assert.Contains(t, messages, "segment data enabled: false")

	require.NoError(t, f.bridge.Step())
	require.Equal(t, 1, f.pose.count())
	assert.Equal(t, uint32(7), f.pose.msgs[0].(*geometry_msgs.PoseStamped).Header.Seq)
}

func TestStepPublishes(t *testing.T) {
	f := newFixture(t, DefaultConfig(), quadFrame(42))
	require.NoError(t, f.bridge.Connect())
	require.NoError(t, f.bridge.Step())

	require.Equal(t, 1, f.pose.count())
	pose := f.pose.msgs[0].(*geometry_msgs.PoseStamped)
	assert.Equal(t, uint32(42), pose.Header.Seq)
	assert.Equal(t, "body", pose.Header.FrameId)
	assert.Equal(t, ros.NewTime(1700000000, 500), pose.Header.Stamp)
	assert.InDelta(t, 1.5, pose.Pose.Position.X, 1e-12)
	assert.InDelta(t, -0.25, pose.Pose.Position.Y, 1e-12)
	assert.InDelta(t, 0.01, pose.Pose.Position.Z, 1e-12)
	assert.Equal(t, geometry_msgs.Quaternion{Z: 0.6, W: 0.8}, pose.Pose.Orientation)

	require.Equal(t, 1, f.quality.count())
	quality := f.quality.msgs[0].(*vicon_mocap_package.QualityMsg)
	assert.Equal(t, uint32(42), quality.Header.Seq)
	assert.Equal(t, 0.25, quality.QualityScore.Data)
	assert.Empty(t, f.warnings())
}

func TestStepLogsFrameSummary(t *testing.T) {
	f := newFixture(t, DefaultConfig(), quadFrame(9))
	require.NoError(t, f.bridge.Connect())
	require.NoError(t, f.bridge.Step())

	entry := f.hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "published pose", entry.Message)
	assert.Equal(t, logrus.DebugLevel, entry.Level)
	assert.Equal(t, LogModule, entry.Data[modular.DefaultModuleField])
	assert.Equal(t, uint32(9), entry.Data["frame"])
	assert.Equal(t, 1, entry.Data["subjects"])
	assert.Equal(t, 100.0, entry.Data["rate"])
	assert.Equal(t, "quad", entry.Data["subject"])
}

func TestStepMissedFrameNoPublish(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	require.NoError(t, f.bridge.Connect())

	err := f.bridge.Step()
	assert.True(t, vicon.Is(err, vicon.NoFrame))
	assert.Zero(t, f.pose.count())
	assert.Zero(t, f.quality.count())
	assert.Equal(t, []string{"did not get a new frame"}, f.warnings())
	assert.Zero(t, f.client.Count("FrameNumber"))
}

func TestStepNamedSubjectAndFrameID(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SubjectName = "wand"
	cfg.SegmentName = "tip"
	cfg.FrameID = "world"
	frame := quadFrame(3)
	frame.Subjects = append(frame.Subjects, vicontest.Subject{
		Name:     "wand",
		Segments: []vicontest.Segment{{Name: "tip", Translation: vicon.Translation{X: 1000}, Rotation: vicon.Quaternion{W: 1}}},
	})
	f := newFixture(t, cfg, frame)
	require.NoError(t, f.bridge.Connect())
	require.NoError(t, f.bridge.Step())

	pose := f.pose.msgs[0].(*geometry_msgs.PoseStamped)
	assert.Equal(t, "world", pose.Header.FrameId)
	assert.Equal(t, 1.0, pose.Pose.Position.X)
	assert.Zero(t, f.client.Count("SubjectName"))
	assert.Zero(t, f.client.Count("SegmentName"))
}

func TestStepSubjectIndexOutOfRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SubjectIndex = 1
	f := newFixture(t, cfg, quadFrame(1))
	require.NoError(t, f.bridge.Connect())
	err := f.bridge.Step()
	assert.True(t, vicon.Is(err, vicon.InvalidIndex), err)
	assert.Zero(t, f.pose.count())
}

func TestStepQualityUnavailable(t *testing.T) {
	frame := quadFrame(5)
	frame.Subjects[0].QualityErr = vicon.NotImplemented
	f := newFixture(t, DefaultConfig(), frame)
	require.NoError(t, f.bridge.Connect())
	require.NoError(t, f.bridge.Step())

	assert.Equal(t, 1, f.pose.count())
	assert.Zero(t, f.quality.count())
	assert.Empty(t, f.warnings())
}

func TestStepQualityError(t *testing.T) {
	frame := quadFrame(5)
	frame.Subjects[0].QualityErr = vicon.InvalidSubjectName
	f := newFixture(t, DefaultConfig(), frame)
	require.NoError(t, f.bridge.Connect())
	require.NoError(t, f.bridge.Step())

	assert.Equal(t, 1, f.pose.count())
	assert.Zero(t, f.quality.count())
	assert.Equal(t, []string{"quality score unavailable"}, f.warnings())
}

func TestStepOccluded(t *testing.T) {
	frame := quadFrame(1)
	frame.Subjects[0].Segments[0].Translation.Occluded = true

	cfg := DefaultConfig()
	cfg.PublishOccluded = false
	f := newFixture(t, cfg, frame)
	require.NoError(t, f.bridge.Connect())
	require.NoError(t, f.bridge.Step())
	assert.Zero(t, f.pose.count())

	f = newFixture(t, DefaultConfig(), frame)
	require.NoError(t, f.bridge.Connect())
	require.NoError(t, f.bridge.Step())
	assert.Equal(t, 1, f.pose.count())
}

func TestStepPublishError(t *testing.T) {
	f := newFixture(t, DefaultConfig(), quadFrame(1))
	f.pose.err = ros.ErrPublisherShutdown
	require.NoError(t, f.bridge.Connect())
	err := f.bridge.Step()
	assert.Equal(t, ros.ErrPublisherShutdown, errors.Cause(err))
	assert.Zero(t, f.quality.count())
}

func TestRun(t *testing.T) {
	f := newFixture(t, DefaultConfig(),
		quadFrame(1),
		vicontest.Frame{Err: vicon.NoFrame},
		quadFrame(3),
	)
	f.client.Exhausted = vicon.NotConnected
	require.NoError(t, f.bridge.Connect())

	err := f.bridge.Run(func() bool { return true })
	assert.True(t, vicon.Is(err, vicon.NotConnected))
	assert.Equal(t, 2, f.pose.count())
	assert.Equal(t, 2, f.quality.count())
	assert.Equal(t, uint32(3), f.pose.msgs[1].(*geometry_msgs.PoseStamped).Header.Seq)
	assert.Equal(t, []string{"did not get a new frame"}, f.warnings())
}

func TestRunStopsWhenNotOK(t *testing.T) {
	f := newFixture(t, DefaultConfig(), quadFrame(1), quadFrame(2), quadFrame(3))
	require.NoError(t, f.bridge.Connect())

	steps := 0
	err := f.bridge.Run(func() bool {
		steps++
		return steps <= 2
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, f.pose.count())
}

func TestRunLogsSkippedFrames(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SubjectName = "missing"
	f := newFixture(t, cfg, quadFrame(1))
	f.client.Exhausted = vicon.NotConnected
	require.NoError(t, f.bridge.Connect())

	f.bridge.Run(func() bool { return true })
	assert.Equal(t, []string{"frame skipped"}, f.warnings())
	assert.Zero(t, f.pose.count())
}

func TestClose(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	require.NoError(t, f.bridge.Connect())
	require.NoError(t, f.bridge.Close())
	assert.False(t, f.client.IsConnected())
	assert.NoError(t, f.bridge.Close())
}
