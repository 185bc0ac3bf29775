// Package mocap republishes Vicon segment poses and quality scores as ROS
// messages.
package mocap

import (
	"io"

	"github.com/benbjohnson/clock"
	modular "github.com/edwinhayes/logrus-modular"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/edwinhayes/vicon_mocap/msgs/geometry_msgs"
	"github.com/edwinhayes/vicon_mocap/msgs/std_msgs"
	"github.com/edwinhayes/vicon_mocap/msgs/vicon_mocap_package"
	"github.com/edwinhayes/vicon_mocap/ros"
	"github.com/edwinhayes/vicon_mocap/vicon"
)

// LogModule names the bridge's logger under the root it is given.
const LogModule = "mocap"

// ErrNotConnected is returned by Connect when the client could not reach
// the server.
var ErrNotConnected = errors.New("not connected to the Vicon server")

// Publisher is the part of ros.Publisher the bridge needs.
type Publisher interface {
	Publish(msg ros.Message) error
}

type Bridge struct {
	client  vicon.Client
	cfg     Config
	pose    Publisher
	quality Publisher
	logger  modular.Logger
	clock   clock.Clock
}

// NewBridge validates cfg and returns a bridge logging through the LogModule
// child of logger.
func NewBridge(client vicon.Client, cfg Config, pose, quality Publisher, logger modular.ModuleLogger) (*Bridge, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	if logger == nil {
		logger = modular.NewRootLogger(logrus.New())
	}
	return &Bridge{
		client:  client,
		cfg:     cfg,
		pose:    pose,
		quality: quality,
		logger:  logger.GetOrCreateChild(LogModule, logger.GetLevel()),
		clock:   clock.New(),
	}, nil
}

// Connect connects and configures the client. It returns an error whose
// cause is ErrNotConnected when no connection was made. Once connected,
// failures to configure the client are logged and streaming goes ahead.
func (b *Bridge) Connect() error {
	axes := b.cfg.Axes
	if err := axes.Validate(); err != nil {
		return errors.Wrapf(err, "axis mapping %s %s %s", axes.X, axes.Y, axes.Z)
	}

	logger := b.logger.WithField("host", b.cfg.Host)
	logger.Infof("Vicon client version %s", b.client.Version())

	logger.Info("connecting")
	if err := b.client.Connect(b.cfg.Host); err != nil {
		return errors.Wrapf(ErrNotConnected, "%s: %v", b.cfg.Host, err)
	}
	if !b.client.IsConnected() {
		return errors.Wrap(ErrNotConnected, b.cfg.Host)
	}
	logger.Info("connected")

	if err := b.client.EnableSegmentData(); err != nil {
		logger.WithError(err).Warn("segment data not enabled")
	}
	logger.Infof("segment data enabled: %t", b.client.IsSegmentDataEnabled())

	if err := b.client.SetStreamMode(b.cfg.StreamMode); err != nil {
		logger.WithError(err).Warnf("set stream mode %s", b.cfg.StreamMode)
	}
	if err := b.client.SetAxisMapping(axes.X, axes.Y, axes.Z); err != nil {
		logger.WithError(err).Warnf("set axis mapping %s %s %s", axes.X, axes.Y, axes.Z)
	}
	logger.WithFields(logrus.Fields{
		"stream_mode": b.cfg.StreamMode.String(),
		"axes":        axes.X.String() + " " + axes.Y.String() + " " + axes.Z.String(),
	}).Debug("client configured")
	return nil
}

func (b *Bridge) subjectSegment(count int) (string, string, error) {
	subject := b.cfg.SubjectName
	if subject == "" {
		if b.cfg.SubjectIndex >= count {
			return "", "", errors.Wrapf(vicon.InvalidIndex, "subject %d of %d", b.cfg.SubjectIndex, count)
		}
		var err error
		if subject, err = b.client.SubjectName(b.cfg.SubjectIndex); err != nil {
			return "", "", errors.Wrapf(err, "subject name %d", b.cfg.SubjectIndex)
		}
	}
	segment := b.cfg.SegmentName
	if segment == "" {
		var err error
		if segment, err = b.client.SegmentName(subject, b.cfg.SegmentIndex); err != nil {
			return "", "", errors.Wrapf(err, "segment name %s/%d", subject, b.cfg.SegmentIndex)
		}
	}
	return subject, segment, nil
}

// Step pulls one frame and publishes its pose and quality. A missed frame
// is logged and returned as NoFrame without publishing anything.
func (b *Bridge) Step() error {
	if err := b.client.GetFrame(); err != nil {
		if vicon.Is(err, vicon.NoFrame) {
			b.logger.Warn("did not get a new frame")
		}
		return errors.Wrap(err, "get frame")
	}

	frame, err := b.client.FrameNumber()
	if err != nil {
		return errors.Wrap(err, "frame number")
	}
	count, err := b.client.SubjectCount()
	if err != nil {
		return errors.Wrap(err, "subject count")
	}
	logger := b.logger.WithFields(logrus.Fields{"frame": frame, "subjects": count})
	if rate, err := b.client.FrameRate(); err == nil {
		logger = logger.WithField("rate", rate)
	}

	subject, segment, err := b.subjectSegment(count)
	if err != nil {
		return err
	}
	logger = logger.WithFields(logrus.Fields{"subject": subject, "segment": segment})

	t, err := b.client.SegmentGlobalTranslation(subject, segment)
	if err != nil {
		return errors.Wrapf(err, "translation of %s/%s", subject, segment)
	}
	q, err := b.client.SegmentGlobalRotationQuaternion(subject, segment)
	if err != nil {
		return errors.Wrapf(err, "rotation of %s/%s", subject, segment)
	}
	if (t.Occluded || q.Occluded) && !b.cfg.PublishOccluded {
		logger.Debug("segment occluded")
		return nil
	}

	header := std_msgs.Header{
		Seq:     frame,
		Stamp:   ros.FromTime(b.clock.Now()),
		FrameId: segment,
	}
	if b.cfg.FrameID != "" {
		header.FrameId = b.cfg.FrameID
	}

	pose := &geometry_msgs.PoseStamped{
		Header: header,
		Pose: geometry_msgs.Pose{
			Position:    geometry_msgs.Point{X: t.X / 1000, Y: t.Y / 1000, Z: t.Z / 1000},
			Orientation: geometry_msgs.Quaternion{X: q.X, Y: q.Y, Z: q.Z, W: q.W},
		},
	}
	if err := b.pose.Publish(pose); err != nil {
		return errors.Wrap(err, "publish pose")
	}

	score, err := b.client.ObjectQuality(subject)
	switch {
	case err == nil:
		quality := &vicon_mocap_package.QualityMsg{
			Header:       header,
			QualityScore: std_msgs.Float64{Data: score},
		}
		if err := b.quality.Publish(quality); err != nil {
			return errors.Wrap(err, "publish quality")
		}
	case vicon.Is(err, vicon.NotImplemented), vicon.Is(err, vicon.NotSupported):
		logger.Debug("source provides no quality score")
	default:
		logger.WithError(err).Warn("quality score unavailable")
	}

	logger.WithFields(logrus.Fields{
		"x": pose.Pose.Position.X,
		"y": pose.Pose.Position.Y,
		"z": pose.Pose.Position.Z,
	}).Debug("published pose")
	return nil
}

// Run calls Step while ok holds. It returns nil when ok stops it and the
// error when the client loses its connection.
func (b *Bridge) Run(ok func() bool) error {
	for ok() {
		err := b.Step()
		switch {
		case err == nil, vicon.Is(err, vicon.NoFrame):
		case vicon.Is(err, vicon.NotConnected):
			return err
		default:
			b.logger.WithError(err).Warn("frame skipped")
		}
	}
	return nil
}

// Close disconnects the client and releases it if it holds resources.
func (b *Bridge) Close() error {
	err := b.client.Disconnect()
	if vicon.Is(err, vicon.NotConnected) {
		err = nil
	}
	if c, ok := b.client.(io.Closer); ok {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	return errors.Wrap(err, "disconnect")
}
