package udpstream

import (
	"net"
	"strconv"
	"time"

	"github.com/benbjohnson/clock"
	modular "github.com/edwinhayes/logrus-modular"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/edwinhayes/vicon_mocap/vicon"
)

// LogModule names the client's logger under the root it is given.
const LogModule = "udpstream"

const (
	DefaultReadTimeout = time.Second
	maxDatagram        = 65535
	drainTimeout       = time.Millisecond
	rateSmoothing      = 0.2
)

// Client receives the object stream on a local UDP socket. Each object is
// reported as a subject with a single segment of the same name.
type Client struct {
	readTimeout time.Duration
	logger      modular.Logger

	conn        *net.UDPConn
	segmentData bool
	mode        vicon.StreamMode
	axes        vicon.AxisMapping
	frame       *Packet
	buf         []byte
	lastFrame   uint32
	lastArrival time.Time
	frameRate   float64
	clock       clock.Clock
}

var _ vicon.Client = (*Client)(nil)

// New returns a disconnected client. readTimeout bounds how long GetFrame
// waits for a datagram; zero selects DefaultReadTimeout. The client logs
// through the LogModule child of logger.
func New(readTimeout time.Duration, logger modular.ModuleLogger) *Client {
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}
	if logger == nil {
		logger = modular.NewRootLogger(logrus.New())
	}
	return &Client{
		readTimeout: readTimeout,
		logger:      logger.GetOrCreateChild(LogModule, logger.GetLevel()),
		mode:        vicon.ClientPull,
		axes:        vicon.DefaultAxisMapping,
		buf:         make([]byte, maxDatagram),
		clock:       clock.New(),
	}
}

// Version is the object stream protocol version.
func (c *Client) Version() vicon.Version {
	return vicon.Version{Major: 1}
}

// Connect listens on host, a local "ip:port" or ":port". A host without a
// port listens on DefaultPort.
func (c *Client) Connect(host string) error {
	if c.conn != nil {
		return vicon.ClientAlreadyConnected
	}
	if _, _, err := net.SplitHostPort(host); err != nil {
		host = net.JoinHostPort(host, strconv.Itoa(DefaultPort))
	}
	addr, err := net.ResolveUDPAddr("udp", host)
	if err != nil {
		return errors.Wrapf(vicon.InvalidHostName, "%s: %v", host, err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return errors.Wrapf(vicon.ClientConnectionFailed, "%s: %v", host, err)
	}
	c.conn = conn
	c.logger.WithField("addr", conn.LocalAddr().String()).Info("listening for object stream")
	return nil
}

// LocalAddr is the listening address, nil when disconnected.
func (c *Client) LocalAddr() net.Addr {
	if c.conn == nil {
		return nil
	}
	return c.conn.LocalAddr()
}

func (c *Client) IsConnected() bool {
	return c.conn != nil
}

func (c *Client) Disconnect() error {
	if c.conn == nil {
		return vicon.NotConnected
	}
	err := c.conn.Close()
	c.conn = nil
	c.frame = nil
	return errors.Wrap(err, "close object stream socket")
}

func (c *Client) EnableSegmentData() error {
	if c.conn == nil {
		return vicon.NotConnected
	}
	c.segmentData = true
	return nil
}

func (c *Client) IsSegmentDataEnabled() bool {
	return c.segmentData
}

func (c *Client) SetStreamMode(mode vicon.StreamMode) error {
	if c.conn == nil {
		return vicon.NotConnected
	}
	c.mode = mode
	return nil
}

func (c *Client) SetAxisMapping(x, y, z vicon.Direction) error {
	axes := vicon.AxisMapping{X: x, Y: y, Z: z}
	if err := axes.Validate(); err != nil {
		return err
	}
	c.axes = axes
	return nil
}

// GetFrame waits for the next datagram. In ServerPush mode datagrams that
// queued up since the last call are discarded so the newest frame wins.
func (c *Client) GetFrame() error {
	if c.conn == nil {
		return vicon.NotConnected
	}
	p, err := c.read(c.readTimeout)
	if err != nil {
		return err
	}
	if c.mode == vicon.ServerPush {
		for {
			next, err := c.read(drainTimeout)
			if err != nil {
				break
			}
			p = next
		}
	}
	c.updateRate(p.FrameNumber)
	c.frame = p
	return nil
}

func (c *Client) read(timeout time.Duration) (*Packet, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, errors.Wrap(err, "set read deadline")
	}
	n, _, err := c.conn.ReadFromUDP(c.buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return nil, vicon.NoFrame
		}
		return nil, errors.Wrapf(vicon.NoFrame, "read: %v", err)
	}
	p, err := ParsePacket(c.buf[:n])
	if err != nil {
		c.logger.WithError(err).Warn("dropping malformed datagram")
		return nil, errors.Wrapf(vicon.NoFrame, "parse: %v", err)
	}
	return p, nil
}

func (c *Client) updateRate(frame uint32) {
	now := c.clock.Now()
	if !c.lastArrival.IsZero() && frame > c.lastFrame {
		if elapsed := now.Sub(c.lastArrival).Seconds(); elapsed > 0 {
			rate := float64(frame-c.lastFrame) / elapsed
			if c.frameRate == 0 {
				c.frameRate = rate
			} else {
				c.frameRate += rateSmoothing * (rate - c.frameRate)
			}
		}
	}
	c.lastFrame = frame
	c.lastArrival = now
}

func (c *Client) current() (*Packet, error) {
	if c.conn == nil {
		return nil, vicon.NotConnected
	}
	if c.frame == nil {
		return nil, vicon.NoFrame
	}
	return c.frame, nil
}

func (c *Client) FrameNumber() (uint32, error) {
	p, err := c.current()
	if err != nil {
		return 0, err
	}
	return p.FrameNumber, nil
}

// FrameRate is estimated from frame numbers and arrival times. It is zero
// until two frames have been received.
func (c *Client) FrameRate() (float64, error) {
	if _, err := c.current(); err != nil {
		return 0, err
	}
	return c.frameRate, nil
}

func (c *Client) SubjectCount() (int, error) {
	p, err := c.current()
	if err != nil {
		return 0, err
	}
	return len(p.Objects), nil
}

func (c *Client) SubjectName(index int) (string, error) {
	p, err := c.current()
	if err != nil {
		return "", err
	}
	if index < 0 || index >= len(p.Objects) {
		return "", vicon.InvalidIndex
	}
	return p.Objects[index].Name, nil
}

func (c *Client) object(subject string) (*Object, error) {
	p, err := c.current()
	if err != nil {
		return nil, err
	}
	o, ok := p.object(subject)
	if !ok {
		return nil, errors.Wrap(vicon.InvalidSubjectName, subject)
	}
	return o, nil
}

func (c *Client) segment(subject, segment string) (*Object, error) {
	o, err := c.object(subject)
	if err != nil {
		return nil, err
	}
	if segment != subject {
		return nil, errors.Wrap(vicon.InvalidSegmentName, segment)
	}
	return o, nil
}

func (c *Client) SegmentCount(subject string) (int, error) {
	if _, err := c.object(subject); err != nil {
		return 0, err
	}
	return 1, nil
}

func (c *Client) SegmentName(subject string, index int) (string, error) {
	o, err := c.object(subject)
	if err != nil {
		return "", err
	}
	if index != 0 {
		return "", vicon.InvalidIndex
	}
	return o.Name, nil
}

func (c *Client) SegmentGlobalTranslation(subject, segment string) (vicon.Translation, error) {
	o, err := c.segment(subject, segment)
	if err != nil {
		return vicon.Translation{}, err
	}
	t := vicon.Translation{X: o.Translation[0], Y: o.Translation[1], Z: o.Translation[2]}
	return c.axes.ApplyTranslation(t), nil
}

func (c *Client) SegmentGlobalRotationQuaternion(subject, segment string) (vicon.Quaternion, error) {
	o, err := c.segment(subject, segment)
	if err != nil {
		return vicon.Quaternion{}, err
	}
	q := vicon.QuaternionFromEulerXYZ(o.Rotation[0], o.Rotation[1], o.Rotation[2])
	return c.axes.ApplyRotation(q), nil
}

// ObjectQuality is not carried by the object stream.
func (c *Client) ObjectQuality(subject string) (float64, error) {
	if _, err := c.object(subject); err != nil {
		return 0, err
	}
	return 0, vicon.NotImplemented
}
