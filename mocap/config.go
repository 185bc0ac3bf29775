package mocap

import (
	"math"
	"os"
	"strings"
	"time"

	"github.com/buger/jsonparser"
	"github.com/pkg/errors"

	"github.com/edwinhayes/vicon_mocap/ros"
	"github.com/edwinhayes/vicon_mocap/vicon"
)

// Sources a Config can select.
const (
	SourceDataStream = "datastream"
	SourceUDPStream  = "udpstream"
)

// Config is the bridge configuration. Fields are set in layers: defaults,
// then a JSON file, then private ROS params, then command line flags.
type Config struct {
	Source string
	Host   string

	// SubjectName and SegmentName pick the tracked body by name; when empty
	// the SubjectIndex-th subject and SegmentIndex-th segment are used.
	SubjectName  string
	SubjectIndex int
	SegmentName  string
	SegmentIndex int
	// FrameID overrides the segment name as the pose frame id.
	FrameID string

	PoseTopic    string
	QualityTopic string
	QueueSize    int

	StreamMode      vicon.StreamMode
	Axes            vicon.AxisMapping
	ReadTimeout     time.Duration
	PublishOccluded bool

	// LogLevel is a root level optionally followed by per-module levels,
	// e.g. "info,udpstream=debug".
	LogLevel string
}

func DefaultConfig() Config {
	return Config{
		Source:          SourceDataStream,
		Host:            "192.168.1.2:801",
		PoseTopic:       "mocap/posestamped",
		QualityTopic:    "mocap/qualityscore",
		QueueSize:       1000,
		StreamMode:      vicon.ServerPush,
		Axes:            vicon.DefaultAxisMapping,
		ReadTimeout:     time.Second,
		PublishOccluded: true,
		LogLevel:        "info",
	}
}

// ConfigKeys are the keys accepted in config files and as private params.
var ConfigKeys = []string{
	"source",
	"host",
	"subject",
	"subject_index",
	"segment",
	"segment_index",
	"frame_id",
	"pose_topic",
	"quality_topic",
	"queue_size",
	"stream_mode",
	"x_axis",
	"y_axis",
	"z_axis",
	"read_timeout",
	"publish_occluded",
	"log_level",
}

// Set assigns one configuration key. value is a string, bool, or a number
// of any Go numeric type. read_timeout takes seconds or a duration string.
func (c *Config) Set(key string, value interface{}) error {
	var err error
	switch key {
	case "source":
		c.Source, err = asString(value)
	case "host":
		c.Host, err = asString(value)
	case "subject":
		c.SubjectName, err = asString(value)
	case "subject_index":
		c.SubjectIndex, err = asInt(value)
	case "segment":
		c.SegmentName, err = asString(value)
	case "segment_index":
		c.SegmentIndex, err = asInt(value)
	case "frame_id":
		c.FrameID, err = asString(value)
	case "pose_topic":
		c.PoseTopic, err = asString(value)
	case "quality_topic":
		c.QualityTopic, err = asString(value)
	case "queue_size":
		c.QueueSize, err = asInt(value)
	case "stream_mode":
		var s string
		if s, err = asString(value); err == nil {
			c.StreamMode, err = vicon.ParseStreamMode(s)
		}
	case "x_axis":
		err = setDirection(&c.Axes.X, value)
	case "y_axis":
		err = setDirection(&c.Axes.Y, value)
	case "z_axis":
		err = setDirection(&c.Axes.Z, value)
	case "read_timeout":
		c.ReadTimeout, err = asDuration(value)
	case "publish_occluded":
		c.PublishOccluded, err = asBool(value)
	case "log_level":
		c.LogLevel, err = asString(value)
	default:
		return errors.Errorf("unknown config key %q", key)
	}
	return errors.Wrapf(err, "config key %q", key)
}

func setDirection(d *vicon.Direction, value interface{}) error {
	s, err := asString(value)
	if err != nil {
		return err
	}
	*d, err = vicon.ParseDirection(s)
	return err
}

func asString(value interface{}) (string, error) {
	if s, ok := value.(string); ok {
		return s, nil
	}
	return "", errors.Errorf("expected string, got %T", value)
}

func asBool(value interface{}) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(v) {
		case "true", "1", "yes":
			return true, nil
		case "false", "0", "no":
			return false, nil
		}
	}
	return false, errors.Errorf("expected bool, got %#v", value)
}

func asFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

func asInt(value interface{}) (int, error) {
	f, ok := asFloat(value)
	if !ok || f != math.Trunc(f) {
		return 0, errors.Errorf("expected integer, got %#v", value)
	}
	return int(f), nil
}

func asDuration(value interface{}) (time.Duration, error) {
	if s, ok := value.(string); ok {
		return time.ParseDuration(s)
	}
	f, ok := asFloat(value)
	if !ok {
		return 0, errors.Errorf("expected duration, got %#v", value)
	}
	return time.Duration(f * float64(time.Second)), nil
}

// ParseConfig applies the keys of a JSON object to c.
func ParseConfig(data []byte, c *Config) error {
	return jsonparser.ObjectEach(data, func(key, value []byte, typ jsonparser.ValueType, offset int) error {
		var v interface{}
		var err error
		switch typ {
		case jsonparser.String:
			v, err = jsonparser.ParseString(value)
		case jsonparser.Number:
			v, err = jsonparser.ParseFloat(value)
		case jsonparser.Boolean:
			v, err = jsonparser.ParseBoolean(value)
		default:
			err = errors.Errorf("unsupported %s value", typ)
		}
		if err != nil {
			return errors.Wrapf(err, "config key %q", string(key))
		}
		return c.Set(string(key), v)
	})
}

// LoadFile applies a JSON config file to c.
func LoadFile(path string, c *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read config")
	}
	return errors.Wrap(ParseConfig(data, c), path)
}

// ParamSource is where private params are read from; ros.Node is one.
type ParamSource interface {
	HasParam(name string) (bool, error)
	GetParam(name string) (interface{}, error)
}

// ApplyParams applies every ConfigKeys entry set as a private param.
func ApplyParams(src ParamSource, c *Config) error {
	for _, key := range ConfigKeys {
		name := "~" + key
		ok, err := src.HasParam(name)
		if err != nil {
			return errors.Wrapf(err, "has param %s", name)
		}
		if !ok {
			continue
		}
		v, err := src.GetParam(name)
		if err != nil {
			return errors.Wrapf(err, "get param %s", name)
		}
		if err := c.Set(key, v); err != nil {
			return err
		}
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (ros.LogLevels, error) {
	return ros.ParseLogLevels(c.LogLevel)
}

func (c *Config) Validate() error {
	switch c.Source {
	case SourceDataStream, SourceUDPStream:
	default:
		return errors.Errorf("unknown source %q", c.Source)
	}
	if c.Host == "" {
		return errors.New("host is empty")
	}
	if c.SubjectIndex < 0 || c.SegmentIndex < 0 {
		return errors.New("subject and segment indices must not be negative")
	}
	if c.PoseTopic == "" || c.QualityTopic == "" {
		return errors.New("topic names must not be empty")
	}
	if c.QueueSize <= 0 {
		return errors.Errorf("queue size %d must be positive", c.QueueSize)
	}
	if c.ReadTimeout <= 0 {
		return errors.Errorf("read timeout %s must be positive", c.ReadTimeout)
	}
	if err := c.Axes.Validate(); err != nil {
		return errors.Wrapf(err, "axis mapping %s %s %s", c.Axes.X, c.Axes.Y, c.Axes.Z)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}
