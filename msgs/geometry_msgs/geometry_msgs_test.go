package geometry_msgs

import (
	"bytes"
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"github.com/edwinhayes/vicon_mocap/msgs/std_msgs"
	"github.com/edwinhayes/vicon_mocap/ros"
)

func TestMD5Sums(t *testing.T) {
	deps := map[string]string{
		"std_msgs/Header":          std_msgs.MsgHeader.MD5Sum(),
		"geometry_msgs/Point":      MsgPoint.MD5Sum(),
		"geometry_msgs/Quaternion": MsgQuaternion.MD5Sum(),
		"geometry_msgs/Pose":       MsgPose.MD5Sum(),
	}
	for _, c := range []struct {
		def string
		typ ros.MessageType
	}{
		{PointDefinition, MsgPoint},
		{QuaternionDefinition, MsgQuaternion},
		{PoseDefinition, MsgPose},
		{PoseStampedDefinition, MsgPoseStamped},
	} {
		sum, err := ros.ComputeMD5("geometry_msgs", c.def, deps)
		if err != nil {
			t.Fatal(err)
		}
		if sum != c.typ.MD5Sum() {
			t.Errorf("%s: computed %s, declared %s", c.typ.Name(), sum, c.typ.MD5Sum())
		}
	}
}

func TestPoseStampedDefinitionCarriesDependencies(t *testing.T) {
	text := MsgPoseStamped.Text()
	for _, dep := range []string{"MSG: std_msgs/Header", "MSG: geometry_msgs/Pose", "MSG: geometry_msgs/Point", "MSG: geometry_msgs/Quaternion"} {
		if !strings.Contains(text, dep) {
			t.Error("missing", dep)
		}
	}
}

func TestPoseStampedSerialize(t *testing.T) {
	msg := PoseStamped{
		Header: std_msgs.Header{Seq: 3, FrameId: "rb"},
		Pose: Pose{
			Position:    Point{X: 1.5, Y: -2, Z: 0.25},
			Orientation: Quaternion{X: 0, Y: 0, Z: 0, W: 1},
		},
	}
	var buf bytes.Buffer
	if err := msg.Serialize(&buf); err != nil {
		t.Fatal(err)
	}
	// header: 4 seq + 8 stamp + 4 len + 2 frame_id, pose: 7 float64
	if buf.Len() != 18+7*8 {
		t.Fatal(buf.Len())
	}
	x := math.Float64frombits(binary.LittleEndian.Uint64(buf.Bytes()[18:]))
	if x != 1.5 {
		t.Error(x)
	}

	out := MsgPoseStamped.NewMessage().(*PoseStamped)
	if err := out.Deserialize(bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatal(err)
	}
	if *out != msg {
		t.Error(*out)
	}
}
