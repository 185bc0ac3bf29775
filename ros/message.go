package ros

import (
	"bytes"
)

// MessageType describes a ROS message: its full definition text as sent in
// the TCPROS message_definition header, its MD5 sum and its "pkg/Name".
type MessageType interface {
	Text() string
	MD5Sum() string
	Name() string
	NewMessage() Message
}

type Message interface {
	Type() MessageType
	Serialize(buf *bytes.Buffer) error
	Deserialize(buf *bytes.Reader) error
}
