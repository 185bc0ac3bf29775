// Package vicon_mocap_package is automatically generated from the message definition "vicon_mocap_package/quality_msg.msg"
package vicon_mocap_package

import (
	"bytes"

	"github.com/edwinhayes/vicon_mocap/msgs/std_msgs"
	"github.com/edwinhayes/vicon_mocap/ros"
)

type _MsgQualityMsg struct {
	text   string
	name   string
	md5sum string
}

func (t *_MsgQualityMsg) Text() string {
	return t.text
}

func (t *_MsgQualityMsg) Name() string {
	return t.name
}

func (t *_MsgQualityMsg) MD5Sum() string {
	return t.md5sum
}

func (t *_MsgQualityMsg) NewMessage() ros.Message {
	m := new(QualityMsg)
	m.Header = std_msgs.Header{}
	m.QualityScore = std_msgs.Float64{}
	return m
}

// QualityMsgDefinition is the body of vicon_mocap_package/quality_msg.msg.
const QualityMsgDefinition = `# RMS deviation of the observed markers from the subject's rigid-body model
Header header
std_msgs/Float64 quality_score
`

var (
	MsgQualityMsg = &_MsgQualityMsg{
		QualityMsgDefinition + `
================================================================================
MSG: std_msgs/Header
` + std_msgs.HeaderDefinition + `
================================================================================
MSG: std_msgs/Float64
` + std_msgs.Float64Definition,
		"vicon_mocap_package/quality_msg",
		"a3bce2fbe72ae64aac86a102806628db",
	}
)

type QualityMsg struct {
	Header       std_msgs.Header  `rosmsg:"header:Header"`
	QualityScore std_msgs.Float64 `rosmsg:"quality_score:Float64"`
}

func (m *QualityMsg) Type() ros.MessageType {
	return MsgQualityMsg
}

func (m *QualityMsg) Serialize(buf *bytes.Buffer) error {
	var err error = nil
	if err = m.Header.Serialize(buf); err != nil {
		return err
	}
	if err = m.QualityScore.Serialize(buf); err != nil {
		return err
	}
	return err
}

func (m *QualityMsg) Deserialize(buf *bytes.Reader) error {
	var err error = nil
	if err = m.Header.Deserialize(buf); err != nil {
		return err
	}
	if err = m.QualityScore.Deserialize(buf); err != nil {
		return err
	}
	return err
}
