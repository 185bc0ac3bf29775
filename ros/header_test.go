package ros

import (
	"bytes"
	"encoding/binary"
	"reflect"
	"testing"
)

func TestConnectionHeaderRoundTrip(t *testing.T) {
	headers := []header{
		{"callerid", "/vicon_mocap"},
		{"topic", "/mocap/posestamped"},
		{"md5sum", "d3812c3cbc69362b77dc0b19b345f8f5"},
		{"message_definition", "a=b\nc"},
	}
	var buf bytes.Buffer
	if err := writeConnectionHeader(headers, &buf); err != nil {
		t.Fatal(err)
	}
	result, err := readConnectionHeader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(result, headers) {
		t.Error(result)
	}
}

func TestConnectionHeaderLayout(t *testing.T) {
	var buf bytes.Buffer
	if err := writeConnectionHeader([]header{{"a", "bc"}}, &buf); err != nil {
		t.Fatal(err)
	}
	expected := []byte{8, 0, 0, 0, 4, 0, 0, 0, 'a', '=', 'b', 'c'}
	if !bytes.Equal(buf.Bytes(), expected) {
		t.Errorf("% x", buf.Bytes())
	}
}

func TestConnectionHeaderMalformed(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(8))
	binary.Write(&buf, binary.LittleEndian, uint32(10))
	buf.WriteString("abcd")
	if _, err := readConnectionHeader(&buf); err == nil {
		t.Error("field overrun should fail")
	}

	buf.Reset()
	binary.Write(&buf, binary.LittleEndian, uint32(7))
	binary.Write(&buf, binary.LittleEndian, uint32(3))
	buf.WriteString("abc")
	if _, err := readConnectionHeader(&buf); err == nil {
		t.Error("field without '=' should fail")
	}

	buf.Reset()
	binary.Write(&buf, binary.LittleEndian, uint32(maxHeaderSize+1))
	if _, err := readConnectionHeader(&buf); err == nil {
		t.Error("oversized header should fail")
	}
}
