package xmlrpc

import (
	"bytes"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func emit(t *testing.T, v interface{}) string {
	var buffer bytes.Buffer
	if e := emitValue(&buffer, v); e != nil {
		t.Fatal(e)
	}
	return buffer.String()
}

func TestEmitScalars(t *testing.T) {
	cases := []struct {
		value    interface{}
		expected string
	}{
		{nil, "<value><nil/></value>"},
		{true, "<value><boolean>1</boolean></value>"},
		{false, "<value><boolean>0</boolean></value>"},
		{42, "<value><int>42</int></value>"},
		{uint32(7), "<value><int>7</int></value>"},
		{3.14, "<value><double>3.14</double></value>"},
		{"a<b", "<value><string>a&lt;b</string></value>"},
		{[]byte("ABCDEFG"), "<value><base64>QUJDREVGRw==</base64></value>"},
	}
	for _, c := range cases {
		if s := emit(t, c.value); s != c.expected {
			t.Errorf("emit %#v: %s", c.value, s)
		}
	}
}

func TestEmitArray(t *testing.T) {
	s := emit(t, []interface{}{12, "Egypt", false, -31})
	expected := "<value><array><data>"
	expected += "<value><int>12</int></value>"
	expected += "<value><string>Egypt</string></value>"
	expected += "<value><boolean>0</boolean></value>"
	expected += "<value><int>-31</int></value>"
	expected += "</data></array></value>"
	if s != expected {
		t.Error(s)
	}
}

func TestEmitStruct(t *testing.T) {
	s := emit(t, map[string]interface{}{"lowerBound": 18, "upperBound": 139})
	expected := "<value><struct>"
	expected += "<member><name>lowerBound</name><value><int>18</int></value></member>"
	expected += "<member><name>upperBound</name><value><int>139</int></value></member>"
	expected += "</struct></value>"
	if s != expected {
		t.Error(s)
	}
}

func TestEmitUnsupported(t *testing.T) {
	var buffer bytes.Buffer
	if e := emitValue(&buffer, map[int]int{1: 2}); e == nil {
		t.Error("map with int keys should not encode")
	}
}

func TestParseRequest(t *testing.T) {
	body := `<?xml version="1.0"?>
<methodCall>
  <methodName>registerPublisher</methodName>
  <params>
    <param><value><string>/vicon_mocap</string></value></param>
    <param><value>/mocap/posestamped</value></param>
    <param><value><i4>-3</i4></value></param>
    <param><value><double>0.5</double></value></param>
    <param><value><boolean>1</boolean></value></param>
    <param><value><array><data><value><int>1</int></value><value>two</value></data></array></value></param>
    <param><value><struct><member><name>k</name><value><string>v</string></value></member></struct></value></param>
  </params>
</methodCall>`
	name, args, err := parseRequest(strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if name != "registerPublisher" {
		t.Error(name)
	}
	expected := []interface{}{
		"/vicon_mocap",
		"/mocap/posestamped",
		int32(-3),
		0.5,
		true,
		[]interface{}{int32(1), "two"},
		map[string]interface{}{"k": "v"},
	}
	if !reflect.DeepEqual(args, expected) {
		t.Errorf("%#v", args)
	}
}

func TestParseResponse(t *testing.T) {
	var buffer bytes.Buffer
	if err := emitResponse(&buffer, []interface{}{1, "Success", []interface{}{}}); err != nil {
		t.Fatal(err)
	}
	value, err := parseResponse(&buffer)
	if err != nil {
		t.Fatal(err)
	}
	expected := []interface{}{int32(1), "Success", []interface{}{}}
	if !reflect.DeepEqual(value, expected) {
		t.Errorf("%#v", value)
	}
}

func TestParseFault(t *testing.T) {
	var buffer bytes.Buffer
	emitFault(&buffer, 4, "Too many parameters.")
	_, err := parseResponse(&buffer)
	fault, ok := errors.Cause(err).(*Fault)
	if !ok {
		t.Fatalf("expected fault, got %v", err)
	}
	if fault.Code != 4 || fault.Message != "Too many parameters." {
		t.Error(fault)
	}
}

func TestServer(t *testing.T) {
	handler := NewHandler(map[string]Method{
		"addTwoInts": func(a int32, b int32) (interface{}, error) {
			return a + b, nil
		},
		"describe": func(callerID string, values []interface{}) (interface{}, error) {
			return []interface{}{callerID, len(values)}, nil
		},
		"fail": func() (interface{}, error) {
			return nil, errors.New("broken")
		},
	})
	server := httptest.NewServer(handler)
	defer server.Close()

	result, err := Call(server.URL, "addTwoInts", 40, 2)
	if err != nil {
		t.Fatal(err)
	}
	if result != int32(42) {
		t.Errorf("%#v", result)
	}

	result, err = Call(server.URL, "describe", "/caller", []interface{}{1, "x", true})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(result, []interface{}{"/caller", int32(3)}) {
		t.Errorf("%#v", result)
	}

	if _, err = Call(server.URL, "fail"); err == nil || !strings.Contains(err.Error(), "broken") {
		t.Errorf("expected fault, got %v", err)
	}
	if _, err = Call(server.URL, "missing"); err == nil {
		t.Error("unknown method should fault")
	}
	if _, err = Call(server.URL, "addTwoInts", "x", 2); err == nil {
		t.Error("mistyped argument should fault")
	}
	handler.WaitForShutdown()
}
