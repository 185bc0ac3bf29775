package ros

import (
	"reflect"
	"strconv"
	"testing"
)

func TestLoadParamFromString(t *testing.T) {
	cases := []struct {
		in       string
		expected interface{}
	}{
		{"42", int32(42)},
		{"-7", int32(-7)},
		{"0.5", 0.5},
		{"true", true},
		{`"quoted"`, "quoted"},
		{"192.168.1.2:801", "192.168.1.2:801"},
		{"Forward", "Forward"},
		{"10 20", "10 20"},
		{"", ""},
	}
	for _, c := range cases {
		if v := loadParamFromString(c.in); !reflect.DeepEqual(v, c.expected) {
			t.Errorf("loadParamFromString(%q) = %#v, want %#v", c.in, v, c.expected)
		}
	}
}

func TestRequestTopic(t *testing.T) {
	node := newTestNode()
	pub, err := newDefaultPublisher(node, "/chatter", testMessageType{}, PublisherOptions{})
	if err != nil {
		t.Fatal(err)
	}
	defer pub.listener.Close()
	node.publishers.Store("/chatter", pub)

	result, err := node.requestTopic("/listener", "/chatter", []interface{}{[]interface{}{"UDPROS"}, []interface{}{"TCPROS"}})
	if err != nil {
		t.Fatal(err)
	}
	triplet := result.([]interface{})
	if triplet[0] != int32(APIStatusSuccess) {
		t.Fatal(triplet)
	}
	_, port, _ := pub.hostAndPort()
	p, _ := strconv.Atoi(port)
	if !reflect.DeepEqual(triplet[2], []interface{}{"TCPROS", "127.0.0.1", p}) {
		t.Error(triplet[2])
	}

	result, _ = node.requestTopic("/listener", "/other", []interface{}{[]interface{}{"TCPROS"}})
	if result.([]interface{})[0] != int32(APIStatusFailure) {
		t.Error(result)
	}

	result, _ = node.getPublications("/master")
	expected := []interface{}{[]interface{}{"/chatter", "std_msgs/String"}}
	if !reflect.DeepEqual(result.([]interface{})[2], expected) {
		t.Error(result)
	}
}

func TestShutdownSlaveAPI(t *testing.T) {
	node := newTestNode()
	if !node.OK() {
		t.Fatal("node should start OK")
	}
	node.shutdown("/master", "bye")
	if node.OK() {
		t.Error("node should stop after shutdown request")
	}
	node.Spin()
}
