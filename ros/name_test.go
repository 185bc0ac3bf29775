package ros

import (
	"reflect"
	"testing"
)

func TestNameValidation(t *testing.T) {
	positives := [...]string{
		"",
		"/",
		"~",
		"foo",
		"foo/",
		"foo/bar",
		"foo/bar/",
		"foo_0/bar1_/",
		"/foo",
		"/foo/bar/",
		"~foo",
		"~foo/bar",
	}
	for _, p := range positives {
		if !isValidName(p) {
			t.Error(p)
		}
	}

	negatives := [...]string{
		"foo//bar",
		"^foo//bar",
		"//foo",
		"0foo",
		"_0foo",
		"foo/0bar",
		"foo/_bar",
		"foo/~bar",
		"foo bar",
	}
	for _, n := range negatives {
		if isValidName(n) {
			t.Error(n)
		}
	}
}

func TestCanonicalizeName(t *testing.T) {
	cases := map[string]string{
		"/":                "/",
		"/foo//bar/":       "/foo/bar",
		"foo//bar///baz/":  "foo/bar/baz",
		"~foo//bar///baz/": "~foo/bar/baz",
		"":                 "",
	}
	for in, expected := range cases {
		if out := canonicalizeName(in); out != expected {
			t.Errorf("canonicalizeName(%q) = %q", in, out)
		}
	}
}

func TestGetNamespace(t *testing.T) {
	cases := map[string]string{
		"":         "/",
		"/":        "/",
		"/foo":     "/",
		"/foo/bar": "/foo/",
		"foo":      "/",
	}
	for in, expected := range cases {
		if out := getNamespace(in); out != expected {
			t.Errorf("getNamespace(%q) = %q", in, out)
		}
	}
}

func TestQualifyNodeName(t *testing.T) {
	ns, name, err := qualifyNodeName("/vicon_mocap")
	if err != nil || ns != "/" || name != "vicon_mocap" {
		t.Error(ns, name, err)
	}
	ns, name, err = qualifyNodeName("/lab/rig/vicon_mocap")
	if err != nil || ns != "/lab/rig/" || name != "vicon_mocap" {
		t.Error(ns, name, err)
	}
	ns, name, err = qualifyNodeName("talker")
	if err != nil || ns != "/" || name != "talker" {
		t.Error(ns, name, err)
	}
	for _, bad := range []string{"", "~private", "0node"} {
		if _, _, err := qualifyNodeName(bad); err == nil {
			t.Errorf("qualifyNodeName(%q) should fail", bad)
		}
	}
}

func TestResolveName(t *testing.T) {
	cases := []struct {
		name, expected string
	}{
		{"", "/lab"},
		{"/chatter", "/chatter"},
		{"chatter", "/lab/chatter"},
		{"mocap/posestamped", "/lab/mocap/posestamped"},
		{"~host", "/lab/vicon_mocap/host"},
		{"~", "/lab/vicon_mocap"},
	}
	for _, c := range cases {
		if out := resolveName(c.name, "/lab/", "/lab/vicon_mocap", nil); out != c.expected {
			t.Errorf("resolveName(%q) = %q, want %q", c.name, out, c.expected)
		}
	}
}

func TestNameResolverRemap(t *testing.T) {
	r := newNameResolver("/", "/vicon_mocap", NameMap{
		"mocap/posestamped": "/drone/pose",
		"~quality":          "quality_out",
	})
	if out := r.remap("mocap/posestamped"); out != "/drone/pose" {
		t.Error(out)
	}
	if out := r.remap("/mocap/posestamped"); out != "/drone/pose" {
		t.Error(out)
	}
	if out := r.remap("~quality"); out != "/quality_out" {
		t.Error(out)
	}
	if out := r.remap("mocap/qualityscore"); out != "/mocap/qualityscore" {
		t.Error(out)
	}
	if out := r.resolve("~host"); out != "/vicon_mocap/host" {
		t.Error(out)
	}
}

func TestProcessArguments(t *testing.T) {
	args := []string{
		"vicon_mocap",
		"-config", "rig.json",
		"chatter:=/talk",
		"_host:=10.0.0.2:801",
		"__name:=mocap",
		"__master:=http://master:11311",
	}
	mapping, params, specials, rest := processArguments(args)
	if !reflect.DeepEqual(mapping, NameMap{"chatter": "/talk"}) {
		t.Error(mapping)
	}
	if !reflect.DeepEqual(params, NameMap{"~host": "10.0.0.2:801"}) {
		t.Error(params)
	}
	if specials["__name"] != "mocap" || specials["__master"] != "http://master:11311" {
		t.Error(specials)
	}
	if !reflect.DeepEqual(rest, []string{"vicon_mocap", "-config", "rig.json"}) {
		t.Error(rest)
	}
}
