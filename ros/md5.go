package ros

import (
	"crypto/md5"
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
)

var builtinTypes = map[string]bool{
	"bool": true, "byte": true, "char": true,
	"int8": true, "uint8": true, "int16": true, "uint16": true,
	"int32": true, "uint32": true, "int64": true, "uint64": true,
	"float32": true, "float64": true,
	"string": true, "time": true, "duration": true,
}

// MD5Text reduces a .msg definition to the text ROS hashes: comments and
// blank lines removed, constants first, and every non-builtin field type
// replaced by that type's MD5 sum taken from deps (keyed "pkg/Name").
func MD5Text(pkg, definition string, deps map[string]string) (string, error) {
	var constants, fields []string
	for _, line := range strings.Split(definition, "\n") {
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 2 {
			return "", errors.Errorf("malformed field %q", line)
		}
		typ := parts[0]
		rest := strings.Join(parts[1:], " ")
		if eq := strings.Index(rest, "="); eq >= 0 {
			name := strings.TrimSpace(rest[:eq])
			value := strings.TrimSpace(rest[eq+1:])
			constants = append(constants, typ+" "+name+"="+value)
			continue
		}
		base := typ
		if i := strings.Index(base, "["); i >= 0 {
			base = base[:i]
		}
		if builtinTypes[base] {
			fields = append(fields, typ+" "+rest)
			continue
		}
		full := base
		if base == "Header" {
			full = "std_msgs/Header"
		} else if !strings.Contains(base, "/") {
			full = pkg + "/" + base
		}
		sum, ok := deps[full]
		if !ok {
			return "", errors.Errorf("no MD5 sum for dependency %s", full)
		}
		fields = append(fields, sum+" "+rest)
	}
	return strings.Join(append(constants, fields...), "\n"), nil
}

// ComputeMD5 returns the ROS MD5 sum of a message definition.
func ComputeMD5(pkg, definition string, deps map[string]string) (string, error) {
	text, err := MD5Text(pkg, definition, deps)
	if err != nil {
		return "", err
	}
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:]), nil
}
