package ros

import (
	"strings"

	"github.com/buger/jsonparser"
)

// loadParamFromString interprets a `_name:=value` command line value the
// way rosparam would: JSON scalars become typed values, anything else is
// kept as the raw string.
func loadParamFromString(s string) interface{} {
	data := []byte(strings.TrimSpace(s))
	value, dataType, end, err := jsonparser.Get(data)
	if err != nil || end != len(data) {
		return s
	}
	switch dataType {
	case jsonparser.Number:
		if i, err := jsonparser.ParseInt(value); err == nil && i >= -1<<31 && i < 1<<31 {
			return int32(i)
		}
		if f, err := jsonparser.ParseFloat(value); err == nil {
			return f
		}
	case jsonparser.Boolean:
		if b, err := jsonparser.ParseBoolean(value); err == nil {
			return b
		}
	case jsonparser.String:
		if str, err := jsonparser.ParseString(value); err == nil {
			return str
		}
	}
	return s
}
