// Simple XMLRPC client/server for go
package xmlrpc

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Fault is the error returned by Call when the remote side answers with a
// <fault> response.
type Fault struct {
	Code    int
	Message string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("xmlrpc fault %d: %s", f.Code, f.Message)
}

var httpClient = &http.Client{Timeout: 10 * time.Second}

// Call invokes method on the XMLRPC server at url and returns the single
// value carried by the response.
func Call(url string, method string, args ...interface{}) (interface{}, error) {
	var buf bytes.Buffer
	if err := emitRequest(&buf, method, args...); err != nil {
		return nil, errors.Wrapf(err, "encode %s request", method)
	}
	res, err := httpClient.Post(url, "text/xml", &buf)
	if err != nil {
		return nil, errors.Wrapf(err, "call %s on %s", method, url)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, errors.Errorf("call %s on %s: http status %s", method, url, res.Status)
	}
	return parseResponse(res.Body)
}

// Wire structures. An untyped <value> is a string and lands in Text.

type wireValue struct {
	Text    string      `xml:",chardata"`
	Int     *string     `xml:"int"`
	I4      *string     `xml:"i4"`
	Boolean *string     `xml:"boolean"`
	String  *string     `xml:"string"`
	Double  *string     `xml:"double"`
	Base64  *string     `xml:"base64"`
	Array   *wireArray  `xml:"array"`
	Struct  *wireStruct `xml:"struct"`
	Nil     *struct{}   `xml:"nil"`
}

type wireArray struct {
	Values []wireValue `xml:"data>value"`
}

type wireStruct struct {
	Members []wireMember `xml:"member"`
}

type wireMember struct {
	Name  string    `xml:"name"`
	Value wireValue `xml:"value"`
}

type wireParam struct {
	Value wireValue `xml:"value"`
}

type wireCall struct {
	XMLName xml.Name    `xml:"methodCall"`
	Method  string      `xml:"methodName"`
	Params  []wireParam `xml:"params>param"`
}

type wireResponse struct {
	XMLName xml.Name    `xml:"methodResponse"`
	Params  []wireParam `xml:"params>param"`
	Fault   *wireParam  `xml:"fault"`
}

func (v *wireValue) decode() (interface{}, error) {
	switch {
	case v.Int != nil:
		return parseInt(*v.Int)
	case v.I4 != nil:
		return parseInt(*v.I4)
	case v.Boolean != nil:
		switch strings.TrimSpace(*v.Boolean) {
		case "1", "true":
			return true, nil
		case "0", "false":
			return false, nil
		}
		return nil, errors.Errorf("invalid boolean %q", *v.Boolean)
	case v.String != nil:
		return *v.String, nil
	case v.Double != nil:
		f, err := strconv.ParseFloat(strings.TrimSpace(*v.Double), 64)
		if err != nil {
			return nil, errors.Wrap(err, "invalid double")
		}
		return f, nil
	case v.Base64 != nil:
		b, err := base64.StdEncoding.DecodeString(strings.TrimSpace(*v.Base64))
		if err != nil {
			return nil, errors.Wrap(err, "invalid base64")
		}
		return b, nil
	case v.Array != nil:
		result := make([]interface{}, 0, len(v.Array.Values))
		for i := range v.Array.Values {
			item, err := v.Array.Values[i].decode()
			if err != nil {
				return nil, err
			}
			result = append(result, item)
		}
		return result, nil
	case v.Struct != nil:
		result := make(map[string]interface{}, len(v.Struct.Members))
		for i := range v.Struct.Members {
			m := &v.Struct.Members[i]
			item, err := m.Value.decode()
			if err != nil {
				return nil, err
			}
			result[m.Name] = item
		}
		return result, nil
	case v.Nil != nil:
		return nil, nil
	}
	return v.Text, nil
}

func parseInt(s string) (int32, error) {
	i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, errors.Wrap(err, "invalid int")
	}
	return int32(i), nil
}

func xmlEscape(s string) string {
	var buffer bytes.Buffer
	xml.EscapeText(&buffer, []byte(s))
	return buffer.String()
}

func emitValue(buf *bytes.Buffer, value interface{}) error {
	buf.WriteString("<value>")
	defer buf.WriteString("</value>")

	if value == nil {
		buf.WriteString("<nil/>")
		return nil
	}
	if bs, ok := value.([]byte); ok {
		buf.WriteString("<base64>")
		buf.WriteString(base64.StdEncoding.EncodeToString(bs))
		buf.WriteString("</base64>")
		return nil
	}

	val := reflect.ValueOf(value)
	switch val.Kind() {
	case reflect.Bool:
		if val.Bool() {
			buf.WriteString("<boolean>1</boolean>")
		} else {
			buf.WriteString("<boolean>0</boolean>")
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		buf.WriteString("<int>")
		buf.WriteString(strconv.FormatInt(val.Int(), 10))
		buf.WriteString("</int>")
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		buf.WriteString("<int>")
		buf.WriteString(strconv.FormatUint(val.Uint(), 10))
		buf.WriteString("</int>")
	case reflect.Float32, reflect.Float64:
		buf.WriteString("<double>")
		buf.WriteString(strconv.FormatFloat(val.Float(), 'g', -1, 64))
		buf.WriteString("</double>")
	case reflect.String:
		buf.WriteString("<string>")
		buf.WriteString(xmlEscape(val.String()))
		buf.WriteString("</string>")
	case reflect.Array, reflect.Slice:
		buf.WriteString("<array><data>")
		for i := 0; i < val.Len(); i++ {
			if err := emitValue(buf, val.Index(i).Interface()); err != nil {
				return err
			}
		}
		buf.WriteString("</data></array>")
	case reflect.Map:
		if val.Type().Key().Kind() != reflect.String {
			return errors.Errorf("map key must be string, not %s", val.Type().Key())
		}
		keys := make([]string, 0, val.Len())
		for _, k := range val.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		buf.WriteString("<struct>")
		for _, k := range keys {
			buf.WriteString("<member><name>")
			buf.WriteString(xmlEscape(k))
			buf.WriteString("</name>")
			if err := emitValue(buf, val.MapIndex(reflect.ValueOf(k).Convert(val.Type().Key())).Interface()); err != nil {
				return err
			}
			buf.WriteString("</member>")
		}
		buf.WriteString("</struct>")
	case reflect.Ptr, reflect.Interface:
		if val.IsNil() {
			buf.WriteString("<nil/>")
			return nil
		}
		return emitValue(buf, val.Elem().Interface())
	default:
		return errors.Errorf("unsupported type %s", val.Type())
	}
	return nil
}

func emitParams(buf *bytes.Buffer, args ...interface{}) error {
	buf.WriteString("<params>")
	for _, arg := range args {
		buf.WriteString("<param>")
		if err := emitValue(buf, arg); err != nil {
			return err
		}
		buf.WriteString("</param>")
	}
	buf.WriteString("</params>")
	return nil
}

func emitRequest(buf *bytes.Buffer, method string, args ...interface{}) error {
	buf.WriteString(xml.Header)
	buf.WriteString("<methodCall><methodName>")
	buf.WriteString(xmlEscape(method))
	buf.WriteString("</methodName>")
	if err := emitParams(buf, args...); err != nil {
		return err
	}
	buf.WriteString("</methodCall>")
	return nil
}

func emitResponse(buf *bytes.Buffer, value interface{}) error {
	buf.WriteString(xml.Header)
	buf.WriteString("<methodResponse>")
	if err := emitParams(buf, value); err != nil {
		return err
	}
	buf.WriteString("</methodResponse>")
	return nil
}

func emitFault(buf *bytes.Buffer, code int, message string) {
	buf.WriteString(xml.Header)
	buf.WriteString("<methodResponse><fault>")
	// Both members are plain values so encoding cannot fail.
	emitValue(buf, map[string]interface{}{
		"faultCode":   code,
		"faultString": message,
	})
	buf.WriteString("</fault></methodResponse>")
}

func parseRequest(r io.Reader) (string, []interface{}, error) {
	var call wireCall
	if err := xml.NewDecoder(r).Decode(&call); err != nil {
		return "", nil, errors.Wrap(err, "malformed methodCall")
	}
	args := make([]interface{}, 0, len(call.Params))
	for i := range call.Params {
		arg, err := call.Params[i].Value.decode()
		if err != nil {
			return "", nil, errors.Wrapf(err, "param %d", i)
		}
		args = append(args, arg)
	}
	return strings.TrimSpace(call.Method), args, nil
}

func parseResponse(r io.Reader) (interface{}, error) {
	var res wireResponse
	if err := xml.NewDecoder(r).Decode(&res); err != nil {
		return nil, errors.Wrap(err, "malformed methodResponse")
	}
	if res.Fault != nil {
		value, err := res.Fault.Value.decode()
		if err != nil {
			return nil, errors.Wrap(err, "malformed fault")
		}
		fault := &Fault{Code: -1}
		if m, ok := value.(map[string]interface{}); ok {
			if code, ok := m["faultCode"].(int32); ok {
				fault.Code = int(code)
			}
			fault.Message, _ = m["faultString"].(string)
		}
		return nil, fault
	}
	if len(res.Params) != 1 {
		return nil, errors.Errorf("methodResponse carries %d params, want 1", len(res.Params))
	}
	return res.Params[0].Value.decode()
}
