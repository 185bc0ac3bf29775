package xmlrpc

import (
	"bytes"
	"fmt"
	"net/http"
	"reflect"
	"sync"

	"github.com/pkg/errors"
)

// Method is a func taking XMLRPC-decodable arguments and returning
// (interface{}, error).
type Method interface{}

// Handler serves XMLRPC requests by dispatching them to registered methods.
type Handler struct {
	methods   map[string]reflect.Value
	waitGroup sync.WaitGroup
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func NewHandler(mapping map[string]Method) *Handler {
	h := &Handler{methods: make(map[string]reflect.Value, len(mapping))}
	for name, m := range mapping {
		fn := reflect.ValueOf(m)
		t := fn.Type()
		if t.Kind() != reflect.Func || t.NumOut() != 2 || !t.Out(1).Implements(errorType) {
			panic(fmt.Sprintf("xmlrpc: method %s must be func(...) (interface{}, error)", name))
		}
		h.methods[name] = fn
	}
	return h
}

// WaitForShutdown blocks until all in-flight requests are answered.
func (h *Handler) WaitForShutdown() {
	h.waitGroup.Wait()
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	h.waitGroup.Add(1)
	defer h.waitGroup.Done()

	if req.Method != http.MethodPost {
		http.Error(w, "XMLRPC requires POST", http.StatusMethodNotAllowed)
		return
	}

	var buf bytes.Buffer
	name, args, err := parseRequest(req.Body)
	if err != nil {
		emitFault(&buf, -1, err.Error())
	} else if result, err := h.invoke(name, args); err != nil {
		buf.Reset()
		emitFault(&buf, -1, err.Error())
	} else if err := emitResponse(&buf, result); err != nil {
		buf.Reset()
		emitFault(&buf, -1, err.Error())
	}
	w.Header().Set("Content-Type", "text/xml")
	w.Write(buf.Bytes())
}

func (h *Handler) invoke(name string, args []interface{}) (interface{}, error) {
	fn, ok := h.methods[name]
	if !ok {
		return nil, errors.Errorf("unknown method %s", name)
	}
	t := fn.Type()
	if len(args) != t.NumIn() {
		return nil, errors.Errorf("method %s takes %d arguments, got %d", name, t.NumIn(), len(args))
	}
	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		v, err := convertArg(arg, t.In(i))
		if err != nil {
			return nil, errors.Wrapf(err, "method %s argument %d", name, i)
		}
		in[i] = v
	}
	out := fn.Call(in)
	if e := out[1].Interface(); e != nil {
		return nil, e.(error)
	}
	return out[0].Interface(), nil
}

func convertArg(arg interface{}, want reflect.Type) (reflect.Value, error) {
	if arg == nil {
		return reflect.Zero(want), nil
	}
	v := reflect.ValueOf(arg)
	if v.Type().AssignableTo(want) {
		return v, nil
	}
	if want.Kind() != reflect.Interface && v.Type().ConvertibleTo(want) && isNumeric(v.Kind()) && isNumeric(want.Kind()) {
		return v.Convert(want), nil
	}
	return reflect.Value{}, errors.Errorf("cannot use %T as %s", arg, want)
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
