package ros

import (
	"github.com/edwinhayes/vicon_mocap/xmlrpc"
	"github.com/pkg/errors"
)

const (
	// APIStatusError is an API call which returned an Error
	APIStatusError = -1
	// APIStatusFailure is a failed API call
	APIStatusFailure = 0
	// APIStatusSuccess is a successful API call
	APIStatusSuccess = 1
)

// callRosAPI performs an XML-RPC call against a ROS master or slave API and
// unpacks the [code, statusMessage, value] triplet every ROS API returns.
func callRosAPI(calleeURI string, method string, args ...interface{}) (interface{}, error) {
	if calleeURI == "" {
		return nil, errors.Errorf("%s: no callee URI, is ROS_MASTER_URI set?", method)
	}
	result, err := xmlrpc.Call(calleeURI, method, args...)
	if err != nil {
		return nil, err
	}

	xs, ok := result.([]interface{})
	if !ok {
		return nil, errors.Errorf("%s: malformed ROS API result", method)
	}
	if len(xs) != 3 {
		return nil, errors.Errorf("%s: malformed ROS API result, length must be 3 but is %d", method, len(xs))
	}
	code, ok := xs[0].(int32)
	if !ok {
		return nil, errors.Errorf("%s: status code is not int", method)
	}
	message, ok := xs[1].(string)
	if !ok {
		return nil, errors.Errorf("%s: status message is not string", method)
	}
	if code != APIStatusSuccess {
		return nil, errors.Errorf("%s failed with code %d: %s", method, code, message)
	}
	return xs[2], nil
}

// buildRosAPIResult builds an XMLRPC ready array from a ROS API result triplet.
func buildRosAPIResult(code int32, message string, value interface{}) interface{} {
	return []interface{}{code, message, value}
}
