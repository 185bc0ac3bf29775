package vicon

import (
	"fmt"

	"github.com/pkg/errors"
)

// Result mirrors the DataStream SDK result codes. Every value except Success
// is an error; Check turns Success into nil.
type Result int

const (
	Unknown Result = iota
	NotImplemented
	Success
	InvalidHostName
	InvalidMulticastIP
	ClientAlreadyConnected
	ClientConnectionFailed
	ServerAlreadyTransmittingMulticast
	ServerNotTransmittingMulticast
	NotConnected
	NoFrame
	InvalidIndex
	InvalidCameraName
	InvalidSubjectName
	InvalidSegmentName
	InvalidMarkerName
	InvalidDeviceName
	InvalidDeviceOutputName
	InvalidLatencySampleName
	CoLinearAxes
	LeftHandedAxes
	HapticAlreadySet
	EarlyDataRequested
	LateDataRequested
	InvalidOperation
	NotSupported
	ConfigurationFailed
	NotPresent
)

var resultNames = [...]string{
	"Unknown",
	"NotImplemented",
	"Success",
	"InvalidHostName",
	"InvalidMulticastIP",
	"ClientAlreadyConnected",
	"ClientConnectionFailed",
	"ServerAlreadyTransmittingMulticast",
	"ServerNotTransmittingMulticast",
	"NotConnected",
	"NoFrame",
	"InvalidIndex",
	"InvalidCameraName",
	"InvalidSubjectName",
	"InvalidSegmentName",
	"InvalidMarkerName",
	"InvalidDeviceName",
	"InvalidDeviceOutputName",
	"InvalidLatencySampleName",
	"CoLinearAxes",
	"LeftHandedAxes",
	"HapticAlreadySet",
	"EarlyDataRequested",
	"LateDataRequested",
	"InvalidOperation",
	"NotSupported",
	"ConfigurationFailed",
	"NotPresent",
}

func (r Result) String() string {
	if r >= 0 && int(r) < len(resultNames) {
		return resultNames[r]
	}
	return fmt.Sprintf("Result(%d)", int(r))
}

func (r Result) Error() string {
	return "vicon: " + r.String()
}

// Check returns nil for Success and r otherwise.
func Check(r Result) error {
	if r == Success {
		return nil
	}
	return r
}

// Is reports whether err, or the error it wraps, is the result r.
func Is(err error, r Result) bool {
	return err != nil && errors.Cause(err) == r
}
