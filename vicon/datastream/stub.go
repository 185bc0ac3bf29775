//go:build !vicon

// Package datastream binds the Vicon DataStream SDK C API. This build has
// no SDK; rebuild with -tags vicon to enable it.
package datastream

import (
	modular "github.com/edwinhayes/logrus-modular"
	"github.com/pkg/errors"

	"github.com/edwinhayes/vicon_mocap/vicon"
)

// ErrUnavailable is returned by New when the SDK is not compiled in.
var ErrUnavailable = errors.New("datastream: built without the DataStream SDK, rebuild with -tags vicon")

// Available reports whether the SDK is compiled in.
const Available = false

func New(logger modular.ModuleLogger) (vicon.Client, error) {
	return nil, ErrUnavailable
}
