//go:build vicon

// Package datastream binds the Vicon DataStream SDK C API.
//
// Build with -tags vicon and point CGO_CFLAGS and CGO_LDFLAGS at the SDK,
// e.g.
//
//	CGO_CFLAGS=-I$SDK CGO_LDFLAGS=-L$SDK go build -tags vicon ./...
package datastream

/*
#cgo LDFLAGS: -lViconDataStreamSDK_C
#include <stdlib.h>
#include "CClient.h"
*/
import "C"

import (
	"unsafe"

	modular "github.com/edwinhayes/logrus-modular"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/edwinhayes/vicon_mocap/vicon"
)

const nameBufferSize = 128

// Client is a vicon.Client backed by the SDK.
type Client struct {
	client unsafe.Pointer
	logger modular.Logger
}

var _ vicon.Client = (*Client)(nil)

// Available reports whether the SDK is compiled in.
const Available = true

// New creates an SDK client logging through the LogModule child of logger.
// Close releases it.
func New(logger modular.ModuleLogger) (vicon.Client, error) {
	c := C.Client_Create()
	if c == nil {
		return nil, errors.New("Client_Create failed")
	}
	if logger == nil {
		logger = modular.NewRootLogger(logrus.New())
	}
	return &Client{client: unsafe.Pointer(c), logger: logger.GetOrCreateChild(LogModule, logger.GetLevel())}, nil
}

func result(r C.CEnum) error {
	return vicon.Check(vicon.Result(r))
}

func cbool(b C.CBool) bool {
	return b != 0
}

func (c *Client) Close() error {
	if c.client != nil {
		C.Client_Destroy(c.client)
		c.client = nil
	}
	return nil
}

func (c *Client) Version() vicon.Version {
	var out C.COutput_GetVersion
	C.Client_GetVersion(c.client, &out)
	return vicon.Version{Major: uint32(out.Major), Minor: uint32(out.Minor), Point: uint32(out.Point)}
}

func (c *Client) Connect(host string) error {
	h := C.CString(host)
	defer C.free(unsafe.Pointer(h))
	c.logger.WithField("host", host).Debug("connecting to DataStream server")
	return errors.Wrap(result(C.Client_Connect(c.client, h)), host)
}

func (c *Client) IsConnected() bool {
	return cbool(C.Client_IsConnected(c.client))
}

func (c *Client) Disconnect() error {
	return result(C.Client_Disconnect(c.client))
}

func (c *Client) EnableSegmentData() error {
	return result(C.Client_EnableSegmentData(c.client))
}

func (c *Client) IsSegmentDataEnabled() bool {
	return cbool(C.Client_IsSegmentDataEnabled(c.client))
}

func (c *Client) SetStreamMode(mode vicon.StreamMode) error {
	return result(C.Client_SetStreamMode(c.client, C.CEnum(mode)))
}

func (c *Client) SetAxisMapping(x, y, z vicon.Direction) error {
	return result(C.Client_SetAxisMapping(c.client, C.CEnum(x), C.CEnum(y), C.CEnum(z)))
}

func (c *Client) GetFrame() error {
	return result(C.Client_GetFrame(c.client))
}

func (c *Client) FrameNumber() (uint32, error) {
	var out C.COutput_GetFrameNumber
	C.Client_GetFrameNumber(c.client, &out)
	return uint32(out.FrameNumber), result(out.Result)
}

func (c *Client) FrameRate() (float64, error) {
	var out C.COutput_GetFrameRate
	C.Client_GetFrameRate(c.client, &out)
	return float64(out.FrameRateHz), result(out.Result)
}

func (c *Client) SubjectCount() (int, error) {
	var out C.COutput_GetSubjectCount
	C.Client_GetSubjectCount(c.client, &out)
	return int(out.SubjectCount), result(out.Result)
}

func (c *Client) SubjectName(index int) (string, error) {
	buf := (*C.char)(C.malloc(nameBufferSize))
	defer C.free(unsafe.Pointer(buf))
	r := C.Client_GetSubjectName(c.client, C.uint(index), nameBufferSize, buf)
	if err := result(r); err != nil {
		return "", err
	}
	return C.GoString(buf), nil
}

func (c *Client) SegmentCount(subject string) (int, error) {
	s := C.CString(subject)
	defer C.free(unsafe.Pointer(s))
	var out C.COutput_GetSegmentCount
	C.Client_GetSegmentCount(c.client, s, &out)
	return int(out.SegmentCount), result(out.Result)
}

func (c *Client) SegmentName(subject string, index int) (string, error) {
	s := C.CString(subject)
	defer C.free(unsafe.Pointer(s))
	buf := (*C.char)(C.malloc(nameBufferSize))
	defer C.free(unsafe.Pointer(buf))
	r := C.Client_GetSegmentName(c.client, s, C.uint(index), nameBufferSize, buf)
	if err := result(r); err != nil {
		return "", err
	}
	return C.GoString(buf), nil
}

func (c *Client) SegmentGlobalTranslation(subject, segment string) (vicon.Translation, error) {
	s, g := C.CString(subject), C.CString(segment)
	defer C.free(unsafe.Pointer(s))
	defer C.free(unsafe.Pointer(g))
	var out C.COutput_GetSegmentGlobalTranslation
	C.Client_GetSegmentGlobalTranslation(c.client, s, g, &out)
	return vicon.Translation{
		X:        float64(out.Translation[0]),
		Y:        float64(out.Translation[1]),
		Z:        float64(out.Translation[2]),
		Occluded: cbool(out.Occluded),
	}, result(out.Result)
}

func (c *Client) SegmentGlobalRotationQuaternion(subject, segment string) (vicon.Quaternion, error) {
	s, g := C.CString(subject), C.CString(segment)
	defer C.free(unsafe.Pointer(s))
	defer C.free(unsafe.Pointer(g))
	var out C.COutput_GetSegmentGlobalRotationQuaternion
	C.Client_GetSegmentGlobalRotationQuaternion(c.client, s, g, &out)
	return vicon.Quaternion{
		X:        float64(out.Rotation[0]),
		Y:        float64(out.Rotation[1]),
		Z:        float64(out.Rotation[2]),
		W:        float64(out.Rotation[3]),
		Occluded: cbool(out.Occluded),
	}, result(out.Result)
}

func (c *Client) ObjectQuality(subject string) (float64, error) {
	s := C.CString(subject)
	defer C.free(unsafe.Pointer(s))
	var out C.COutput_GetObjectQuality
	C.Client_GetObjectQuality(c.client, s, &out)
	return float64(out.Quality), result(out.Result)
}
