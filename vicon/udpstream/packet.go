// Package udpstream implements vicon.Client on top of the Vicon Tracker UDP
// object stream.
package udpstream

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

const (
	// DefaultPort is the port Tracker sends the object stream to.
	DefaultPort = 51001

	nameSize     = 24
	itemDataSize = nameSize + 6*8
	itemSize     = 1 + 2 + itemDataSize
)

// Object is one tracked object of a packet. Translation is in millimetres,
// Rotation is XYZ Euler angles in radians.
type Object struct {
	ID          uint8
	Name        string
	Translation [3]float64
	Rotation    [3]float64
}

// Packet is one datagram of the object stream.
type Packet struct {
	FrameNumber uint32
	Objects     []Object
}

type itemHeader struct {
	ID       uint8
	DataSize uint16
}

type itemData struct {
	Name        [nameSize]byte
	Translation [3]float64
	Rotation    [3]float64
}

// ParsePacket decodes a datagram. Items whose data size is not the object
// layout are skipped.
func ParsePacket(b []byte) (*Packet, error) {
	r := bytes.NewReader(b)
	var head struct {
		FrameNumber uint32
		Items       uint8
	}
	if err := binary.Read(r, binary.LittleEndian, &head); err != nil {
		return nil, errors.Wrap(err, "packet header")
	}
	p := &Packet{FrameNumber: head.FrameNumber}
	for i := 0; i < int(head.Items); i++ {
		var ih itemHeader
		if err := binary.Read(r, binary.LittleEndian, &ih); err != nil {
			return nil, errors.Wrapf(err, "item %d header", i)
		}
		if ih.DataSize != itemDataSize {
			if _, err := io.CopyN(io.Discard, r, int64(ih.DataSize)); err != nil {
				return nil, errors.Wrapf(err, "item %d", i)
			}
			continue
		}
		var data itemData
		if err := binary.Read(r, binary.LittleEndian, &data); err != nil {
			return nil, errors.Wrapf(err, "item %d", i)
		}
		name := data.Name[:]
		if n := bytes.IndexByte(name, 0); n >= 0 {
			name = name[:n]
		}
		p.Objects = append(p.Objects, Object{
			ID:          ih.ID,
			Name:        string(name),
			Translation: data.Translation,
			Rotation:    data.Rotation,
		})
	}
	return p, nil
}

// MarshalBinary encodes p in the object stream layout. Names longer than 23
// bytes are truncated.
func (p *Packet) MarshalBinary() ([]byte, error) {
	if len(p.Objects) > 255 {
		return nil, errors.Errorf("too many objects: %d", len(p.Objects))
	}
	buf := bytes.NewBuffer(make([]byte, 0, 5+len(p.Objects)*itemSize))
	binary.Write(buf, binary.LittleEndian, p.FrameNumber)
	buf.WriteByte(uint8(len(p.Objects)))
	for _, o := range p.Objects {
		binary.Write(buf, binary.LittleEndian, itemHeader{ID: o.ID, DataSize: itemDataSize})
		var data itemData
		copy(data.Name[:nameSize-1], o.Name)
		data.Translation = o.Translation
		data.Rotation = o.Rotation
		binary.Write(buf, binary.LittleEndian, &data)
	}
	return buf.Bytes(), nil
}

func (p *Packet) object(name string) (*Object, bool) {
	for i := range p.Objects {
		if p.Objects[i].Name == name {
			return &p.Objects[i], true
		}
	}
	return nil, false
}
