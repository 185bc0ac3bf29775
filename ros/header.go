// Connection header
package ros

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

type header struct {
	key   string
	value string
}

// maxHeaderSize bounds connection headers so a broken peer cannot make us
// allocate arbitrary memory.
const maxHeaderSize = 1 << 20

func readConnectionHeader(r io.Reader) ([]header, error) {
	var headerSize uint32
	if err := binary.Read(r, binary.LittleEndian, &headerSize); err != nil {
		return nil, errors.Wrap(err, "read header size")
	}
	if headerSize > maxHeaderSize {
		return nil, errors.Errorf("header size %d exceeds %d", headerSize, maxHeaderSize)
	}
	buf := make([]byte, int(headerSize))
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, errors.Wrap(err, "read header")
	}

	var headers []header
	for len(buf) > 0 {
		if len(buf) < 4 {
			return nil, errors.New("header length overrun")
		}
		size := binary.LittleEndian.Uint32(buf)
		buf = buf[4:]
		if uint32(len(buf)) < size {
			return nil, errors.New("header field length overrun")
		}
		line := buf[:size]
		buf = buf[size:]
		sep := bytes.IndexByte(line, '=')
		if sep < 0 {
			return nil, errors.Errorf("header field %q has no '='", line)
		}
		headers = append(headers, header{string(line[:sep]), string(line[sep+1:])})
	}
	return headers, nil
}

func writeConnectionHeader(headers []header, w io.Writer) error {
	var body bytes.Buffer
	for _, h := range headers {
		binary.Write(&body, binary.LittleEndian, uint32(len(h.key)+1+len(h.value)))
		body.WriteString(h.key)
		body.WriteByte('=')
		body.WriteString(h.value)
	}
	var frame bytes.Buffer
	binary.Write(&frame, binary.LittleEndian, uint32(body.Len()))
	frame.Write(body.Bytes())
	_, err := w.Write(frame.Bytes())
	return errors.Wrap(err, "write header")
}

func headerMap(headers []header) map[string]string {
	m := make(map[string]string, len(headers))
	for _, h := range headers {
		m[h.key] = h.value
	}
	return m
}
