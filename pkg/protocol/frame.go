package protocol

import (
	"encoding/binary"
	"errors"
	"io"
)

const (
	// FrameHeaderSize is the header length: type, flags and a big-endian
	// uint32 payload length.
	FrameHeaderSize = 6

	// MaxPayloadSize is the largest payload a frame may carry (16MB).
	MaxPayloadSize = 16 << 20
)

// FrameType says what a frame's payload holds.
type FrameType uint8

const (
	FrameHello FrameType = 0x00 // Hello: version, viewport, next sequence
	FrameBatch FrameType = 0x01 // BatchFrame: one pass worth of patches
	FrameError FrameType = 0x05 // Fault
)

func (ft FrameType) String() string {
	switch ft {
	case FrameHello:
		return "Hello"
	case FrameBatch:
		return "Batch"
	case FrameError:
		return "Error"
	default:
		return "Unknown"
	}
}

// FrameFlags qualify a frame.
type FrameFlags uint8

const (
	FlagFinal   FrameFlags = 0x01 // Last frame of the stream
	FlagInitial FrameFlags = 0x02 // Batch replays the whole tree
	FlagDropped FrameFlags = 0x04 // Earlier batches were dropped for this receiver
)

// Has reports whether any bit of flag is set.
func (ff FrameFlags) Has(flag FrameFlags) bool {
	return ff&flag != 0
}

var (
	ErrFrameTooLarge   = errors.New("protocol: frame payload too large")
	ErrUnexpectedFrame = errors.New("protocol: unexpected frame type")
)

// Frame is one message of the inspector stream.
type Frame struct {
	Type    FrameType
	Flags   FrameFlags
	Payload []byte
}

// NewFrame returns an unflagged frame.
func NewFrame(ft FrameType, payload []byte) *Frame {
	return &Frame{Type: ft, Payload: payload}
}

// Encode returns the header followed by the payload.
func (f *Frame) Encode() []byte {
	buf := make([]byte, 2, FrameHeaderSize+len(f.Payload))
	buf[0], buf[1] = byte(f.Type), byte(f.Flags)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(f.Payload)))
	return append(buf, f.Payload...)
}

// parseHeader splits a header and checks the payload length.
func parseHeader(h []byte) (*Frame, int, error) {
	n := binary.BigEndian.Uint32(h[2:FrameHeaderSize])
	if n > MaxPayloadSize {
		return nil, 0, ErrFrameTooLarge
	}
	return &Frame{Type: FrameType(h[0]), Flags: FrameFlags(h[1])}, int(n), nil
}

// DecodeFrame decodes one frame from data, which must hold the header and
// the whole payload. The payload is copied.
func DecodeFrame(data []byte) (*Frame, error) {
	if len(data) < FrameHeaderSize {
		return nil, io.ErrUnexpectedEOF
	}
	f, n, err := parseHeader(data)
	if err != nil {
		return nil, err
	}
	body := data[FrameHeaderSize:]
	if len(body) < n {
		return nil, io.ErrUnexpectedEOF
	}
	f.Payload = append([]byte(nil), body[:n]...)
	return f, nil
}

// ReadFrame reads one frame from r.
func ReadFrame(r io.Reader) (*Frame, error) {
	var h [FrameHeaderSize]byte
	if _, err := io.ReadFull(r, h[:]); err != nil {
		return nil, err
	}
	f, n, err := parseHeader(h[:])
	if err != nil {
		return nil, err
	}
	f.Payload = make([]byte, n)
	if _, err := io.ReadFull(r, f.Payload); err != nil {
		return nil, err
	}
	return f, nil
}

// WriteFrame writes f to w in one call.
func WriteFrame(w io.Writer, f *Frame) error {
	if len(f.Payload) > MaxPayloadSize {
		return ErrFrameTooLarge
	}
	_, err := w.Write(f.Encode())
	return err
}
