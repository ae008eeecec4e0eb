package protocol

import "fmt"

// ProtocolVersion represents a protocol version as major.minor.
type ProtocolVersion struct {
	Major uint8
	Minor uint8
}

// CurrentVersion is the current protocol version.
var CurrentVersion = ProtocolVersion{Major: 1, Minor: 0}

// String returns the version as "major.minor".
func (v ProtocolVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Compatible reports whether a receiver speaking v can read frames from o.
func (v ProtocolVersion) Compatible(o ProtocolVersion) bool {
	return v.Major == o.Major
}

// Hello opens a stream.
type Hello struct {
	Version ProtocolVersion
	Width   float64 // Viewport width
	Height  float64 // Viewport height
	NextSeq uint64  // Sequence number of the next batch
	Nodes   uint32  // Live nodes at the time of the hello
}

// EncodeHello encodes a Hello to bytes.
func EncodeHello(h *Hello) []byte {
	e := NewEncoder()
	e.WriteByte(h.Version.Major)
	e.WriteByte(h.Version.Minor)
	e.WriteFloat64(h.Width)
	e.WriteFloat64(h.Height)
	e.WriteUvarint(h.NextSeq)
	e.WriteUint32(h.Nodes)
	return e.Bytes()
}

// DecodeHello decodes a Hello from bytes.
func DecodeHello(data []byte) (*Hello, error) {
	d := NewDecoder(data)
	var h Hello
	var err error
	if h.Version.Major, err = d.ReadByte(); err != nil {
		return nil, err
	}
	if h.Version.Minor, err = d.ReadByte(); err != nil {
		return nil, err
	}
	if h.Width, err = d.ReadFloat64(); err != nil {
		return nil, err
	}
	if h.Height, err = d.ReadFloat64(); err != nil {
		return nil, err
	}
	if h.NextSeq, err = d.ReadUvarint(); err != nil {
		return nil, err
	}
	if h.Nodes, err = d.ReadUint32(); err != nil {
		return nil, err
	}
	return &h, nil
}
