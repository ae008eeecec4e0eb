package protocol

import "errors"

// ErrUnknownPatchOp is returned when a batch holds an op this version does
// not know.
var ErrUnknownPatchOp = errors.New("protocol: unknown patch op")

// FaultCode classifies a Fault.
type FaultCode uint16

// Codes below 0x0100 blame the receiver or the stream, the rest blame the
// sender.
const (
	FaultUnknown      FaultCode = 0x0000
	FaultMalformed    FaultCode = 0x0001
	FaultVersion      FaultCode = 0x0002
	FaultSlowConsumer FaultCode = 0x0003
	FaultInternal     FaultCode = 0x0100
	FaultShutdown     FaultCode = 0x0101
)

var faultNames = map[FaultCode]string{
	FaultMalformed:    "malformed",
	FaultVersion:      "version",
	FaultSlowConsumer: "slow-consumer",
	FaultInternal:     "internal",
	FaultShutdown:     "shutdown",
}

func (c FaultCode) String() string {
	if name, ok := faultNames[c]; ok {
		return name
	}
	return "unknown"
}

// Fault is the payload of a FrameError. A fatal fault is the last frame of
// its stream.
type Fault struct {
	Code   FaultCode
	Reason string
	Fatal  bool
}

// EncodeFault encodes f as a FrameError payload.
func EncodeFault(f *Fault) []byte {
	e := NewEncoder()
	e.WriteUint16(uint16(f.Code))
	e.WriteString(f.Reason)
	e.WriteBool(f.Fatal)
	return e.Bytes()
}

// DecodeFault decodes a FrameError payload.
func DecodeFault(data []byte) (*Fault, error) {
	var (
		f    Fault
		code uint16
		err  error
	)
	d := NewDecoder(data)
	if code, err = d.ReadUint16(); err != nil {
		return nil, err
	}
	f.Code = FaultCode(code)
	if f.Reason, err = d.ReadString(); err != nil {
		return nil, err
	}
	if f.Fatal, err = d.ReadBool(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *Fault) Error() string {
	msg := "protocol " + f.Code.String() + ": " + f.Reason
	if f.Fatal {
		msg += " (fatal)"
	}
	return msg
}
