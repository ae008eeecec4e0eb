package protocol

import (
	"fmt"

	"github.com/vango-dev/canopy/pkg/render"
)

// PatchOp is the wire value of a patch operation. Values match
// render.PatchOp.
type PatchOp uint8

const (
	PatchAppend    PatchOp = PatchOp(render.PatchAppend)
	PatchInsert    PatchOp = PatchOp(render.PatchInsert)
	PatchUpdate    PatchOp = PatchOp(render.PatchUpdate)
	PatchPlacement PatchOp = PatchOp(render.PatchPlacement)
	PatchRemove    PatchOp = PatchOp(render.PatchRemove)
)

// String returns the string representation of the patch operation.
func (op PatchOp) String() string {
	return render.PatchOp(op).String()
}

// PatchWire is the serializable form of a render.Patch. Widgets travel as
// their type name only.
type PatchWire struct {
	Op     PatchOp
	ID     uint64
	Parent uint64 // Append
	Before uint64 // Insert, Placement
	Type   string // Append, Insert, Update
	Key    string // Append, Insert, Update
}

// BatchFrame is one pass worth of patches with its sequence number.
type BatchFrame struct {
	Seq     uint64
	Pass    string
	Patches []PatchWire
}

// NewBatch converts render patches into a batch frame.
func NewBatch(seq uint64, pass string, patches []render.Patch) *BatchFrame {
	b := &BatchFrame{Seq: seq, Pass: pass, Patches: make([]PatchWire, len(patches))}
	for i, p := range patches {
		w := PatchWire{Op: PatchOp(p.Op), ID: uint64(p.ID)}
		switch p.Op {
		case render.PatchAppend:
			w.Parent = uint64(p.Parent)
			w.Type, w.Key = p.Pod.TypeName(), p.Pod.Key
		case render.PatchInsert:
			w.Before = uint64(p.Before)
			w.Type, w.Key = p.Pod.TypeName(), p.Pod.Key
		case render.PatchUpdate:
			w.Type, w.Key = p.Element.TypeName(), p.Element.Key
		case render.PatchPlacement:
			w.Before = uint64(p.Before)
		}
		b.Patches[i] = w
	}
	return b
}

// EncodeBatch encodes a batch frame to bytes.
func EncodeBatch(b *BatchFrame) []byte {
	e := NewEncoder()
	EncodeBatchTo(e, b)
	return e.Bytes()
}

// EncodeBatchTo encodes a batch frame using the provided encoder.
func EncodeBatchTo(e *Encoder, b *BatchFrame) {
	e.WriteUvarint(b.Seq)
	e.WriteString(b.Pass)
	e.WriteUvarint(uint64(len(b.Patches)))
	for i := range b.Patches {
		encodePatch(e, &b.Patches[i])
	}
}

func encodePatch(e *Encoder, p *PatchWire) {
	e.WriteByte(byte(p.Op))
	e.WriteUvarint(p.ID)

	switch p.Op {
	case PatchAppend:
		e.WriteUvarint(p.Parent)
		e.WriteString(p.Type)
		e.WriteString(p.Key)

	case PatchInsert:
		e.WriteUvarint(p.Before)
		e.WriteString(p.Type)
		e.WriteString(p.Key)

	case PatchUpdate:
		e.WriteString(p.Type)
		e.WriteString(p.Key)

	case PatchPlacement:
		e.WriteUvarint(p.Before)

	case PatchRemove:
		// ID is sufficient
	}
}

// DecodeBatch decodes a batch frame from bytes.
func DecodeBatch(data []byte) (*BatchFrame, error) {
	return DecodeBatchFrom(NewDecoder(data))
}

// DecodeBatchFrom decodes a batch frame from a decoder.
func DecodeBatchFrom(d *Decoder) (*BatchFrame, error) {
	seq, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	pass, err := d.ReadString()
	if err != nil {
		return nil, err
	}
	count, err := d.ReadCollectionCount()
	if err != nil {
		return nil, err
	}

	b := &BatchFrame{Seq: seq, Pass: pass, Patches: make([]PatchWire, count)}
	for i := range b.Patches {
		if err := decodePatch(d, &b.Patches[i]); err != nil {
			return nil, fmt.Errorf("protocol: patch %d: %w", i, err)
		}
	}
	return b, nil
}

func decodePatch(d *Decoder, p *PatchWire) error {
	op, err := d.ReadByte()
	if err != nil {
		return err
	}
	p.Op = PatchOp(op)
	if p.ID, err = d.ReadUvarint(); err != nil {
		return err
	}

	switch p.Op {
	case PatchAppend:
		if p.Parent, err = d.ReadUvarint(); err != nil {
			return err
		}
		return decodeWidget(d, p)

	case PatchInsert:
		if p.Before, err = d.ReadUvarint(); err != nil {
			return err
		}
		return decodeWidget(d, p)

	case PatchUpdate:
		return decodeWidget(d, p)

	case PatchPlacement:
		p.Before, err = d.ReadUvarint()
		return err

	case PatchRemove:
		return nil

	default:
		return fmt.Errorf("%w: 0x%02x", ErrUnknownPatchOp, op)
	}
}

func decodeWidget(d *Decoder, p *PatchWire) error {
	var err error
	if p.Type, err = d.ReadString(); err != nil {
		return err
	}
	p.Key, err = d.ReadString()
	return err
}

// BatchFrameOf wraps an encoded batch in a frame.
func BatchFrameOf(b *BatchFrame, flags FrameFlags) *Frame {
	return &Frame{Type: FrameBatch, Flags: flags, Payload: EncodeBatch(b)}
}
