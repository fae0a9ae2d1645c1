// Package codec converts PathWire frames to and from the payload formats
// carried by bridges.
package codec

import (
	"fmt"
	"strings"

	"github.com/golang/protobuf/proto"

	"github.com/robotalks/pathwire/pkg/pathwire"
)

// Message is a decoded frame detached from the dispatcher buffers.
type Message struct {
	Path    string    `protobuf:"bytes,1,opt,name=path,proto3" json:"path" cbor:"1,keyasint"`
	Kind    string    `protobuf:"bytes,2,opt,name=kind,proto3" json:"kind,omitempty" cbor:"2,keyasint,omitempty"`
	Ints    []int32   `protobuf:"zigzag32,3,rep,packed,name=ints,proto3" json:"ints,omitempty" cbor:"3,keyasint,omitempty"`
	Floats  []float32 `protobuf:"fixed32,4,rep,packed,name=floats,proto3" json:"floats,omitempty" cbor:"4,keyasint,omitempty"`
	Strings []string  `protobuf:"bytes,5,rep,name=strings,proto3" json:"strings,omitempty" cbor:"5,keyasint,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *Message) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Message) Reset() { *m = Message{} }

// String implements proto.Message.
func (m *Message) String() string { return proto.CompactTextString(m) }

// FromValues copies a dispatched payload into a Message.
func FromValues(path string, v *pathwire.Values) *Message {
	m := &Message{Path: path, Kind: v.Kind().String()}
	switch v.Kind() {
	case pathwire.KindInt:
		m.Ints = append([]int32(nil), v.Ints()...)
	case pathwire.KindFloat:
		m.Floats = append([]float32(nil), v.Floats()...)
	case pathwire.KindString:
		for f := range v.Strings() {
			m.Strings = append(m.Strings, string(f))
		}
	}
	return m
}

// reserved holds the bytes which delimit frames and values.
const reserved = "{}:,"

// PayloadKind returns the kind named by Kind, or inferred from the
// populated values when Kind is empty. At most one of Ints, Floats and
// Strings may be populated, and it must agree with Kind.
func (m *Message) PayloadKind() (pathwire.Kind, error) {
	inferred, populated := pathwire.KindNone, 0
	if len(m.Ints) > 0 {
		inferred, populated = pathwire.KindInt, populated+1
	}
	if len(m.Floats) > 0 {
		inferred, populated = pathwire.KindFloat, populated+1
	}
	if len(m.Strings) > 0 {
		inferred, populated = pathwire.KindString, populated+1
	}
	if populated > 1 {
		return pathwire.KindNone, ErrKindMismatch
	}
	if m.Kind == "" {
		return inferred, nil
	}
	kind, ok := pathwire.ParseKind(m.Kind)
	if !ok {
		return pathwire.KindNone, &UnknownKindError{Kind: m.Kind}
	}
	if populated > 0 && kind != inferred {
		return pathwire.KindNone, ErrKindMismatch
	}
	return kind, nil
}

// Validate checks the message can be sent as exactly one frame.
func (m *Message) Validate() error {
	if m.Path == "" {
		return ErrEmptyPath
	}
	if strings.ContainsAny(m.Path, reserved) {
		return fmt.Errorf("path %q: %w", m.Path, ErrReservedChar)
	}
	for _, s := range m.Strings {
		if strings.ContainsAny(s, reserved) {
			return fmt.Errorf("value %q: %w", s, ErrReservedChar)
		}
	}
	_, err := m.PayloadKind()
	return err
}

// Send writes the message as a frame.
func (m *Message) Send(s *pathwire.Sender) error {
	if err := m.Validate(); err != nil {
		return err
	}
	kind, _ := m.PayloadKind()
	switch kind {
	case pathwire.KindInt:
		return s.SendInts(m.Path, m.Ints...)
	case pathwire.KindFloat:
		return s.SendFloats(m.Path, m.Floats...)
	case pathwire.KindString:
		return s.SendStrings(m.Path, m.Strings...)
	}
	return s.SendTrigger(m.Path)
}

// wireSize bounds the encoded length of the message.
func (m *Message) wireSize() int {
	n := len("{p::d:}") + len(m.Path)
	n += len(m.Ints) * len("-2147483648,")
	n += len(m.Floats) * len("-2147483647.000,")
	for _, s := range m.Strings {
		n += len(s) + 1
	}
	return n
}
