package codec

import (
	"encoding/json"
	"sort"

	"github.com/fxamacker/cbor/v2"
	"github.com/golang/protobuf/proto"
)

// Codec encodes Messages for a bridge.
type Codec interface {
	Name() string
	Marshal(*Message) ([]byte, error)
	Unmarshal([]byte, *Message) error
}

type protoCodec struct{}

func (protoCodec) Name() string { return "proto" }

func (protoCodec) Marshal(m *Message) ([]byte, error) {
	return proto.Marshal(m)
}

func (protoCodec) Unmarshal(data []byte, m *Message) error {
	return proto.Unmarshal(data, m)
}

type cborCodec struct{}

func (cborCodec) Name() string { return "cbor" }

func (cborCodec) Marshal(m *Message) ([]byte, error) {
	return cbor.Marshal(m)
}

func (cborCodec) Unmarshal(data []byte, m *Message) error {
	m.Reset()
	return cbor.Unmarshal(data, m)
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(m *Message) ([]byte, error) {
	return json.Marshal(m)
}

func (jsonCodec) Unmarshal(data []byte, m *Message) error {
	m.Reset()
	return json.Unmarshal(data, m)
}

// Builtin codecs.
var (
	Proto Codec = protoCodec{}
	CBOR  Codec = cborCodec{}
	JSON  Codec = jsonCodec{}
	Wire  Codec = wireCodec{}
)

var codecs = map[string]Codec{
	Proto.Name(): Proto,
	CBOR.Name():  CBOR,
	JSON.Name():  JSON,
	Wire.Name():  Wire,
}

// Lookup finds a builtin codec by name.
func Lookup(name string) (Codec, error) {
	if c, ok := codecs[name]; ok {
		return c, nil
	}
	return nil, &UnknownCodecError{Name: name}
}

// Names lists the builtin codecs.
func Names() []string {
	names := make([]string, 0, len(codecs))
	for name := range codecs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
