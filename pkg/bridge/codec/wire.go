package codec

import (
	"github.com/robotalks/pathwire/pkg/pathwire"
)

// wireCodec carries the PathWire text form. Numbers are decoded strictly.
type wireCodec struct{}

func (wireCodec) Name() string { return "wire" }

func (wireCodec) Marshal(m *Message) ([]byte, error) {
	tx := pathwire.NewQueue(make([]byte, m.wireSize()+1))
	if err := m.Send(pathwire.NewSender(tx, nil)); err != nil {
		return nil, err
	}
	out := make([]byte, 0, tx.Len())
	for {
		b, ok := tx.Pop()
		if !ok {
			return out, nil
		}
		out = append(out, b)
	}
}

// Unmarshal decodes the first complete frame in data.
func (wireCodec) Unmarshal(data []byte, m *Message) error {
	rx := pathwire.NewQueue(make([]byte, len(data)+1))
	frames := pathwire.NewQueue(make([]pathwire.Frame, 2))
	parser := pathwire.NewParser(rx, frames, len(data))
	for _, b := range data {
		rx.Push(b)
	}
	parser.Poll()
	frame, ok := frames.Pop()
	if !ok {
		return ErrNoFrame
	}
	path := string(frame.Path)
	kind := pathwire.DetectKind(frame.Data)
	var decoded bool
	d := pathwire.NewDispatcher(frames, []pathwire.PathEntry{
		{Path: path, Kind: kind, Handler: pathwire.HandleFunc(func(v *pathwire.Values) {
			*m = *FromValues(path, v)
			decoded = true
		})},
	}, pathwire.WithNumberPolicy(pathwire.NumberStrict))
	d.Dispatch(frame)
	if !decoded {
		return ErrBadNumber
	}
	return nil
}
