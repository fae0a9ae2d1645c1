package pathwire

// Frame is one parsed frame. Path and Data are views into the work buffer
// of the Parser which emitted it and stay valid until the frame queue has
// cycled past the frame.
type Frame struct {
	Path []byte
	Data []byte
}

// IsTrigger indicates the frame carries no payload.
func (f Frame) IsTrigger() bool {
	return len(f.Data) == 0
}

// String returns the wire form of the frame.
func (f Frame) String() string {
	return "{p:" + string(f.Path) + ":d:" + string(f.Data) + "}"
}
