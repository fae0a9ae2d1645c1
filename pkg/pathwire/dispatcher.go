package pathwire

import "github.com/golang/glog"

// Handler is invoked for a dispatched frame.
type Handler interface {
	HandleFrame(*Values)
}

// HandleFunc is func type of Handler.
type HandleFunc func(*Values)

// HandleFrame implements Handler.
func (f HandleFunc) HandleFrame(v *Values) {
	f(v)
}

// PathEntry binds a path to the payload kind it accepts and its handler.
type PathEntry struct {
	Path    string
	Kind    Kind
	Handler Handler
}

// DispatchStats counts the outcome of dispatched frames.
type DispatchStats struct {
	Handled      uint64 // frames passed to a handler
	UnknownPath  uint64 // frames without a matching entry
	KindMismatch uint64 // frames whose payload kind differs from the entry
	BadNumber    uint64 // frames rejected by NumberStrict
	Truncated    uint64 // frames with fields beyond MaxValues
}

// DispatcherOption customizes a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithNumberPolicy sets how malformed numeric fields are treated.
func WithNumberPolicy(policy NumberPolicy) DispatcherOption {
	return func(d *Dispatcher) {
		d.policy = policy
	}
}

// Dispatcher matches frames against a static path table and invokes the
// handlers.
type Dispatcher struct {
	frames *Queue[Frame]
	table  []PathEntry
	policy NumberPolicy
	values Values
	stats  DispatchStats
}

// NewDispatcher creates a Dispatcher consuming frames. The table is copied
// and never changes afterwards.
func NewDispatcher(frames *Queue[Frame], table []PathEntry, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		frames: frames,
		table:  append([]PathEntry(nil), table...),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Stats returns a snapshot of the counters.
func (d *Dispatcher) Stats() DispatchStats {
	return d.stats
}

// Table returns the path table.
func (d *Dispatcher) Table() []PathEntry {
	return d.table
}

// Poll dispatches at most one queued frame. It returns false when the
// frame queue was empty.
func (d *Dispatcher) Poll() bool {
	frame, ok := d.frames.Pop()
	if !ok {
		return false
	}
	d.Dispatch(frame)
	return true
}

// Dispatch runs a single frame through the table. Frames which do not
// match, or whose payload does not fit the entry, are dropped silently.
func (d *Dispatcher) Dispatch(frame Frame) {
	entry := d.lookup(frame.Path)
	if entry == nil {
		d.drop(&d.stats.UnknownPath, "unknown path", frame)
		return
	}
	v := &d.values
	if frame.IsTrigger() {
		v.reset(KindNone)
		d.invoke(entry, v)
		return
	}
	kind := DetectKind(frame.Data)
	if kind != entry.Kind {
		d.drop(&d.stats.KindMismatch, "kind mismatch", frame)
		return
	}
	v.reset(kind)
	if v.split(frame.Data) {
		d.stats.Truncated++
	}
	if !d.decode(v) {
		d.drop(&d.stats.BadNumber, "bad number", frame)
		return
	}
	d.invoke(entry, v)
}

func (d *Dispatcher) lookup(path []byte) *PathEntry {
	for i := range d.table {
		if d.table[i].Path == string(path) {
			return &d.table[i]
		}
	}
	return nil
}

func (d *Dispatcher) decode(v *Values) bool {
	for i, f := range v.fields[:v.count] {
		var ok bool
		switch v.kind {
		case KindInt:
			v.ints[i], ok = parseInt(f, d.policy)
		case KindFloat:
			v.floats[i], ok = parseFloat(f, d.policy)
		default:
			ok = true
		}
		if !ok {
			return false
		}
	}
	return true
}

func (d *Dispatcher) invoke(entry *PathEntry, v *Values) {
	d.stats.Handled++
	if entry.Handler != nil {
		entry.Handler.HandleFrame(v)
	}
}

func (d *Dispatcher) drop(counter *uint64, reason string, frame Frame) {
	*counter++
	if glog.V(4) {
		glog.Infof("dropped %s: %s", frame, reason)
	}
}
