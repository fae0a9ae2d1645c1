package pathwire

import (
	"bytes"
	"iter"
)

// MaxValues is the maximum number of fields decoded from one payload.
// Excess fields are dropped.
const MaxValues = 8

// Values is a decoded payload handed to a Handler. It is owned by the
// Dispatcher and only valid for the duration of the call.
type Values struct {
	kind   Kind
	count  int
	ints   [MaxValues]int32
	floats [MaxValues]float32
	fields [MaxValues][]byte
}

// Kind returns the payload kind.
func (v *Values) Kind() Kind { return v.kind }

// Len returns the number of decoded fields.
func (v *Values) Len() int { return v.count }

// Ints returns the decoded integers of a KindInt payload.
func (v *Values) Ints() []int32 {
	if v.kind != KindInt {
		return nil
	}
	return v.ints[:v.count]
}

// Floats returns the decoded floats of a KindFloat payload.
func (v *Values) Floats() []float32 {
	if v.kind != KindFloat {
		return nil
	}
	return v.floats[:v.count]
}

// Field returns the raw text of field i.
func (v *Values) Field(i int) []byte {
	if i < 0 || i >= v.count {
		return nil
	}
	return v.fields[i]
}

// Strings yields the fields of a KindString payload as views into the
// frame. Nothing is copied.
func (v *Values) Strings() iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		if v.kind != KindString {
			return
		}
		for _, f := range v.fields[:v.count] {
			if !yield(f) {
				return
			}
		}
	}
}

func (v *Values) reset(kind Kind) {
	v.kind, v.count = kind, 0
}

// split records up to MaxValues comma separated fields of data and
// reports whether fields were left over.
func (v *Values) split(data []byte) (truncated bool) {
	for {
		if v.count == MaxValues {
			return true
		}
		i := bytes.IndexByte(data, ',')
		if i < 0 {
			v.fields[v.count] = data
			v.count++
			return false
		}
		v.fields[v.count] = data[:i:i]
		v.count++
		data = data[i+1:]
	}
}
