package pathwire

import (
	"fmt"
	"math"
	"strconv"
)

// NumberPolicy selects how numeric fields which fail to parse are treated.
type NumberPolicy int

const (
	// NumberLenient uses the longest valid prefix of a field, 0 when there
	// is none, and saturates integers at the int32 range.
	NumberLenient NumberPolicy = iota
	// NumberStrict drops the whole frame if any field is not a valid
	// number.
	NumberStrict
)

// String implements fmt.Stringer.
func (p NumberPolicy) String() string {
	if p == NumberStrict {
		return "strict"
	}
	return "lenient"
}

// MarshalText implements encoding.TextMarshaler.
func (p NumberPolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *NumberPolicy) UnmarshalText(text []byte) error {
	switch string(text) {
	case "lenient", "":
		*p = NumberLenient
	case "strict":
		*p = NumberStrict
	default:
		return fmt.Errorf("invalid number policy %q", text)
	}
	return nil
}

func parseInt(field []byte, policy NumberPolicy) (int32, bool) {
	if policy == NumberStrict {
		v, err := strconv.ParseInt(string(field), 10, 32)
		return int32(v), err == nil
	}
	i, neg := 0, false
	if i < len(field) && (field[i] == '-' || field[i] == '+') {
		neg = field[i] == '-'
		i++
	}
	var v int64
	for ; i < len(field) && field[i] >= '0' && field[i] <= '9'; i++ {
		if v = v*10 + int64(field[i]-'0'); v > math.MaxInt32+1 {
			v = math.MaxInt32 + 1
		}
	}
	if neg {
		v = -v
	}
	if v > math.MaxInt32 {
		v = math.MaxInt32
	}
	return int32(v), true
}

func parseFloat(field []byte, policy NumberPolicy) (float32, bool) {
	if policy == NumberStrict {
		v, err := strconv.ParseFloat(string(field), 32)
		return float32(v), err == nil
	}
	end := floatPrefix(field)
	if end == 0 {
		return 0, true
	}
	// the prefix is well formed, so an error is a range error and v
	// already holds the saturated value.
	v, _ := strconv.ParseFloat(string(field[:end]), 32)
	return float32(v), true
}

// floatPrefix returns the length of the longest prefix of field matching
// [+-]?D*(.D*)? with at least one digit, or 0.
func floatPrefix(field []byte) int {
	i := 0
	if i < len(field) && (field[i] == '-' || field[i] == '+') {
		i++
	}
	digits := 0
	for ; i < len(field) && field[i] >= '0' && field[i] <= '9'; i++ {
		digits++
	}
	end := i
	if i < len(field) && field[i] == '.' {
		i++
		for ; i < len(field) && field[i] >= '0' && field[i] <= '9'; i++ {
			digits++
		}
		end = i
	}
	if digits == 0 {
		return 0
	}
	return end
}
