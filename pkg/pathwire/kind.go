package pathwire

// Kind is the type of a frame payload.
type Kind int

// Payload kinds.
const (
	KindNone Kind = iota
	KindInt
	KindFloat
	KindString
)

var kindNames = [...]string{
	KindNone:   "none",
	KindInt:    "int",
	KindFloat:  "float",
	KindString: "string",
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// ParseKind converts a name produced by Kind.String back to a Kind.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	return KindNone, false
}

// DetectKind infers the kind of a raw payload. Digits, '-' and ',' make an
// integer list, a '.' among them makes a float list and anything else is a
// string list.
func DetectKind(data []byte) Kind {
	if len(data) == 0 {
		return KindNone
	}
	dot := false
	for _, c := range data {
		switch {
		case c == '.':
			dot = true
		case c >= '0' && c <= '9', c == '-', c == ',':
		default:
			return KindString
		}
	}
	if dot {
		return KindFloat
	}
	return KindInt
}
