package pathwire

import "math"

const minInt32Text = "-2147483648"

// Sender writes frames into a tx Queue. Every queued byte is followed by a
// call to the Notifier so an idle transport can start right away.
//
// A send which hits a full queue stops and returns ErrTxOverflow; the
// bytes already queued stay there.
type Sender struct {
	tx       *Queue[byte]
	notifier Notifier
}

// NewSender creates a Sender writing to tx. notifier may be nil.
func NewSender(tx *Queue[byte], notifier Notifier) *Sender {
	return &Sender{tx: tx, notifier: notifier}
}

// SendTrigger sends a frame without payload, e.g. {p:system/reset:d:}.
func (s *Sender) SendTrigger(path string) error {
	return s.result(s.begin(path) && s.end())
}

// SendInts sends a frame with an integer list, e.g. {p:ctrl/pid:d:10,20,-5}.
func (s *Sender) SendInts(path string, values ...int32) error {
	if !s.begin(path) {
		return ErrTxOverflow
	}
	for i, v := range values {
		if i > 0 && !s.push(',') {
			return ErrTxOverflow
		}
		if !s.pushInt(v) {
			return ErrTxOverflow
		}
	}
	return s.result(s.end())
}

// SendFloats sends a frame with a float list using three fractional
// digits, e.g. {p:sens/imu:d:1.250,-0.500,0.000}.
func (s *Sender) SendFloats(path string, values ...float32) error {
	if !s.begin(path) {
		return ErrTxOverflow
	}
	for i, v := range values {
		if i > 0 && !s.push(',') {
			return ErrTxOverflow
		}
		if !s.pushFloat(v) {
			return ErrTxOverflow
		}
	}
	return s.result(s.end())
}

// SendStrings sends a frame with a string list, e.g. {p:log:d:hello,world}.
// Values are not escaped and must not contain '{', '}', ':' or ','.
func (s *Sender) SendStrings(path string, values ...string) error {
	if !s.begin(path) {
		return ErrTxOverflow
	}
	for i, v := range values {
		if i > 0 && !s.push(',') {
			return ErrTxOverflow
		}
		if !s.pushString(v) {
			return ErrTxOverflow
		}
	}
	return s.result(s.end())
}

func (s *Sender) result(ok bool) error {
	if !ok {
		return ErrTxOverflow
	}
	return nil
}

func (s *Sender) begin(path string) bool {
	return s.push(frameStart) && s.push(markerPath) && s.push(frameSep) &&
		s.pushString(path) &&
		s.push(frameSep) && s.push(markerData) && s.push(frameSep)
}

func (s *Sender) end() bool {
	return s.push(frameEnd)
}

func (s *Sender) push(c byte) bool {
	if !s.tx.Push(c) {
		return false
	}
	if s.notifier != nil {
		s.notifier.NotifyTx()
	}
	return true
}

func (s *Sender) pushString(str string) bool {
	for i := 0; i < len(str); i++ {
		if !s.push(str[i]) {
			return false
		}
	}
	return true
}

func (s *Sender) pushInt(v int32) bool {
	if v == math.MinInt32 {
		return s.pushString(minInt32Text)
	}
	if v < 0 {
		if !s.push('-') {
			return false
		}
		v = -v
	}
	return s.pushUint(uint32(v), 1)
}

// pushUint writes v in decimal, left padded with zeros to at least width
// digits.
func (s *Sender) pushUint(v uint32, width int) bool {
	var buf [10]byte
	i := len(buf)
	for v > 0 || len(buf)-i < width {
		i--
		buf[i] = '0' + byte(v%10)
		v /= 10
	}
	for ; i < len(buf); i++ {
		if !s.push(buf[i]) {
			return false
		}
	}
	return true
}

// pushFloat writes v as [-]D+.DDD rounding half up on the third
// fractional digit. NaN is written as 0.000 and magnitudes beyond the
// int32 range saturate.
func (s *Sender) pushFloat(v float32) bool {
	f := float64(v)
	if math.IsNaN(f) {
		f = 0
	}
	if f < 0 {
		if !s.push('-') {
			return false
		}
		f = -f
	}
	var whole, frac uint32
	if f >= math.MaxInt32 {
		whole = math.MaxInt32
	} else {
		whole = uint32(f)
		frac = uint32((f-float64(whole))*1000 + 0.5)
		if frac >= 1000 {
			frac -= 1000
			whole++
		}
	}
	return s.pushUint(whole, 1) && s.push('.') && s.pushUint(frac, 3)
}
