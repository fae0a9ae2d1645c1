package pathwire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type call struct {
	entry   string
	kind    Kind
	count   int
	ints    []int32
	floats  []float32
	strings []string
}

type recorder struct {
	calls []call
}

func (r *recorder) handler(entry string) Handler {
	return HandleFunc(func(v *Values) {
		c := call{entry: entry, kind: v.Kind(), count: v.Len()}
		c.ints = append(c.ints, v.Ints()...)
		c.floats = append(c.floats, v.Floats()...)
		for s := range v.Strings() {
			c.strings = append(c.strings, string(s))
		}
		r.calls = append(r.calls, c)
	})
}

func dispatchAll(t *testing.T, table []PathEntry, input string, opts ...DispatcherOption) *Dispatcher {
	p := newTestPipeline(64, 16)
	for i := 0; i < len(input); i++ {
		require.True(t, p.rx.Push(input[i]))
	}
	p.parser.Poll()
	d := NewDispatcher(p.frames, table, opts...)
	for d.Poll() {
	}
	return d
}

func TestDispatcherScenarios(t *testing.T) {
	var rec recorder
	table := []PathEntry{
		{"ctrl/arm", KindInt, rec.handler("arm")},
		{"system/reset", KindNone, rec.handler("reset")},
		{"sens/imu", KindFloat, rec.handler("imu")},
		{"log/print", KindString, rec.handler("print")},
	}
	d := dispatchAll(t, table,
		"{p:ctrl/arm:d:1}{p:system/reset:d:}{p:sens/imu:d:0.01,0.02,0.03}{p:log/print:d:hello,world}")
	require.Equal(t, []call{
		{entry: "arm", kind: KindInt, count: 1, ints: []int32{1}},
		{entry: "reset", kind: KindNone},
		{entry: "imu", kind: KindFloat, count: 3, floats: []float32{0.01, 0.02, 0.03}},
		{entry: "print", kind: KindString, count: 2, strings: []string{"hello", "world"}},
	}, rec.calls)
	require.Equal(t, DispatchStats{Handled: 4}, d.Stats())
}

func TestDispatcherDrops(t *testing.T) {
	testCases := []struct {
		name   string
		kind   Kind
		in     string
		expect []call
		stats  DispatchStats
	}{
		{
			name:  "unknown path",
			kind:  KindInt,
			in:    "{p:ctrl/disarm:d:1}",
			stats: DispatchStats{UnknownPath: 1},
		},
		{
			name:  "path is matched exactly",
			kind:  KindInt,
			in:    "{p:ctrl/ar:d:1}{p:ctrl/arm/x:d:1}",
			stats: DispatchStats{UnknownPath: 2},
		},
		{
			name:  "float for int entry",
			kind:  KindInt,
			in:    "{p:ctrl/arm:d:1.5}",
			stats: DispatchStats{KindMismatch: 1},
		},
		{
			name:  "int for float entry",
			kind:  KindFloat,
			in:    "{p:ctrl/arm:d:1}",
			stats: DispatchStats{KindMismatch: 1},
		},
		{
			name:  "string for int entry",
			kind:  KindInt,
			in:    "{p:ctrl/arm:d:on}",
			stats: DispatchStats{KindMismatch: 1},
		},
		{
			name:   "trigger reaches any entry",
			kind:   KindFloat,
			in:     "{p:ctrl/arm:d:}",
			expect: []call{{entry: "arm", kind: KindNone}},
			stats:  DispatchStats{Handled: 1},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var rec recorder
			d := dispatchAll(t, []PathEntry{{"ctrl/arm", tc.kind, rec.handler("arm")}}, tc.in)
			require.Equal(t, tc.expect, rec.calls)
			require.Equal(t, tc.stats, d.Stats())
		})
	}
}

func TestDispatcherFirstMatchWins(t *testing.T) {
	var rec recorder
	table := []PathEntry{
		{"dup", KindInt, rec.handler("first")},
		{"dup", KindInt, rec.handler("second")},
	}
	dispatchAll(t, table, "{p:dup:d:7}{p:dup:d:8}")
	require.Equal(t, []call{
		{entry: "first", kind: KindInt, count: 1, ints: []int32{7}},
		{entry: "first", kind: KindInt, count: 1, ints: []int32{8}},
	}, rec.calls)
}

func TestDispatcherMismatchDoesNotFallThrough(t *testing.T) {
	var rec recorder
	table := []PathEntry{
		{"dup", KindInt, rec.handler("int")},
		{"dup", KindFloat, rec.handler("float")},
	}
	d := dispatchAll(t, table, "{p:dup:d:1.5}")
	require.Empty(t, rec.calls)
	require.Equal(t, uint64(1), d.Stats().KindMismatch)
}

func TestDispatcherTruncation(t *testing.T) {
	var rec recorder
	table := []PathEntry{
		{"i", KindInt, rec.handler("i")},
		{"f", KindFloat, rec.handler("f")},
		{"s", KindString, rec.handler("s")},
	}
	d := dispatchAll(t, table,
		"{p:i:d:1,2,3,4,5,6,7,8,9,10}{p:f:d:1.0,2,3,4,5,6,7,8,9.5}{p:s:d:a,b,c,d,e,f,g,h,i}{p:i:d:1,2,3,4,5,6,7,8}")
	require.Len(t, rec.calls, 4)
	require.Equal(t, []int32{1, 2, 3, 4, 5, 6, 7, 8}, rec.calls[0].ints)
	require.Equal(t, []float32{1, 2, 3, 4, 5, 6, 7, 8}, rec.calls[1].floats)
	require.Equal(t, []string{"a", "b", "c", "d", "e", "f", "g", "h"}, rec.calls[2].strings)
	require.Equal(t, MaxValues, rec.calls[3].count)
	for _, c := range rec.calls {
		require.Equal(t, MaxValues, c.count)
	}
	require.Equal(t, uint64(3), d.Stats().Truncated)
}

func TestDispatcherNumberPolicy(t *testing.T) {
	testCases := []struct {
		name   string
		policy NumberPolicy
		in     string
		expect []call
		bad    uint64
	}{
		{
			name:   "lenient ints",
			policy: NumberLenient,
			in:     "{p:i:d:1-2,--3,,-7,99999999999}",
			expect: []call{{entry: "i", kind: KindInt, count: 5, ints: []int32{1, 0, 0, -7, 2147483647}}},
		},
		{
			name:   "lenient floats",
			policy: NumberLenient,
			in:     "{p:f:d:1.2.3,.5,-.25,-,7.}",
			expect: []call{{entry: "f", kind: KindFloat, count: 5, floats: []float32{1.2, 0.5, -0.25, 0, 7}}},
		},
		{
			name:   "lenient saturates negative ints",
			policy: NumberLenient,
			in:     "{p:i:d:-2147483648,-99999999999}",
			expect: []call{{entry: "i", kind: KindInt, count: 2, ints: []int32{-2147483648, -2147483648}}},
		},
		{
			name:   "lenient trailing comma adds a zero field",
			policy: NumberLenient,
			in:     "{p:i:d:1,2,}{p:f:d:0.5,}",
			expect: []call{
				{entry: "i", kind: KindInt, count: 3, ints: []int32{1, 2, 0}},
				{entry: "f", kind: KindFloat, count: 2, floats: []float32{0.5, 0}},
			},
		},
		{
			name:   "strict rejects trailing comma",
			policy: NumberStrict,
			in:     "{p:i:d:1,2,}",
			bad:    1,
		},
		{
			name:   "strict accepts valid ints",
			policy: NumberStrict,
			in:     "{p:i:d:-1,0,42}",
			expect: []call{{entry: "i", kind: KindInt, count: 3, ints: []int32{-1, 0, 42}}},
		},
		{
			name:   "strict rejects malformed int",
			policy: NumberStrict,
			in:     "{p:i:d:1-2}",
			bad:    1,
		},
		{
			name:   "strict rejects empty field",
			policy: NumberStrict,
			in:     "{p:i:d:1,,2}",
			bad:    1,
		},
		{
			name:   "strict rejects int overflow",
			policy: NumberStrict,
			in:     "{p:i:d:2147483648}",
			bad:    1,
		},
		{
			name:   "strict rejects malformed float",
			policy: NumberStrict,
			in:     "{p:f:d:1.2.3}",
			bad:    1,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var rec recorder
			table := []PathEntry{
				{"i", KindInt, rec.handler("i")},
				{"f", KindFloat, rec.handler("f")},
			}
			d := dispatchAll(t, table, tc.in, WithNumberPolicy(tc.policy))
			require.Equal(t, tc.expect, rec.calls)
			require.Equal(t, tc.bad, d.Stats().BadNumber)
		})
	}
}

func TestDispatcherEmptyQueue(t *testing.T) {
	d := NewDispatcher(NewQueue(make([]Frame, 2)), nil)
	require.False(t, d.Poll())
}

func TestDispatcherNilHandler(t *testing.T) {
	d := dispatchAll(t, []PathEntry{{Path: "x", Kind: KindInt}}, "{p:x:d:1}")
	require.Equal(t, uint64(1), d.Stats().Handled)
}

func TestDispatcherTableIsCopied(t *testing.T) {
	var rec recorder
	table := []PathEntry{{"a", KindInt, rec.handler("a")}}
	frames := NewQueue(make([]Frame, 2))
	d := NewDispatcher(frames, table)
	table[0].Path = "b"
	require.True(t, frames.Push(Frame{Path: []byte("a"), Data: []byte("1")}))
	require.True(t, d.Poll())
	require.Len(t, rec.calls, 1)
}

func TestValuesStrings(t *testing.T) {
	var v Values
	v.reset(KindString)
	require.False(t, v.split([]byte("a,,b,")))
	require.Equal(t, 4, v.Len())
	require.Equal(t, []byte("a"), v.Field(0))
	require.Equal(t, []byte(""), v.Field(1))
	require.Equal(t, []byte(""), v.Field(3))
	require.Nil(t, v.Field(4))
	require.Nil(t, v.Ints())
	require.Nil(t, v.Floats())

	var got []string
	for s := range v.Strings() {
		got = append(got, string(s))
		if len(got) == 2 {
			break
		}
	}
	require.Equal(t, []string{"a", ""}, got)
}

func TestDetectKind(t *testing.T) {
	testCases := []struct {
		in   string
		kind Kind
	}{
		{"", KindNone},
		{"1", KindInt},
		{"-1,2,-3", KindInt},
		{",", KindInt},
		{"1.5", KindFloat},
		{"0.01,-2,.3", KindFloat},
		{"1e3", KindString},
		{"1 2", KindString},
		{"hello", KindString},
		{"1.5,x", KindString},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			require.Equal(t, tc.kind, DetectKind([]byte(tc.in)))
		})
	}
}

func TestKindNames(t *testing.T) {
	for _, k := range []Kind{KindNone, KindInt, KindFloat, KindString} {
		parsed, ok := ParseKind(k.String())
		require.True(t, ok)
		require.Equal(t, k, parsed)
	}
	_, ok := ParseKind("bool")
	require.False(t, ok)
	require.Equal(t, "unknown", Kind(42).String())
}

func TestNumberPolicyText(t *testing.T) {
	var p NumberPolicy
	require.NoError(t, p.UnmarshalText([]byte("strict")))
	require.Equal(t, NumberStrict, p)
	text, err := p.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "strict", string(text))
	require.NoError(t, p.UnmarshalText([]byte("lenient")))
	require.Equal(t, NumberLenient, p)
	require.Error(t, p.UnmarshalText([]byte("loose")))
	require.Equal(t, NumberLenient, p)
}
