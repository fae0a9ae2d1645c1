package pathwire

import "github.com/golang/glog"

// Frame delimiters and markers.
const (
	frameStart byte = '{'
	frameEnd   byte = '}'
	frameSep   byte = ':'
	markerPath byte = 'p'
	markerData byte = 'd'
)

type parseState int

const (
	stateWaitStart  parseState = iota // waiting for '{'
	stateWaitP                        // waiting for 'p'
	stateWaitPColon                   // waiting for ':' after 'p'
	stateReadPath                     // reading path until ':'
	stateWaitD                        // waiting for 'd'
	stateWaitDColon                   // waiting for ':' after 'd'
	stateReadData                     // reading data until '}'
	stateError                        // discarding until '{'
)

// ParserStats counts what the parser did with the bytes it consumed.
type ParserStats struct {
	Bytes     uint64 // bytes consumed
	Frames    uint64 // frames pushed to the frame queue
	Malformed uint64 // frames abandoned on a structural error
	Overflows uint64 // frames abandoned on work buffer exhaustion
	Dropped   uint64 // complete frames lost because the frame queue was full
	Stalls    uint64 // partial frames abandoned by Expire
}

// Parser reconstructs frames from bytes in a rx Queue.
//
// The work buffer is split in slots of workSize bytes, one for every frame
// the frame queue can hold plus the one being filled and the one being
// dispatched, so an emitted Frame is never overwritten while it is still
// reachable.
type Parser struct {
	rx     *Queue[byte]
	frames *Queue[Frame]

	work     []byte
	slotSize int
	slot     int

	state    parseState
	idx      int // write index inside the current slot
	pathLen  int
	progress bool
	stats    ParserStats
}

// NewParser creates a Parser reading rx and emitting to frames. workSize
// bounds the combined length of path and data of a single frame.
func NewParser(rx *Queue[byte], frames *Queue[Frame], workSize int) *Parser {
	if workSize < 0 {
		workSize = 0
	}
	slots := frames.Cap() + 2
	return &Parser{
		rx:       rx,
		frames:   frames,
		work:     make([]byte, slots*workSize),
		slotSize: workSize,
	}
}

// Reset abandons any partial frame and waits for the next '{'.
func (p *Parser) Reset() {
	p.state = stateWaitStart
	p.idx, p.pathLen = 0, 0
}

// Stats returns a snapshot of the counters.
func (p *Parser) Stats() ParserStats {
	return p.stats
}

// InFrame indicates a partial frame is being assembled.
func (p *Parser) InFrame() bool {
	return p.state != stateWaitStart && p.state != stateError
}

// Poll consumes every byte available in the rx queue and returns the
// number of frames emitted. It never blocks.
func (p *Parser) Poll() (n int) {
	for {
		b, ok := p.rx.Pop()
		if !ok {
			return
		}
		p.progress = true
		p.stats.Bytes++
		if p.parseByte(b) {
			n++
		}
	}
}

// Expire abandons a partial frame if no byte was consumed since the
// previous call. Calling it periodically bounds how long a stalled peer
// can hold the parser.
func (p *Parser) Expire() bool {
	stalled := !p.progress && p.InFrame()
	p.progress = false
	if stalled {
		if glog.V(4) {
			glog.Infof("partial frame expired after %d bytes", p.idx)
		}
		p.stats.Stalls++
		p.Reset()
	}
	return stalled
}

func (p *Parser) parseByte(b byte) bool {
	switch p.state {
	case stateWaitStart, stateError:
		if b == frameStart {
			p.Reset()
			p.state = stateWaitP
		}
	case stateWaitP:
		p.expect(b, markerPath, stateWaitPColon)
	case stateWaitPColon:
		p.expect(b, frameSep, stateReadPath)
	case stateReadPath:
		if b == frameSep {
			p.pathLen, p.state = p.idx, stateWaitD
		} else {
			p.append(b)
		}
	case stateWaitD:
		p.expect(b, markerData, stateWaitDColon)
	case stateWaitDColon:
		p.expect(b, frameSep, stateReadData)
	case stateReadData:
		if b == frameEnd {
			return p.emit()
		}
		p.append(b)
	}
	return false
}

func (p *Parser) expect(b, want byte, next parseState) {
	if b != want {
		p.stats.Malformed++
		p.fail()
		return
	}
	p.state = next
}

func (p *Parser) append(b byte) {
	if p.idx >= p.slotSize {
		if glog.V(4) {
			glog.Infof("frame exceeds work buffer of %d bytes", p.slotSize)
		}
		p.stats.Overflows++
		p.fail()
		// the byte which overflowed may start the next frame.
		p.parseByte(b)
		return
	}
	p.work[p.slot*p.slotSize+p.idx] = b
	p.idx++
}

func (p *Parser) emit() bool {
	base := p.slot * p.slotSize
	frame := Frame{
		Path: p.work[base : base+p.pathLen : base+p.pathLen],
		Data: p.work[base+p.pathLen : base+p.idx : base+p.idx],
	}
	if !p.frames.Push(frame) {
		if glog.V(4) {
			glog.Infof("frame queue full, dropped %s", frame)
		}
		p.stats.Dropped++
		p.fail()
		return false
	}
	p.stats.Frames++
	if p.slot++; p.slot*p.slotSize >= len(p.work) {
		p.slot = 0
	}
	p.Reset()
	return true
}

func (p *Parser) fail() {
	p.Reset()
	p.state = stateError
}
