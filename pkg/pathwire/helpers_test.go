package pathwire

type testFrame struct {
	path string
	data string
}

type testPipeline struct {
	rx     *Queue[byte]
	frames *Queue[Frame]
	parser *Parser
}

func newTestPipeline(workSize, frameSlots int) *testPipeline {
	p := &testPipeline{
		rx:     NewQueue(make([]byte, 1024)),
		frames: NewQueue(make([]Frame, frameSlots)),
	}
	p.parser = NewParser(p.rx, p.frames, workSize)
	return p
}

// feed pushes input into the rx queue in chunks of chunk bytes, polling
// the parser after every chunk, and collects all emitted frames.
func (p *testPipeline) feed(input string, chunk int) (out []testFrame) {
	if chunk <= 0 {
		chunk = len(input)
	}
	for len(input) > 0 {
		n := chunk
		if n > len(input) {
			n = len(input)
		}
		for i := 0; i < n; i++ {
			p.rx.Push(input[i])
		}
		input = input[n:]
		p.parser.Poll()
		out = append(out, p.pop()...)
	}
	return
}

func (p *testPipeline) pop() (out []testFrame) {
	for {
		f, ok := p.frames.Pop()
		if !ok {
			return
		}
		out = append(out, testFrame{path: string(f.Path), data: string(f.Data)})
	}
}

func drain(q *Queue[byte]) string {
	var out []byte
	for {
		b, ok := q.Pop()
		if !ok {
			return string(out)
		}
		out = append(out, b)
	}
}
