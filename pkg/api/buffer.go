package api

// Buffer holds a serialized evaluation result. It is allocated by EvalSource
// and owned by the caller, who must release it exactly once and must not read
// it afterwards.
type Buffer struct {
	data     []byte
	released bool
}

func newBuffer(data []byte) *Buffer {
	return &Buffer{data: data}
}

// Bytes returns the payload. It panics after Release.
func (b *Buffer) Bytes() []byte {
	if b.released {
		panic("api: buffer used after release")
	}
	return b.data
}

// Len returns the payload length in bytes.
func (b *Buffer) Len() int {
	if b.released {
		panic("api: buffer used after release")
	}
	return len(b.data)
}

// Release returns the buffer to the callee. Releasing twice panics.
func (b *Buffer) Release() {
	if b.released {
		panic("api: buffer released twice")
	}
	b.released = true
	b.data = nil
}
