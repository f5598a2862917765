package scanner

// EOF is the sentinel returned by Peek at end of input.
const EOF = -1

// Cursor is a position over the source bytes. Advance moves the tentative
// position; Commit freezes the consumed prefix as the candidate token's end.
// The distinction lets Scan peek arbitrarily far ahead while guaranteeing the
// emitted token never covers speculative reads.
type Cursor struct {
	src       []byte
	pos       int
	committed int
}

// NewCursor returns a cursor at the start of src.
func NewCursor(src []byte) *Cursor {
	return &Cursor{src: src}
}

// Peek returns the byte at the current position, or EOF.
func (c *Cursor) Peek() int {
	if c.pos >= len(c.src) {
		return EOF
	}
	return int(c.src[c.pos])
}

// Advance consumes the current byte, extending the tentative span.
func (c *Cursor) Advance() {
	if c.pos < len(c.src) {
		c.pos++
	}
}

// Commit freezes the current position as the candidate token's end.
func (c *Cursor) Commit() {
	c.committed = c.pos
}

// Pos returns the tentative position.
func (c *Cursor) Pos() int {
	return c.pos
}

// Committed returns the last committed position.
func (c *Cursor) Committed() int {
	return c.committed
}

// Source returns the bytes the cursor scans over.
func (c *Cursor) Source() []byte {
	return c.src
}

// Snapshot captures the cursor state for speculative matching.
type Snapshot struct {
	pos       int
	committed int
}

// Snapshot captures the current cursor state.
func (c *Cursor) Snapshot() Snapshot {
	return Snapshot{pos: c.pos, committed: c.committed}
}

// Restore rewinds the cursor to a previously captured state.
func (c *Cursor) Restore(s Snapshot) {
	c.pos = s.pos
	c.committed = s.committed
}

// rewindToCommit drops any consumption past the committed position.
func (c *Cursor) rewindToCommit() {
	c.pos = c.committed
}
