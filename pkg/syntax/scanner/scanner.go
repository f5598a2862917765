// Package scanner resolves the content tokens of NX markup that the grammar
// alone cannot: literal text runs, typed (embed) text runs, character
// entities, and escaped delimiters. The same bytes ('<', '{', '}', '&', '\',
// '@') are legal both as text and as structure depending on grammar state, so
// the host parser tells the scanner which kinds are currently legal and the
// scanner produces at most one token per call.
//
// The scanner keeps no state between calls: the result is a pure function of
// the cursor position, the source bytes, and the legality set, so speculative
// or concurrent parses may re-invoke it freely at the same position.
package scanner

// Profile selects which token kinds a scanner variant supports. One algorithm
// serves all variants; the profile masks the legality set before scanning.
type Profile uint8

const (
	// ProfileFull supports every kind, including embed mode.
	ProfileFull Profile = iota
	// ProfileNoEmbed supports text mode only.
	ProfileNoEmbed
	// ProfileDisabled never matches.
	ProfileDisabled
)

func (p Profile) mask() Legality {
	switch p {
	case ProfileFull:
		return Legal(TextChunk, EmbedTextChunk, Entity, EscapedLBrace, EscapedRBrace, EscapedAt)
	case ProfileNoEmbed:
		return Legal(TextChunk, Entity, EscapedLBrace, EscapedRBrace)
	default:
		return 0
	}
}

// BackslashPolicy controls what happens to a backslash that does not begin a
// recognized escape.
type BackslashPolicy uint8

const (
	// BackslashText treats the backslash as ordinary text: it is committed
	// into the surrounding chunk immediately.
	BackslashText BackslashPolicy = iota
	// BackslashTrim consumes the backslash tentatively without committing it,
	// so a backslash run directly before a stop boundary is excluded from the
	// emitted chunk. This matches the original scanner's mark_end behavior.
	BackslashTrim
)

// Options configures a scan. The zero value is the full profile with
// BackslashText.
type Options struct {
	Profile   Profile
	Backslash BackslashPolicy
}

// Scan produces at most one content token at the cursor's position, using the
// full profile and default options. See ScanWith.
func Scan(c *Cursor, legal Legality) (Token, bool) {
	return ScanWith(c, legal, Options{})
}

// ScanWith produces at most one content token at the cursor's position.
//
// On a match the cursor is left exactly at the token's end. On no-match the
// cursor is left exactly where it was; this is not an error, it signals the
// host parser to try another production at the same position.
//
// Priority: escapes, then entities, then a chunk in the mode selected by
// which chunk kind is legal. TextChunk and EmbedTextChunk must never both be
// legal in one call.
func ScanWith(c *Cursor, legal Legality, opts Options) (Token, bool) {
	legal &= opts.Profile.mask()

	if legal.Has(TextChunk) && legal.Has(EmbedTextChunk) {
		panic("scanner: TextChunk and EmbedTextChunk are mutually exclusive")
	}
	embed := legal.Has(EmbedTextChunk)

	chunkKind := TextChunk
	if embed {
		chunkKind = EmbedTextChunk
	}
	chunkLegal := legal.Has(chunkKind)

	entry := c.Snapshot()
	start := c.Pos()

	// Escape sequences have the highest priority.
	if c.Peek() == '\\' {
		snap := c.Snapshot()
		c.Advance()
		var kind Kind
		switch {
		case c.Peek() == '{' && legal.Has(EscapedLBrace):
			kind = EscapedLBrace
		case c.Peek() == '}' && legal.Has(EscapedRBrace):
			kind = EscapedRBrace
		case embed && c.Peek() == '@' && legal.Has(EscapedAt):
			kind = EscapedAt
		default:
			// Not a legal escape. The backslash folds into the chunk
			// scan below; with no chunk kind legal there is no match.
			c.Restore(snap)
			if !chunkLegal {
				return Token{}, false
			}
			kind = kindCount
		}
		if kind != kindCount {
			c.Advance()
			c.Commit()
			return Token{Kind: kind, Start: start, End: c.Committed()}, true
		}
	}

	// Entity attempt. A failed shape test rolls back entirely and marks the
	// leading ampersand as ordinary text for the chunk scan.
	leadAmpDisproven := false
	if c.Peek() == '&' && legal.Has(Entity) {
		snap := c.Snapshot()
		if scanEntity(c) {
			c.Commit()
			return Token{Kind: Entity, Start: start, End: c.Committed()}, true
		}
		c.Restore(snap)
		leadAmpDisproven = true
	}

	if !chunkLegal {
		c.Restore(entry)
		return Token{}, false
	}

	// Chunk scan: consume a maximal run, stopping before end of input, '<',
	// '{', '}', a backslash that starts a legal escape, an '&' that begins a
	// well-formed entity, and in embed mode the '@{' interpolation opener.
	for {
		ch := c.Peek()
		if ch == EOF || ch == '<' || ch == '{' || ch == '}' {
			break
		}

		if ch == '\\' {
			snap := c.Snapshot()
			c.Advance()
			if startsLegalEscape(c.Peek(), legal, embed) {
				c.Restore(snap)
				break
			}
			if opts.Backslash == BackslashText {
				c.Commit()
			}
			continue
		}

		if ch == '&' && legal.Has(Entity) {
			if leadAmpDisproven && c.Pos() == start {
				// Already proved this one is not an entity.
			} else {
				snap := c.Snapshot()
				ok := scanEntity(c)
				c.Restore(snap)
				if ok {
					break
				}
			}
		}

		if embed && ch == '@' {
			snap := c.Snapshot()
			c.Advance()
			opener := c.Peek() == '{'
			c.Restore(snap)
			if opener {
				break
			}
		}

		c.Advance()
		c.Commit()
	}

	c.rewindToCommit()
	end := c.Committed()
	if end == start {
		c.Restore(entry)
		return Token{}, false
	}
	return Token{Kind: chunkKind, Start: start, End: end}, true
}

// scanEntity consumes one of the three entity shapes: &name; &#digits; or
// &#xhex;. It advances speculatively; the caller restores on failure.
func scanEntity(c *Cursor) bool {
	if c.Peek() != '&' {
		return false
	}
	c.Advance()

	if c.Peek() == '#' {
		c.Advance()
		if ch := c.Peek(); ch == 'x' || ch == 'X' {
			c.Advance()
			if !isHexDigit(c.Peek()) {
				return false
			}
			for isHexDigit(c.Peek()) {
				c.Advance()
			}
		} else {
			if !isDigit(c.Peek()) {
				return false
			}
			for isDigit(c.Peek()) {
				c.Advance()
			}
		}
	} else {
		if !isLetter(c.Peek()) {
			return false
		}
		for isLetter(c.Peek()) || isDigit(c.Peek()) {
			c.Advance()
		}
	}

	if c.Peek() != ';' {
		return false
	}
	c.Advance()
	return true
}

func startsLegalEscape(ch int, legal Legality, embed bool) bool {
	switch ch {
	case '{':
		return legal.Has(EscapedLBrace)
	case '}':
		return legal.Has(EscapedRBrace)
	case '@':
		return embed && legal.Has(EscapedAt)
	}
	return false
}

func isDigit(ch int) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch int) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

func isLetter(ch int) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}
