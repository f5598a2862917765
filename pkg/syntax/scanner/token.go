package scanner

// Kind identifies a content token produced by Scan.
type Kind uint8

const (
	// TextChunk is a maximal run of literal text inside element content.
	TextChunk Kind = iota
	// EmbedTextChunk is a maximal run of literal text inside a typed text
	// element, where @{ opens an interpolation.
	EmbedTextChunk
	// Entity is a character reference: &name; &#10; or &#x0A;.
	Entity
	// EscapedLBrace is the two-character sequence \{.
	EscapedLBrace
	// EscapedRBrace is the two-character sequence \}.
	EscapedRBrace
	// EscapedAt is the two-character sequence \@ (embed mode only).
	EscapedAt

	kindCount
)

func (k Kind) String() string {
	switch k {
	case TextChunk:
		return "text_chunk"
	case EmbedTextChunk:
		return "embed_text_chunk"
	case Entity:
		return "entity"
	case EscapedLBrace:
		return "escaped_lbrace"
	case EscapedRBrace:
		return "escaped_rbrace"
	case EscapedAt:
		return "escaped_at"
	default:
		return "unknown"
	}
}

// Legality is the set of token kinds the host parser accepts at the current
// position. The zero value accepts nothing.
type Legality uint8

// Legal builds a legality set from the given kinds.
func Legal(kinds ...Kind) Legality {
	var l Legality
	for _, k := range kinds {
		l |= 1 << k
	}
	return l
}

// Has reports whether k is in the set.
func (l Legality) Has(k Kind) bool {
	return l&(1<<k) != 0
}

// Token is a committed, non-empty span of source text.
// Escape tokens are always exactly two bytes; entity tokens are at least
// three and end with a semicolon.
type Token struct {
	Kind  Kind
	Start int
	End   int
}

// Len returns the span length in bytes.
func (t Token) Len() int {
	return t.End - t.Start
}

// Text returns the token's bytes from the source it was scanned from.
func (t Token) Text(src []byte) string {
	return string(src[t.Start:t.End])
}
