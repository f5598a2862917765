package diagnostics

import "github.com/vmihailenco/msgpack/v5"

var (
	_ msgpack.CustomEncoder = Severity(0)
	_ msgpack.CustomDecoder = (*Severity)(nil)
)

// EncodeMsgpack encodes the severity as its lowercase name, matching the JSON
// form.
func (s Severity) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.EncodeString(s.String())
}

// DecodeMsgpack parses a lowercase severity name.
func (s *Severity) DecodeMsgpack(dec *msgpack.Decoder) error {
	name, err := dec.DecodeString()
	if err != nil {
		return err
	}
	return s.UnmarshalText([]byte(name))
}
