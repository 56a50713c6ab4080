package field

// Raw holds the originally parsed octets of a header field, split at the
// colon when one was present. Objects of this type are immutable. The
// octets may still contain folding whitespace and encoded words.
type Raw struct {
	octets []byte // the complete field as parsed
	name   []byte // the octets ahead of the colon
	body   []byte // the octets after the colon, still folded and encoded
}

// String returns the Raw as a string.
func (f *Raw) String() string {
	return string(f.octets)
}

// Bytes returns the Raw octets.
func (f *Raw) Bytes() []byte {
	return f.octets
}

// Name returns the name part of the Raw. The value returned may be folded.
func (f *Raw) Name() string {
	return string(f.name)
}

// Body returns the body part of the Raw as a string. The value returned may
// be folded. A field parsed without a colon has an empty raw body.
func (f *Raw) Body() string {
	return string(f.body)
}
