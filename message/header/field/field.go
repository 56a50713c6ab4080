// Package field provides the low-level representation of message header
// fields together with the octet-level codecs that header values depend on:
// line folding and unfolding, RFC 2047 encoded words, and the Q and B
// encodings.
package field

import "fmt"

// Base implements a header field with a baseline implementation that does not
// implement folding. The body holds the logical, decoded value stored as a
// string.
type Base struct {
	name string
	body string
}

// Name returns the name of the header field.
func (f *Base) Name() string {
	return f.name
}

// SetName updates the name of the header field.
func (f *Base) SetName(name string) {
	f.name = name
}

// Body returns the value of the header field as a string.
func (f *Base) Body() string {
	return f.body
}

// SetBody updates the body of the header field.
func (f *Base) SetBody(body string) {
	f.body = body
}

// String returns the complete header field as a string, encoding the body as
// needed to keep it 7-bit safe.
func (f *Base) String() string {
	return fmt.Sprintf("%s: %s", f.name, Encode(f.body))
}

// Bytes returns the complete header field as a slice of bytes.
func (f *Base) Bytes() []byte {
	return []byte(f.String())
}

// Field manages a single header field. Every Field contains name and body
// values from the embedded Base object. In addition, it may also contain an
// even lower-level representation in Raw. This allows the object to maintain
// a decoded logical value as well as the original encoded octets for
// byte-for-byte round-tripping.
//
// The Name() and Body() methods always surface the Base field. The String()
// and Bytes() methods work on the Raw field if present and fall back to the
// Base field if not. SetName() and SetBody() update Base and clear Raw.
type Field struct {
	Base
	*Raw
}

// New constructs a new field with no original value.
func New(name, body string) *Field {
	return &Field{Base{name, body}, nil}
}

// String returns Raw.String() if Raw is not nil and Base.String() otherwise.
func (f *Field) String() string {
	if f.Raw != nil {
		return f.Raw.String()
	}
	return f.Base.String()
}

// Bytes returns Raw.Bytes() if Raw is not nil and Base.Bytes() otherwise.
func (f *Field) Bytes() []byte {
	if f.Raw != nil {
		return f.Raw.Bytes()
	}
	return f.Base.Bytes()
}

// Name returns the Base.Name().
func (f *Field) Name() string {
	return f.Base.Name()
}

// Body returns the Base.Body().
func (f *Field) Body() string {
	return f.Base.Body()
}

// SetName sets the name of the field. Calling this also clears Raw.
func (f *Field) SetName(n string) {
	f.Raw = nil
	f.Base.SetName(n)
}

// SetBody sets the body of the field. Calling this also clears Raw.
func (f *Field) SetBody(b string) {
	f.Raw = nil
	f.Base.SetBody(b)
}

// Clone returns a copy of this field. The Raw value, being immutable, is
// shared with the copy.
func (f *Field) Clone() *Field {
	return &Field{f.Base, f.Raw}
}
