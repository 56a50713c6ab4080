// Package message provides tools for basic message handling. This is the
// core of the library: the part tree, the parser that decomposes wire octets
// into that tree, the generator that walks the tree emitting octets, and the
// Buffer used to construct new messages.
//
// A message is either a leaf, represented by Opaque, a container of further
// parts, represented by Multipart, or a message/rfc822 envelope around a
// single nested message, represented by Encapsulated. All three implement
// the Part interface and a parsed message is returned as the Generic alias,
// ready for use in a type switch or via KindOf.
//
// Parsing is permissive: malformed headers, unknown transfer encodings, and
// broken multipart structure degrade the affected piece rather than failing
// the parse. Generation is strict and emits conformant output, including the
// verification that a multipart boundary never collides with the content of
// its parts.
package message
