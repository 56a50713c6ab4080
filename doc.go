// Package vmime is a library for parsing, constructing, and generating
// Internet messages as described by RFC 5322 and the MIME family of RFCs
// (2045 through 2049, 2047 for encoded words, and 2231 for parameter
// continuations).
//
// The code is split according to part of message. A message is primarily
// treated as either a message.Opaque or a message.Multipart. The
// message.Opaque means this library simply treats the message body as an
// io.Reader and assigns no meaning to the contents. The message.Multipart
// breaks multipart messages up into sub-parts, which can then be dealt with
// separately. These will either be another message.Multipart that can be
// further broken up, a message.Encapsulated wrapping a message/rfc822 body,
// or a message.Opaque that is treated as an io.Reader.
//
// If you want to build new messages, a message.Buffer is provided that has
// the capability for creating either message.Opaque or message.Multipart or
// combinations of these. For the common case of sending a message with a
// text body, an HTML body with inline images, and attachments, the
// message/build package assembles the correct MIME structure from those
// logical inputs.
//
// If you want to read messages without caring how they are structured, the
// message/flatten package reduces any legal MIME tree to its text parts and
// attachments. The message/attachment package detects and adds attachments
// without requiring either overlay.
//
// For dealing with message headers, the high-level interface is provided via
// header.Header. Low-level access can be had by using header.Header to work
// directly with field.Field objects.
//
// As much as possible, this library preserves round-tripping: a message that
// is parsed and written back out remains byte-for-byte identical unless it
// is deliberately modified. Parsing is permissive and does not fail on
// malformed fields or bodies; generation is strict and emits conformant
// output.
package vmime
