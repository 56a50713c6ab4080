package transfer

import "bytes"

// maxLineLength is the longest line 7bit transport may carry.
const maxLineLength = 998

// Choose picks a Content-transfer-encoding for a body with the given
// content. The encoding is picked depending on the "nature" of the body: if
// it contains only 7-bit octets, no NULs, and no line longer than 998
// octets, it is written as-is as 7bit. If it has no NULs and fewer than a
// quarter of the octets have the 8th bit set, quoted-printable keeps the body
// mostly readable. Otherwise base64 is used.
func Choose(data []byte) string {
	eightBit := 0
	hasNul := false
	for _, c := range data {
		if c >= 0x80 {
			eightBit++
		}
		if c == 0 {
			hasNul = true
		}
	}

	if eightBit == 0 && !hasNul && !hasLongLine(data) {
		return Bit7
	}

	if hasNul || eightBit*4 >= len(data) {
		return Base64
	}

	return QuotedPrintable
}

func hasLongLine(data []byte) bool {
	for len(data) > 0 {
		ix := bytes.IndexByte(data, '\n')
		if ix < 0 {
			return len(data) > maxLineLength
		}
		if ix > maxLineLength {
			return true
		}
		data = data[ix+1:]
	}
	return false
}
