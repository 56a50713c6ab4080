package message

import (
	"bytes"
	"math/rand"
	"strings"
)

var boundaryLetters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")

const boundaryLength = 30

// GenerateBoundary will generate a random MIME boundary that is probably
// unique in most circumstances.
func GenerateBoundary() string {
	s := make([]rune, boundaryLength)
	for i := range s {
		s[i] = boundaryLetters[rand.Intn(len(boundaryLetters))]
	}
	return string(s)
}

// GenerateSafeBoundary will generate a random MIME boundary that is
// guaranteed to be safe with the given corpus of data. Use this when you
// want to generate a boundary for a known set of parts:
//
//	boundary := message.GenerateSafeBoundary(partContent)
func GenerateSafeBoundary(contents string) string {
	for {
		boundary := GenerateBoundary()
		if !strings.Contains(contents, boundary) {
			return boundary
		}
	}
}

// boundaryCollides reports whether the delimiter for the given boundary
// appears as a line prefix anywhere in the given content. A multipart
// message generated with such a boundary would not parse back into the same
// parts.
func boundaryCollides(content []byte, boundary string) bool {
	delim := []byte("--" + boundary)
	if bytes.HasPrefix(content, delim) {
		return true
	}
	for _, nl := range []string{"\n", "\r"} {
		if bytes.Contains(content, append([]byte(nl), delim...)) {
			return true
		}
	}
	return false
}
