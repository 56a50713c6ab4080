package field

import (
	"bytes"
	"errors"
	"io"
	"strings"
)

const (
	DefaultFoldIndent          = " "  // indent placed before folded lines
	DefaultPreferredFoldLength = 80   // output lines should be shorter than this
	DefaultForcedFoldLength    = 1000 // output lines must be shorter than this

	DoNotFold = -1 // we prefer not to fold at all
)

var (
	// DefaultFoldEncoding creates a new FoldEncoding using default settings.
	// This keeps output lines at or under 78 octets where possible and never
	// allows one past 998 octets, as RFC 5322 requires.
	DefaultFoldEncoding = &FoldEncoding{
		DefaultFoldIndent,
		DefaultPreferredFoldLength,
		DefaultForcedFoldLength,
	}

	// DoNotFoldEncoding is a FoldEncoding that doesn't perform folding. It is
	// used for parsed headers so the original octets round-trip unmodified.
	DoNotFoldEncoding = &FoldEncoding{
		DefaultFoldIndent,
		DoNotFold,
		DoNotFold,
	}
)

var (
	// ErrFoldIndentSpace is returned by NewFoldEncoding when a
	// non-space/non-tab character is put in the foldIndent setting.
	ErrFoldIndentSpace = errors.New("fold indent may only contain spaces and tabs")

	// ErrFoldIndentTooShort is returned by NewFoldEncoding when the
	// foldIndent is empty.
	ErrFoldIndentTooShort = errors.New("fold indent must contain at least one space or tab")

	// ErrFoldIndentTooLong is returned by NewFoldEncoding when the foldIndent
	// setting is equal to or longer than the preferredFoldLength.
	ErrFoldIndentTooLong = errors.New("fold indent must be shorter than the preferred fold length")

	// ErrFoldLengthTooLong is returned by NewFoldEncoding when the
	// preferredFoldLength is longer than the forcedFoldLength.
	ErrFoldLengthTooLong = errors.New("preferred fold length must be no longer than the forced fold length")

	// ErrFoldLengthTooShort is returned by NewFoldEncoding when either fold
	// length is shorter than 3 bytes long.
	ErrFoldLengthTooShort = errors.New("preferred fold length and forced fold length cannot be too short")

	// ErrDoNotFold is returned by NewFoldEncoding when only one of
	// preferredFoldLength and forcedFoldLength is set to DoNotFold.
	ErrDoNotFold = errors.New("preferred fold length and forced fold length must both be -1 if either are -1")
)

// Break is the line break in use while folding, as bytes.
type Break []byte

// FoldEncoding provides the tooling for folding message headers.
type FoldEncoding struct {
	foldIndent          string
	preferredFoldLength int
	forcedFoldLength    int
}

// NewFoldEncoding creates a new FoldEncoding with the given settings. The
// foldIndent must be a string of one or more space or tab characters and it
// must be shorter than the preferredFoldLength. The preferredFoldLength must
// be equal to or less than forcedFoldLength. If any of the given inputs do
// not meet these requirements, an error is returned.
//
// The fold encoding does nothing special to ensure that no folding occurs
// before the colon. It relies on the assumption that the fold lengths chosen
// will be wider than the longest field name.
func NewFoldEncoding(
	foldIndent string,
	preferredFoldLength,
	forcedFoldLength int,
) (*FoldEncoding, error) {
	if ix := strings.IndexFunc(foldIndent, func(c rune) bool { return !isSpace(c) }); ix >= 0 {
		return nil, ErrFoldIndentSpace
	}

	if len(foldIndent) < 1 {
		return nil, ErrFoldIndentTooShort
	}

	if (preferredFoldLength == DoNotFold) != (forcedFoldLength == DoNotFold) {
		return nil, ErrDoNotFold
	}

	if preferredFoldLength != DoNotFold {
		if len(foldIndent) >= preferredFoldLength {
			return nil, ErrFoldIndentTooLong
		}

		if preferredFoldLength > forcedFoldLength {
			return nil, ErrFoldLengthTooLong
		}

		if preferredFoldLength < 3 || forcedFoldLength < 3 {
			return nil, ErrFoldLengthTooShort
		}
	}

	return &FoldEncoding{foldIndent, preferredFoldLength, forcedFoldLength}, nil
}

// Unfold will take a folded header line and unfold it for reading. This
// gives you the proper header body value. One whitespace octet per fold is
// already present in the input, so only the line break octets are removed.
func (vf *FoldEncoding) Unfold(f []byte) []byte {
	uf := make([]byte, 0, len(f))
	for _, c := range f {
		switch c {
		case '\r', '\n':
		default:
			uf = append(uf, c)
		}
	}
	return uf
}

func isSpace(c rune) bool { return c == ' ' || c == '\t' }

// foldWriter counts the octets written and holds the first write error so
// the folding loops don't have to thread either around.
type foldWriter struct {
	out io.Writer
	n   int64
	err error
}

func (w *foldWriter) write(p []byte) {
	if w.err != nil {
		return
	}
	n, err := w.out.Write(p)
	w.n += int64(n)
	w.err = err
}

// Fold writes the given field value folded for output. Folding works on
// whitespace-delimited chunks: each physical line is packed with as many
// chunks as fit under the preferred length, and a fold replaces the
// whitespace ahead of the chunk it breaks at with the line break and the
// fold indent. Chunks never break internally unless a single chunk cannot
// fit under the forced length on a line of its own, so an encoded word,
// which contains no folding whitespace, always travels whole.
//
// Input that already contains line breaks is refolded line by line, which
// keeps a partially folded value properly indented without folding it
// twice.
//
// Returns the number of octets written and the first write error, if any.
func (vf *FoldEncoding) Fold(out io.Writer, f []byte, lb Break) (int64, error) {
	w := &foldWriter{out: out}

	// short fields and the do-not-fold encoding pass through unchanged
	if vf.preferredFoldLength == DoNotFold || len(f) <= vf.preferredFoldLength-2 {
		w.write(f)
		w.write(lb)
		return w.n, w.err
	}

	// reserve room for the line break itself on every physical line
	softMax := vf.preferredFoldLength - 2
	hardMax := vf.forcedFoldLength - 2

	for _, line := range bytes.Split(f, lb) {
		vf.foldLine(w, line, lb, softMax, hardMax)
	}

	return w.n, w.err
}

// foldLine writes one logical line as one or more physical lines.
func (vf *FoldEncoding) foldLine(w *foldWriter, line []byte, lb Break, softMax, hardMax int) {
	written := 0

	openLine := func() {
		w.write([]byte(vf.foldIndent))
		written = len(vf.foldIndent)
	}
	endLine := func() {
		w.write(lb)
		written = 0
	}

	first := true
	for ix := 0; ix < len(line); {
		// a chunk is a run of whitespace and the word that follows it
		start := ix
		for ix < len(line) && isSpace(rune(line[ix])) {
			ix++
		}
		wordStart := ix
		for ix < len(line) && !isSpace(rune(line[ix])) {
			ix++
		}

		if first {
			// the opening of the logical line is never folded away from its
			// field name, whitespace and all
			w.write(line[start:ix])
			written = ix - start
			first = false
			continue
		}

		if written > 0 && written+(ix-start) <= softMax {
			w.write(line[start:ix])
			written += ix - start
			continue
		}

		// fold ahead of this chunk; the indent stands in for its whitespace
		if written > 0 {
			endLine()
		}
		openLine()

		word := line[wordStart:ix]
		if written+len(word) > hardMax {
			// an unbreakable run that cannot fit on a line of its own has to
			// be cut; once cutting, cut at the preferred length
			for len(word) > softMax-written {
				cut := softMax - written
				w.write(word[:cut])
				word = word[cut:]
				endLine()
				openLine()
			}
		}
		w.write(word)
		written += len(word)
	}
	endLine()
}
