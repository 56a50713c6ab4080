package header

import (
	"errors"
	"strings"
	"sync"
)

// Kind names the typed interpretation of a header field's body. The
// registry maps field names onto kinds; typed access through
// Header.GetTyped() uses the kind to select a parser.
type Kind int

const (
	// KindRaw is the fallback for unregistered fields: the body is an
	// uninterpreted string.
	KindRaw Kind = iota

	// KindText is unstructured text, possibly with encoded words.
	KindText

	// KindAddressList is a list of mailboxes and groups.
	KindAddressList

	// KindDate is an RFC 5322 date-time.
	KindDate

	// KindMediaType is a media type with parameters.
	KindMediaType

	// KindDisposition is a disposition token with parameters.
	KindDisposition

	// KindMessageID is a single message identifier.
	KindMessageID

	// KindMessageIDList is a list of message identifiers.
	KindMessageIDList

	// KindTransferEncoding is a content-transfer-encoding token.
	KindTransferEncoding

	// KindKeywords is a comma-separated keyword list.
	KindKeywords
)

// ErrRegistryFrozen is returned by Register after the registry has been
// frozen.
var ErrRegistryFrozen = errors.New("field registry is frozen")

// Registry maps field names, compared case-insensitively, to the Kind used
// for typed access and canonical generation. A Registry starts out mutable;
// once every custom field type is registered, Freeze() makes it permanently
// read-only. The registry used by default is frozen at package
// initialization with the standard RFC 5322 and MIME fields.
type Registry struct {
	mu     sync.RWMutex
	kinds  map[string]Kind
	frozen bool
}

// NewRegistry returns an empty, unfrozen registry.
func NewRegistry() *Registry {
	return &Registry{kinds: make(map[string]Kind, 20)}
}

// Register assigns a kind to a field name. It fails with ErrRegistryFrozen
// once the registry has been frozen.
func (r *Registry) Register(name string, k Kind) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return ErrRegistryFrozen
	}
	r.kinds[strings.ToLower(name)] = k
	return nil
}

// Freeze makes the registry permanently read-only.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Kind returns the kind registered for the named field or KindRaw when the
// name is unknown.
func (r *Registry) Kind(name string) Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, found := r.kinds[strings.ToLower(name)]
	if !found {
		return KindRaw
	}
	return k
}

// DefaultRegistry is the process-wide registry consulted by Header methods.
// It is seeded with the standard field set and frozen during package
// initialization. Hosts needing additional typed fields should build their
// own Registry and set it on the headers they work with via SetRegistry.
var DefaultRegistry = newDefaultRegistry()

func newDefaultRegistry() *Registry {
	r := NewRegistry()
	seed := map[string]Kind{
		Date:                    KindDate,
		From:                    KindAddressList,
		Sender:                  KindAddressList,
		ReplyTo:                 KindAddressList,
		To:                      KindAddressList,
		Cc:                      KindAddressList,
		Bcc:                     KindAddressList,
		Subject:                 KindText,
		Comments:                KindText,
		Keywords:                KindKeywords,
		MessageID:               KindMessageID,
		InReplyTo:               KindMessageIDList,
		References:              KindMessageIDList,
		ContentType:             KindMediaType,
		ContentTransferEncoding: KindTransferEncoding,
		ContentDisposition:      KindDisposition,
		ContentID:               KindMessageID,
		ContentLocation:         KindText,
	}
	for n, k := range seed {
		_ = r.Register(n, k)
	}
	r.Freeze()
	return r
}
