package header

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/zostay/go-addr/pkg/addr"

	"github.com/josusky/vmime/message/header/field"
	"github.com/josusky/vmime/message/header/param"
)

// Errors returned by various header methods and functions.
var (
	// ErrNoSuchField is returned by Header methods when the operation being
	// performed failed because the header named does not exist.
	ErrNoSuchField = errors.New("no such header field")

	// ErrNoSuchFieldParameter is returned by Header methods when the
	// operation being performed failed because the header exists, but a
	// sub-field of the header does not exist.
	ErrNoSuchFieldParameter = errors.New("no such header field parameter")

	// ErrManyFields is returned by Header methods when the operation being
	// performed failed because there are multiple fields with the given
	// name.
	ErrManyFields = errors.New("many header fields found")

	// ErrWrongAddressType is returned by address setting methods that accept
	// either a string or an addr.AddressList when something other than those
	// types is provided.
	ErrWrongAddressType = errors.New("incorrect address type during write")
)

// These are standard headers defined in RFC 5322 and the MIME RFCs.
const (
	Bcc                     = "Bcc"
	Cc                      = "Cc"
	Comments                = "Comments"
	ContentDisposition      = "Content-disposition"
	ContentID               = "Content-id"
	ContentLocation         = "Content-location"
	ContentTransferEncoding = "Content-transfer-encoding"
	ContentType             = "Content-type"
	Date                    = "Date"
	From                    = "From"
	InReplyTo               = "In-reply-to"
	Keywords                = "Keywords"
	MessageID               = "Message-id"
	MIMEVersion             = "MIME-Version"
	References              = "References"
	ReplyTo                 = "Reply-to"
	Sender                  = "Sender"
	Subject                 = "Subject"
	To                      = "To"
)

// DefaultContentType is the effective media type of a part that carries no
// Content-type field.
const DefaultContentType = "text/plain; charset=us-ascii"

// Even more custom date formats, built from those seen in the wild that the
// usual parsers have trouble with.
const (
	// UnixDateWithEarlyYear is a weird one, eh?
	UnixDateWithEarlyYear = "Mon Jan 02 15:04:05 2006 MST"
)

// Header wraps a Base, which does the actual storage and low-level field
// manipulation. This provides several methods to make reading and
// manipulating the header more convenient and some caching for complex
// values parsed from header fields.
//
// The getter methods of this object will return an error if the field being
// fetched has not been set on the header. The error returned will be
// ErrNoSuchField.
type Header struct {
	// Base provides the low-level storage of header fields.
	Base

	// registry selects the typed interpretation of each field for
	// GetTyped(). When nil, DefaultRegistry applies.
	registry *Registry

	// valueCache holds the semantic value for a header. We assume that all
	// headers that have a semantic value are singular, which is safe for
	// content-type, content-disposition, from, to, date, cc, bcc, etc.
	//
	// REMEMBER: This must only be used to hold "immutable" types. If a type
	// can be modified outside, we can have inconsistencies between what is
	// stored in valueCache and what is set in the Base.
	valueCache map[string]any
}

// Clone returns a deep copy of the header object.
func (h *Header) Clone() *Header {
	// the value cache objects are immutable, so they may be copied as-is
	vc := make(map[string]any, len(h.valueCache))
	for k, v := range h.valueCache {
		vc[k] = v
	}

	return &Header{
		Base:       *h.Base.Clone(),
		registry:   h.registry,
		valueCache: vc,
	}
}

// Registry returns the field registry this header consults for typed
// access.
func (h *Header) Registry() *Registry {
	if h.registry == nil {
		return DefaultRegistry
	}
	return h.registry
}

// SetRegistry replaces the field registry this header consults for typed
// access. Passing nil restores DefaultRegistry.
func (h *Header) SetRegistry(r *Registry) {
	h.registry = r
}

// getValue retrieves the cached value. The second value is true if a cached
// value was set.
func (h *Header) getValue(name string) (any, bool) {
	n := strings.ToLower(name)
	v, found := h.valueCache[n]
	return v, found
}

// setValue replaces the cached value for the given name.
func (h *Header) setValue(name string, value any) {
	if h.valueCache == nil {
		h.valueCache = make(map[string]any, h.Len())
	}
	n := strings.ToLower(name)
	h.valueCache[n] = value
}

// dropValue invalidates the cached value for the given name.
func (h *Header) dropValue(name string) {
	delete(h.valueCache, strings.ToLower(name))
}

// Get retrieves the string value of the named field.
//
// If the named field is not set in the header, it will return an empty
// string with ErrNoSuchField. If there are multiple headers for the given
// named field, it will return the first value found and return
// ErrManyFields.
func (h *Header) Get(name string) (string, error) {
	ixs := h.GetIndexesNamed(name)
	if len(ixs) == 0 {
		return "", ErrNoSuchField
	}

	b := h.GetField(ixs[0]).Body()
	if len(ixs) > 1 {
		return b, ErrManyFields
	}

	return b, nil
}

// ParseTime is the time parsing used by GetTime() and GetDate(). It first
// attempts the format specified by RFC 5322, including the obsolete forms
// (two-digit years, named zones), and falls back to parsing in many other
// formats seen in the wild.
//
// It either returns a parsed time or the parse error from the last resort.
func ParseTime(body string) (time.Time, error) {
	t, err := mail.ParseDate(body)
	if err == nil {
		return t, nil
	}

	t, err = dateparse.ParseAny(body)
	if err == nil {
		return t, nil
	}

	t, err = time.Parse(UnixDateWithEarlyYear, body)
	if err == nil {
		return t, nil
	}

	return t, fmt.Errorf("time string %q cannot be parsed", body)
}

// getTime parses the header body as a date and caches the result.
func (h *Header) getTime(name string) (time.Time, error) {
	body, err := h.Get(name)
	if err != nil {
		return time.Time{}, err
	}

	t, err := ParseTime(body)
	if err != nil {
		return t, err
	}

	h.setValue(name, t)

	return t, nil
}

// GetTime gets the given date header field as a time.Time. It will attempt
// to parse the date in many formats, not just the format specified by RFC
// 5322 (though, it will try that first).
//
// It will return an error if it is unable to parse the time value from the
// date header. It will return the zero value and ErrNoSuchField if the
// header does not exist.
func (h *Header) GetTime(name string) (time.Time, error) {
	v, found := h.getValue(name)
	if !found {
		return h.getTime(name)
	}

	t, isTime := v.(time.Time)
	if !isTime {
		return h.getTime(name)
	}

	return t, nil
}

// ParseAddressList provides the address parsing built into GetAddressList()
// and can be used to parse any field body. It will attempt a strict parse of
// the email address list. However, if that fails, an extremely lenient
// parsing will be attempted, in the effort to provide some kind of result.
// It is so forgiving, it will return some kind of value for any input.
func ParseAddressList(body string) addr.AddressList {
	al, err := addr.ParseEmailAddressList(body)
	if err != nil {
		al = parseEmailAddressList(body)
	}

	return al
}

// getAddressList will parse an addr.AddressList out of the field.
func (h *Header) getAddressList(name string) (addr.AddressList, error) {
	body, err := h.Get(name)
	if err != nil {
		return nil, err
	}

	al := ParseAddressList(body)
	h.setValue(name, al)

	return al, nil
}

// GetAddressList will return an addr.AddressList for the named field. This
// method works hard to avoid parse errors and tries to accept anything. As
// such a badly formatted address field might return a weird address value.
//
// It will return nil and ErrNoSuchField if the field is not set on the
// header.
func (h *Header) GetAddressList(name string) (addr.AddressList, error) {
	v, found := h.getValue(name)
	if !found {
		return h.getAddressList(name)
	}

	al, isAddrList := v.(addr.AddressList)
	if !isAddrList {
		return h.getAddressList(name)
	}

	return al, nil
}

// getAllAddressLists will return a slice of addr.AddressList for all headers
// with the given name.
func (h *Header) getAllAddressLists(name string) ([]addr.AddressList, error) {
	bs, err := h.GetAll(name)
	if err != nil {
		return nil, err
	}

	allAl := make([]addr.AddressList, 0, len(bs))
	for _, b := range bs {
		al := ParseAddressList(b)
		allAl = append(allAl, al)
	}

	h.setValue(name, allAl)

	return allAl, nil
}

// GetAllAddressLists will return a slice of addr.AddressList for all headers
// with the given name.
//
// If the named field does not exist in the header, this will return nil with
// ErrNoSuchField.
func (h *Header) GetAllAddressLists(name string) ([]addr.AddressList, error) {
	v, found := h.getValue(name)
	if !found {
		return h.getAllAddressLists(name)
	}

	als, isAddrLists := v.([]addr.AddressList)
	if !isAddrLists {
		return h.getAllAddressLists(name)
	}

	return als, nil
}

// getParamValue will parse a param.Value out of the given field.
func (h *Header) getParamValue(name string) (*param.Value, error) {
	body, err := h.Get(name)
	if err != nil {
		return nil, err
	}

	pv, err := param.Parse(body)
	if err != nil {
		return nil, err
	}

	h.setValue(name, pv)

	return pv, nil
}

// GetParamValue will return a param.Value for the header field matching the
// given name.
//
// This will return an error if it is unable to parse a param.Value. It will
// return ErrNoSuchField if no field with the given name is present.
func (h *Header) GetParamValue(name string) (*param.Value, error) {
	v, found := h.getValue(name)
	if !found {
		return h.getParamValue(name)
	}

	pv, isPV := v.(*param.Value)
	if !isPV {
		return h.getParamValue(name)
	}

	if pv == nil {
		return pv, nil
	}

	// return a copy to prevent the cached value from being modified
	return pv.Clone(), nil
}

// GetWords returns the named field body as a sequence of charset-tagged
// words. For a field parsed from wire octets, the words reflect the encoded
// words of the original; for a field set programmatically, a single utf-8
// word holds the whole body.
//
// It returns nil and ErrNoSuchField if the field is not set on the header.
func (h *Header) GetWords(name string) (field.Words, error) {
	ixs := h.GetIndexesNamed(name)
	if len(ixs) == 0 {
		return nil, ErrNoSuchField
	}

	f := h.GetField(ixs[0])
	var ws field.Words
	if f.Raw != nil {
		body := strings.TrimSpace(string(field.DefaultFoldEncoding.Unfold([]byte(f.Raw.Body()))))
		ws = field.DecodeWords(body)
	} else {
		ws = field.Words{{Charset: "utf-8", Content: []byte(f.Body())}}
	}

	if len(ixs) > 1 {
		return ws, ErrManyFields
	}
	return ws, nil
}

// GetConvertedText returns the logical text of the named field transcoded
// into the given character set.
func (h *Header) GetConvertedText(name, charset string) ([]byte, error) {
	ws, err := h.GetWords(name)
	if err != nil && !errors.Is(err, ErrManyFields) {
		return nil, err
	}
	return ws.ConvertedText(charset)
}

// getKeywordsList will return keywords for all header fields with the given
// name.
func (h *Header) getKeywordsList(name string) ([]string, error) {
	bs, err := h.GetAll(name)
	if err != nil {
		return nil, err
	}

	allKs := make([]string, 0, len(bs)*2)
	for _, b := range bs {
		ks := strings.Split(b, ",")
		for _, k := range ks {
			nextK := strings.TrimSpace(k)
			if nextK != "" {
				allKs = append(allKs, nextK)
			}
		}
	}

	h.setValue(name, allKs)

	return allKs, nil
}

// GetKeywordsList will return a list of strings representing all the
// keywords set on the named header. There can be zero or more such headers,
// each a comma-separated list. This collects the values from all of them.
//
// This method will return nil with ErrNoSuchField if the named field does
// not exist.
func (h *Header) GetKeywordsList(name string) ([]string, error) {
	v, found := h.getValue(name)
	if !found {
		return h.getKeywordsList(name)
	}

	ks, isStringSlice := v.([]string)
	if !isStringSlice {
		return h.getKeywordsList(name)
	}

	return ks, nil
}

// getAll fetches all the header field bodies for fields with the given name.
func (h *Header) getAll(name string) ([]string, error) {
	fs := h.GetAllFieldsNamed(name)
	if len(fs) == 0 {
		return nil, ErrNoSuchField
	}

	bs := make([]string, len(fs))
	for i, f := range fs {
		bs[i] = f.Body()
	}

	h.setValue(name, bs)

	return bs, nil
}

// GetAll fetches all the header field bodies for fields with the given name
// and returns them as a slice of strings.
//
// It returns nil with ErrNoSuchField if no field with the given name is set
// on the header.
func (h *Header) GetAll(name string) ([]string, error) {
	v, found := h.getValue(name)
	if !found {
		return h.getAll(name)
	}

	ss, isStringSlice := v.([]string)
	if !isStringSlice {
		return h.getAll(name)
	}

	return ss, nil
}

// SetAll replaces all the header fields with the given name with the bodies
// given. After a successful completion of this method, the field with the
// given name will occur exactly len(bodies) times in the header. Existing
// fields have their bodies replaced in place; new fields are appended.
func (h *Header) SetAll(name string, bodies ...string) {
	h.dropValue(name)
	ixs := h.GetIndexesNamed(name)

	for i, b := range bodies {
		if i < len(ixs) {
			f := h.GetField(ixs[i])
			f.SetBody(b)
			continue
		}

		h.InsertBeforeField(h.Len(), name, b)
	}

	if len(ixs) > len(bodies) {
		for i := len(ixs) - 1; i >= len(bodies); i-- {
			_ = h.DeleteField(ixs[i])
		}
	}
}

// SetKeywordsList will replace all the named headers currently set in the
// header with one header with all the given keywords separated by a comma.
func (h *Header) SetKeywordsList(name string, keywords ...string) {
	bodyStr := strings.Join(keywords, ", ")
	h.Set(name, bodyStr)
	h.setValue(name, keywords)
}

// Set will replace all existing header fields with the given name with a
// single header field with the given name and body. If the field already
// exists on the header, then the first occurrence will be replaced with this
// value and any other values will be deleted. If the field does not exist,
// it will be appended to the end of the header.
func (h *Header) Set(name, body string) {
	h.dropValue(name)

	ixs := h.GetIndexesNamed(name)

	if len(ixs) == 0 {
		h.InsertBeforeField(h.Len(), name, body)
		return
	}

	if len(ixs) > 1 {
		for i := len(ixs) - 1; i > 0; i-- {
			_ = h.DeleteField(ixs[i])
		}
	}

	f := h.GetField(ixs[0])
	f.SetName(name)
	f.SetBody(body)
}

// Delete removes every field with the given name from the header. Deleting
// a name that is not present is a no-op.
func (h *Header) Delete(name string) {
	h.dropValue(name)
	ixs := h.GetIndexesNamed(name)
	for i := len(ixs) - 1; i >= 0; i-- {
		_ = h.DeleteField(ixs[i])
	}
}

// SetTime will replace all existing header fields with the given name with a
// single header field with the given name and time. The time will be
// formatted per RFC 5322.
func (h *Header) SetTime(name string, body time.Time) {
	bodyStr := body.Format(time.RFC1123Z)
	h.Set(name, bodyStr)
	h.setValue(name, body)
}

// SetAddressList will replace all existing header fields with the given name
// with a single header containing the given addr.AddressList.
func (h *Header) SetAddressList(name string, body ...addr.Address) {
	bodyStr := addr.AddressList(body).String()
	h.Set(name, bodyStr)
	h.setValue(name, addr.AddressList(body))
}

// SetAllAddressLists will replace all existing header fields with a new set
// of header fields from the given slice of addr.AddressList.
func (h *Header) SetAllAddressLists(name string, bodies ...addr.AddressList) {
	strs := make([]string, len(bodies))
	for i, body := range bodies {
		strs[i] = body.String()
	}
	h.SetAll(name, strs...)
	h.setValue(name, bodies)
}

// SetParamValue will replace all existing header fields with the given name
// with a single header containing the given param.Value.
func (h *Header) SetParamValue(name string, body *param.Value) {
	bodyStr := body.String()
	h.Set(name, bodyStr)
	h.setValue(name, body)
}

// getParamValueValue reads the primary value of the param.Value header.
func (h *Header) getParamValueValue(name string) (string, error) {
	pv, err := h.GetParamValue(name)
	if err != nil {
		return "", err
	}

	return pv.Value(), nil
}

// setParamValueValue sets the primary value of the param.Value header.
func (h *Header) setParamValueValue(name, v string) {
	// make sure we cannot get an ErrManyFields first
	ixs := h.GetIndexesNamed(name)
	for i := len(ixs) - 1; i > 0; i-- {
		_ = h.DeleteField(ixs[i])
	}

	pv, err := h.GetParamValue(name)
	if err != nil {
		// we got an error, just overwrite the whole header
		pv = param.New(v)
	} else {
		// preserve everything else and update
		pv = param.Modify(pv, param.Change(v))
	}

	h.SetParamValue(name, pv)
}

// getParamValueParam gets a parameter value of the param.Value header.
func (h *Header) getParamValueParam(name, p string) (string, error) {
	pv, err := h.GetParamValue(name)
	if err != nil {
		return "", err
	}

	if v := pv.Parameter(p); v != "" {
		return v, nil
	}

	return "", ErrNoSuchFieldParameter
}

// setParamValueParam sets a parameter value of the param.Value header. The
// header must already exist before calling this method.
func (h *Header) setParamValueParam(name, p, v string) error {
	pv, err := h.GetParamValue(name)
	if err != nil {
		return err
	}

	newPv := param.Modify(pv, param.Set(p, v))
	h.SetParamValue(name, newPv)

	return nil
}

// GetContentType returns the Content-type header as a param.Value.
//
// It returns nil and ErrNoSuchField if the field is not set on the header.
func (h *Header) GetContentType() (*param.Value, error) {
	return h.GetParamValue(ContentType)
}

// SetContentType replaces the Content-type with the given param.Value.
func (h *Header) SetContentType(v *param.Value) {
	h.SetParamValue(ContentType, v)
}

// EffectiveContentType returns the Content-type of the message or, when the
// field is absent or unparseable, the default for Internet messages,
// "text/plain; charset=us-ascii".
func (h *Header) EffectiveContentType() *param.Value {
	pv, err := h.GetParamValue(ContentType)
	if err != nil || pv == nil {
		pv, _ = param.Parse(DefaultContentType)
	}
	return pv
}

// GetMediaType returns the MIME type set in the Content-type header (other
// parameters will not be returned).
//
// It returns an empty string and ErrNoSuchField if the field is not set on
// the header.
func (h *Header) GetMediaType() (string, error) {
	return h.getParamValueValue(ContentType)
}

// SetMediaType replaces the MIME type on the Content-type header, creating
// it if it has not been set yet. If the Content-type header already exists,
// any other parameters already set will be preserved.
func (h *Header) SetMediaType(mt string) {
	h.setParamValueValue(ContentType, mt)
}

// GetCharset gets the charset parameter of the Content-type header field.
//
// This method returns an empty string with ErrNoSuchField if no field is
// present in the header and with ErrNoSuchFieldParameter if the field is
// present, but the parameter is not set on the field.
func (h *Header) GetCharset() (string, error) {
	return h.getParamValueParam(ContentType, param.Charset)
}

// SetCharset sets the charset on the Content-type header.
//
// This method fails with ErrNoSuchField if the field is not set on the
// header.
func (h *Header) SetCharset(c string) error {
	return h.setParamValueParam(ContentType, param.Charset, c)
}

// GetBoundary gets the boundary parameter of the Content-type header field.
//
// This method returns an empty string with ErrNoSuchField if no field is
// present in the header and with ErrNoSuchFieldParameter if the field is
// present, but the parameter is not set on the field.
func (h *Header) GetBoundary() (string, error) {
	return h.getParamValueParam(ContentType, param.Boundary)
}

// SetBoundary sets the boundary on the Content-type header.
//
// This method fails with ErrNoSuchField if the field is not set on the
// header.
func (h *Header) SetBoundary(b string) error {
	return h.setParamValueParam(ContentType, param.Boundary, b)
}

// GetContentDisposition returns the Content-disposition header as a
// param.Value.
//
// It returns nil and ErrNoSuchField if the field is not set on the header.
func (h *Header) GetContentDisposition() (*param.Value, error) {
	return h.GetParamValue(ContentDisposition)
}

// SetContentDisposition sets the Content-disposition to a new value from a
// param.Value.
func (h *Header) SetContentDisposition(v *param.Value) {
	h.SetParamValue(ContentDisposition, v)
}

// GetPresentation returns the primary value of the Content-disposition
// header, describing what the function of this part of the message is,
// usually either "inline" or "attachment".
func (h *Header) GetPresentation() (string, error) {
	return h.getParamValueValue(ContentDisposition)
}

// SetPresentation sets the disposition value of the Content-disposition
// header field, preserving any parameters already set.
func (h *Header) SetPresentation(d string) {
	h.setParamValueValue(ContentDisposition, d)
}

// GetFilename gets the filename parameter of the Content-disposition header.
func (h *Header) GetFilename() (string, error) {
	return h.getParamValueParam(ContentDisposition, param.Filename)
}

// SetFilename sets the filename parameter of the Content-disposition header.
//
// This method fails with ErrNoSuchField if the field is not set on the
// header.
func (h *Header) SetFilename(f string) error {
	return h.setParamValueParam(ContentDisposition, param.Filename, f)
}

// GetDate retrieves the Date header as a time.Time value.
func (h *Header) GetDate() (time.Time, error) {
	return h.GetTime(Date)
}

// SetDate updates the Date header from the given time.Time value.
func (h *Header) SetDate(d time.Time) {
	h.SetTime(Date, d)
}

// GetSubject returns the value of the Subject header field.
func (h *Header) GetSubject() (string, error) {
	return h.Get(Subject)
}

// SetSubject replaces the Subject header field.
func (h *Header) SetSubject(s string) {
	h.Set(Subject, s)
}

// setAddress allows the setting of an address field either from strings or
// from addr.Address values or fails with an error.
func (h *Header) setAddress(n string, as []any) error {
	var al addr.AddressList
	for _, a := range as {
		switch v := a.(type) {
		case string:
			add, err := addr.ParseEmailAddress(v)
			if err != nil {
				return err
			}
			al = append(al, add)
		case addr.Address:
			al = append(al, v)
		default:
			return ErrWrongAddressType
		}
	}
	h.SetAddressList(n, al...)
	return nil
}

// GetTo returns the To address field as an addr.AddressList.
func (h *Header) GetTo() (addr.AddressList, error) {
	return h.GetAddressList(To)
}

// SetTo sets the To address field with any mix of addr.Address values and
// strings. A string that fails to strictly parse results in an error.
func (h *Header) SetTo(a ...any) error {
	return h.setAddress(To, a)
}

// GetCc returns the Cc address field as an addr.AddressList.
func (h *Header) GetCc() (addr.AddressList, error) {
	return h.GetAddressList(Cc)
}

// SetCc sets the Cc address field with any mix of addr.Address values and
// strings.
func (h *Header) SetCc(a ...any) error {
	return h.setAddress(Cc, a)
}

// GetBcc returns the Bcc address field as an addr.AddressList.
func (h *Header) GetBcc() (addr.AddressList, error) {
	return h.GetAddressList(Bcc)
}

// SetBcc sets the Bcc address field with any mix of addr.Address values and
// strings.
func (h *Header) SetBcc(a ...any) error {
	return h.setAddress(Bcc, a)
}

// GetFrom returns the From address field as an addr.AddressList.
func (h *Header) GetFrom() (addr.AddressList, error) {
	return h.GetAddressList(From)
}

// SetFrom sets the From address field with any mix of addr.Address values
// and strings.
func (h *Header) SetFrom(a ...any) error {
	return h.setAddress(From, a)
}

// GetReplyTo returns the Reply-to address field as an addr.AddressList.
func (h *Header) GetReplyTo() (addr.AddressList, error) {
	return h.GetAddressList(ReplyTo)
}

// SetReplyTo sets the Reply-to address field with any mix of addr.Address
// values and strings.
func (h *Header) SetReplyTo(a ...any) error {
	return h.setAddress(ReplyTo, a)
}

// GetSender returns the address list in the Sender header, if any.
func (h *Header) GetSender() (addr.AddressList, error) {
	return h.GetAddressList(Sender)
}

// SetSender sets the Sender address field with any mix of addr.Address
// values and strings.
func (h *Header) SetSender(a ...any) error {
	return h.setAddress(Sender, a)
}

// GetKeywords returns all the keywords set on all the Keywords fields.
func (h *Header) GetKeywords() ([]string, error) {
	return h.GetKeywordsList(Keywords)
}

// SetKeywords sets keywords on the Keywords header.
func (h *Header) SetKeywords(ks ...string) {
	h.SetKeywordsList(Keywords, ks...)
}

// GetComments returns the content of the Comments header fields.
func (h *Header) GetComments() ([]string, error) {
	return h.GetAll(Comments)
}

// SetComments replaces all Comments fields with the given bodies.
func (h *Header) SetComments(cs ...string) {
	h.SetAll(Comments, cs...)
}

// GetReferences returns the message IDs in the References header, if any.
func (h *Header) GetReferences() (string, error) {
	return h.Get(References)
}

// SetReferences sets the message IDs to store in the References header.
func (h *Header) SetReferences(ref string) {
	h.Set(References, ref)
}

// GetInReplyTo returns the message ID in the In-reply-to header, if any.
func (h *Header) GetInReplyTo() (string, error) {
	return h.Get(InReplyTo)
}

// SetInReplyTo sets the message ID in the In-reply-to header.
func (h *Header) SetInReplyTo(ref string) {
	h.Set(InReplyTo, ref)
}

// GetMessageID returns the Message ID found in the Message-id header, if
// any, with its surrounding angle brackets intact.
func (h *Header) GetMessageID() (string, error) {
	return h.Get(MessageID)
}

// SetMessageID sets the Message-id header of the message header.
func (h *Header) SetMessageID(ref string) {
	h.Set(MessageID, ref)
}

// GetContentID returns the Content-id of this part with any surrounding
// angle brackets removed.
func (h *Header) GetContentID() (string, error) {
	body, err := h.Get(ContentID)
	if err != nil {
		return "", err
	}
	return Unbracket(body), nil
}

// SetContentID sets the Content-id of this part, adding angle brackets if
// they are missing.
func (h *Header) SetContentID(id string) {
	if !strings.HasPrefix(id, "<") {
		id = "<" + id + ">"
	}
	h.Set(ContentID, id)
}

// GetContentLocation returns the Content-location of this part.
func (h *Header) GetContentLocation() (string, error) {
	return h.Get(ContentLocation)
}

// SetContentLocation sets the Content-location of this part.
func (h *Header) SetContentLocation(loc string) {
	h.Set(ContentLocation, loc)
}

// GetTransferEncoding returns the content of the Content-transfer-encoding
// header.
func (h *Header) GetTransferEncoding() (string, error) {
	return h.Get(ContentTransferEncoding)
}

// SetTransferEncoding replaces the Content-transfer-encoding with the given
// value.
func (h *Header) SetTransferEncoding(b string) {
	h.Set(ContentTransferEncoding, b)
}

// Unbracket strips one pair of surrounding angle brackets from a message or
// content identifier, if present.
func Unbracket(id string) string {
	id = strings.TrimSpace(id)
	if strings.HasPrefix(id, "<") && strings.HasSuffix(id, ">") {
		return id[1 : len(id)-1]
	}
	return id
}

// GetTyped parses the named field according to the kind assigned by the
// header's registry and returns the typed value:
//
//   - KindAddressList: addr.AddressList
//   - KindDate: time.Time
//   - KindMediaType, KindDisposition: *param.Value
//   - KindMessageID: string, angle brackets removed
//   - KindMessageIDList: []string, angle brackets removed
//   - KindTransferEncoding: string, lowercased
//   - KindKeywords: []string
//   - KindText: field.Words
//   - KindRaw: string, the body as-is
//
// Parse failures surface here and only here; the field itself stays
// available through Get() in its raw form regardless.
func (h *Header) GetTyped(name string) (any, error) {
	switch h.Registry().Kind(name) {
	case KindAddressList:
		return h.GetAddressList(name)
	case KindDate:
		return h.GetTime(name)
	case KindMediaType, KindDisposition:
		return h.GetParamValue(name)
	case KindMessageID:
		body, err := h.Get(name)
		if err != nil {
			return "", err
		}
		return Unbracket(body), nil
	case KindMessageIDList:
		body, err := h.Get(name)
		if err != nil {
			return nil, err
		}
		return parseMessageIDList(body), nil
	case KindTransferEncoding:
		body, err := h.Get(name)
		if err != nil {
			return "", err
		}
		return strings.ToLower(strings.TrimSpace(body)), nil
	case KindKeywords:
		return h.GetKeywordsList(name)
	case KindText:
		return h.GetWords(name)
	}
	return h.Get(name)
}

// parseMessageIDList splits a field body holding one or more message
// identifiers. Bracketed identifiers are honored first; a body without
// brackets splits on whitespace and commas.
func parseMessageIDList(body string) []string {
	if strings.Contains(body, "<") {
		ids := make([]string, 0, 2)
		for {
			open := strings.IndexByte(body, '<')
			if open < 0 {
				break
			}
			end := strings.IndexByte(body[open:], '>')
			if end < 0 {
				break
			}
			ids = append(ids, body[open+1:open+end])
			body = body[open+end+1:]
		}
		return ids
	}

	return strings.FieldsFunc(body, func(c rune) bool {
		return c == ' ' || c == '\t' || c == ','
	})
}

// parseEmailAddressList is a fallback method for email address parsing. The
// parser in github.com/zostay/go-addr is a strict parser, which is useful
// for getting good accurate parsing of email addresses, especially for
// validating data entry. However, when working with the mess that is the
// Internet, you want to get something useful (strict out/liberal in), even
// if it's technically wrong. This method cleans up the mess as follows:
//
// 1. Split the string up by commas.
// 2. Each string resulting from the split is trimmed of whitespace.
// 3. The comments are stripped from each string and held.
// 4. All the words at the start are treated as the display name.
// 5. The last word at the end is treated as the email address.
//
// We stuff whatever we get into an addr.Mailbox and call it good. As they
// are so rare, we assume we are never dealing with groups. This may lead to
// oddness if a group is encountered.
func parseEmailAddressList(v string) addr.AddressList {
	extractComments := func(s string) (string, string) {
		var clean, comment strings.Builder
		nestLevel := 0
		for _, c := range s {
			switch {
			case c == '(':
				nestLevel++
				if nestLevel == 1 {
					continue
				}
				comment.WriteRune(c)
			case c == ')':
				nestLevel--
				switch {
				case nestLevel == 0:
					continue
				case nestLevel < 0:
					nestLevel = 0
					clean.WriteRune(c)
				default:
					comment.WriteRune(c)
				}
			case nestLevel > 0:
				comment.WriteRune(c)
			default:
				clean.WriteRune(c)
			}
		}

		return clean.String(), comment.String()
	}

	mbs := strings.Split(v, ",")
	as := make(addr.AddressList, 0, len(mbs))
	for _, orig := range mbs {
		mb, com := extractComments(orig)

		mb = strings.TrimSpace(mb)
		com = strings.TrimSpace(com)

		parts := strings.Fields(mb)

		var dn, email string
		switch {
		case len(parts) == 0:
			email = ""
		case len(parts) > 1:
			dn = strings.Join(parts[:len(parts)-1], " ")
			email = parts[len(parts)-1]
		default:
			email = parts[0]
		}

		if email != "" {
			var addrSpec *addr.AddrSpec
			if i := strings.Index(email, "@"); i > -1 {
				addrSpec = addr.NewAddrSpecParsed(
					email[:i],
					email[i+1:],
					email,
				)
			} else {
				addrSpec = addr.NewAddrSpecParsed(
					email,
					"",
					email,
				)
			}

			mailbox, err := addr.NewMailboxParsed(dn, addrSpec, com, orig)
			if err != nil {
				mailbox, _ = addr.NewMailboxParsed(dn, addrSpec, "", orig)
			}

			as = append(as, mailbox)
		}
	}

	return as
}
