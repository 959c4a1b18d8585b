// Package filter decides which chat rows are real text messages.
// All checks are pure: body in, verdict out. No side effects.
package filter

import (
	"strings"

	"github.com/abelbrown/moyu/internal/record"
)

// DefaultRetractionMarker appears in the notice left behind when a
// message is recalled ("xx 撤回了一条消息").
const DefaultRetractionMarker = "撤回"

// DefaultPayloadKeywords are attribute names of serialized media payloads
// (images, stickers, shares). They catch markup that lost its brackets.
var DefaultPayloadKeywords = []string{
	"xml", "cdn", "aeskey", "thumburl", "imgurl", "signature",
	"platform", "version", "length", "md5", "encryver", "hdwidth",
	"hdheight", "thumbwidth", "thumbheight",
}

// Rejection names the check that rejected a body.
type Rejection string

const (
	Accepted   Rejection = ""
	Empty      Rejection = "empty"
	Markup     Rejection = "markup"
	Retraction Rejection = "retraction"
	Payload    Rejection = "payload"
)

// Rejections lists every non-accepting verdict, in check order.
var Rejections = []Rejection{Empty, Markup, Retraction, Payload}

// Filter holds the injectable denylists.
type Filter struct {
	retraction string
	keywords   []string // lower-cased
}

// New creates a Filter. An empty marker disables the retraction check.
// Keywords are matched case-insensitively.
func New(retractionMarker string, payloadKeywords []string) *Filter {
	kw := make([]string, 0, len(payloadKeywords))
	for _, k := range payloadKeywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			kw = append(kw, k)
		}
	}
	return &Filter{retraction: retractionMarker, keywords: kw}
}

// Default returns a Filter with the built-in marker and keywords.
func Default() *Filter {
	return New(DefaultRetractionMarker, DefaultPayloadKeywords)
}

// IsValid reports whether body is a usable text message.
func (f *Filter) IsValid(body string) bool {
	return f.Reason(body) == Accepted
}

// Reason returns the first check that rejects body, or Accepted.
func (f *Filter) Reason(body string) Rejection {
	if strings.TrimSpace(body) == "" {
		return Empty
	}
	if strings.ContainsAny(body, "<>") {
		return Markup
	}
	if f.retraction != "" && strings.Contains(body, f.retraction) {
		return Retraction
	}
	if len(f.keywords) > 0 {
		lower := strings.ToLower(body)
		for _, kw := range f.keywords {
			if strings.Contains(lower, kw) {
				return Payload
			}
		}
	}
	return Accepted
}

// Valid keeps only records whose body passes the filter.
// Always returns a non-nil slice.
func (f *Filter) Valid(records []record.Raw) []record.Raw {
	result := make([]record.Raw, 0, len(records))
	for _, r := range records {
		if f.IsValid(r.Body) {
			result = append(result, r)
		}
	}
	return result
}
