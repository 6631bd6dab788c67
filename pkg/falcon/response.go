package falcon

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/hur/caracara/pkg/pagination"
)

// Response is a decoded Falcon API reply body plus the HTTP status it
// arrived with. Resources stay raw so callers can decode them into the
// endpoint's concrete type.
type Response struct {
	StatusCode int
	Resources  json.RawMessage
	Errors     []APIError
	Meta       Meta
}

// body mirrors the wire shape of every Falcon reply.
type body struct {
	Resources json.RawMessage `json:"resources"`
	Errors    []APIError      `json:"errors"`
	Meta      Meta            `json:"meta"`
}

// APIError is one entry of a reply's top-level errors list.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("falcon API error %d: %s", e.Code, e.Message)
	}
	return "falcon API error: " + e.Message
}

// Meta is the metadata block of a Falcon reply.
type Meta struct {
	Pagination *Pagination `json:"pagination,omitempty"`
	TraceID    string      `json:"trace_id,omitempty"`
	QueryTime  float64     `json:"query_time,omitempty"`
}

// Pagination is the wire pagination metadata. Offset is raw because the
// field carries an integer on numbered endpoints and an opaque token on
// cursor endpoints.
type Pagination struct {
	Limit  int             `json:"limit"`
	Offset json.RawMessage `json:"offset,omitempty"`
	After  string          `json:"after,omitempty"`
	Total  int             `json:"total"`
}

// NextOffset returns the next numbered offset, or nil when the reply did
// not report one (the authoritative end-of-stream signal).
func (p *Pagination) NextOffset() *int {
	if p == nil || len(p.Offset) == 0 {
		return nil
	}
	n, err := strconv.Atoi(string(p.Offset))
	if err != nil {
		return nil
	}
	return &n
}

// offsetToken returns the cursor when the offset field carries a string.
func (p *Pagination) offsetToken() string {
	if p == nil || len(p.Offset) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(p.Offset, &s); err != nil {
		return ""
	}
	return s
}

// engineMeta converts the wire metadata into the pagination engine's form.
func (p *Pagination) engineMeta() pagination.Meta {
	if p == nil {
		return pagination.Meta{}
	}
	return pagination.Meta{
		Limit:      p.Limit,
		NextOffset: p.NextOffset(),
		NextTokens: pagination.Tokens{
			Offset: p.offsetToken(),
			After:  p.After,
		},
		Total: p.Total,
	}
}

// DecodeResources unmarshals a reply's resources into a slice of T.
func DecodeResources[T any](resp *Response) ([]T, error) {
	if len(resp.Resources) == 0 || string(resp.Resources) == "null" {
		return nil, nil
	}
	var out []T
	if err := json.Unmarshal(resp.Resources, &out); err != nil {
		return nil, fmt.Errorf("decode resources: %w", err)
	}
	return out, nil
}

// decodeResponse parses a reply body. Falcon returns a JSON body for error
// statuses too, so decoding is attempted regardless of the status code.
func decodeResponse(statusCode int, data []byte) (*Response, error) {
	var b body
	if len(data) > 0 && strings.HasPrefix(strings.TrimSpace(string(data)), "{") {
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, fmt.Errorf("decode response body (status %d): %w", statusCode, err)
		}
	}
	return &Response{
		StatusCode: statusCode,
		Resources:  b.Resources,
		Errors:     b.Errors,
		Meta:       b.Meta,
	}, nil
}
