package falcon

import (
	"encoding/json"
	"fmt"

	"github.com/hur/caracara/pkg/pagination"
)

// notice is the shape of the per-resource error and warning entries some
// Falcon endpoints embed in the resources list instead of (or alongside)
// the top-level errors field.
type notice struct {
	MessageType string `json:"message_type"`
	FieldName   string `json:"field_name"`
	Message     string `json:"message"`
}

// ToEnvelope converts a raw Falcon reply into the pagination engine's
// envelope contract. Top-level errors become fatal error details, embedded
// "error"-tagged resources are promoted alongside them, and "warning"-tagged
// resources are surfaced as warnings for the engine to log or escalate.
// Everything else in the resources list decodes into T.
//
// Composing this with a client call yields a fetch function that already
// conforms to the envelope contract before it is handed to a pager.
func ToEnvelope[T any](resp *Response) (*pagination.Envelope[T], error) {
	env := &pagination.Envelope[T]{}
	if resp.Meta.Pagination != nil {
		env.Meta = resp.Meta.Pagination.engineMeta()
	}

	for _, apiErr := range resp.Errors {
		env.Errors = append(env.Errors, errorDetail(apiErr))
	}

	if len(resp.Resources) == 0 || string(resp.Resources) == "null" {
		return env, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(resp.Resources, &raw); err != nil {
		return nil, fmt.Errorf("decode resources: %w", err)
	}

	for _, item := range raw {
		if n, ok := embeddedNotice(item); ok {
			detail := pagination.Detail{Field: n.FieldName, Message: n.Message}
			if n.MessageType == "error" {
				env.Errors = append(env.Errors, detail)
			} else {
				env.Warnings = append(env.Warnings, detail)
			}
			continue
		}

		var resource T
		if err := json.Unmarshal(item, &resource); err != nil {
			return nil, fmt.Errorf("decode resource: %w", err)
		}
		env.Resources = append(env.Resources, resource)
	}

	return env, nil
}

// embeddedNotice reports whether a resource entry is an error or warning
// notice rather than a real resource.
func embeddedNotice(item json.RawMessage) (notice, bool) {
	var n notice
	if err := json.Unmarshal(item, &n); err != nil {
		// Not an object (e.g. a bare ID string): a real resource.
		return notice{}, false
	}
	return n, n.MessageType == "error" || n.MessageType == "warning"
}

// errorDetail maps a top-level API error into an engine error detail.
func errorDetail(e APIError) pagination.Detail {
	if e.Code != 0 {
		return pagination.Detail{Message: fmt.Sprintf("%d: %s", e.Code, e.Message)}
	}
	return pagination.Detail{Message: e.Message}
}
