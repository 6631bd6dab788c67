package falcon

import (
	"encoding/json"
	"testing"
)

func TestToEnvelope_BareIDs(t *testing.T) {
	resp := &Response{
		StatusCode: 200,
		Resources:  json.RawMessage(`["id-1", "id-2", "id-3"]`),
		Meta: Meta{
			Pagination: &Pagination{Limit: 3, Offset: json.RawMessage(`3`), Total: 10},
		},
	}

	env, err := ToEnvelope[string](resp)
	if err != nil {
		t.Fatalf("ToEnvelope() error = %v", err)
	}
	if len(env.Resources) != 3 {
		t.Fatalf("resources = %v, want 3 entries", env.Resources)
	}
	if len(env.Errors) != 0 || len(env.Warnings) != 0 {
		t.Errorf("errors/warnings = %v/%v, want none", env.Errors, env.Warnings)
	}
	if env.Meta.Total != 10 {
		t.Errorf("total = %d, want 10", env.Meta.Total)
	}
	if env.Meta.NextOffset == nil || *env.Meta.NextOffset != 3 {
		t.Errorf("next offset = %v, want 3", env.Meta.NextOffset)
	}
}

func TestToEnvelope_TopLevelErrors(t *testing.T) {
	resp := &Response{
		StatusCode: 400,
		Errors: []APIError{
			{Code: 400, Message: "invalid filter"},
		},
	}

	env, err := ToEnvelope[string](resp)
	if err != nil {
		t.Fatalf("ToEnvelope() error = %v", err)
	}
	if len(env.Errors) != 1 {
		t.Fatalf("errors = %v, want 1 entry", env.Errors)
	}
	if env.Errors[0].Message != "400: invalid filter" {
		t.Errorf("error message = %q", env.Errors[0].Message)
	}
}

func TestToEnvelope_EmbeddedNotices(t *testing.T) {
	// Some IOC endpoints report per-resource problems as resources tagged
	// with message_type instead of using the top-level errors field.
	resp := &Response{
		StatusCode: 201,
		Resources: json.RawMessage(`[
			{"id": "ind-1", "type": "domain", "value": "example.com", "action": "no_action"},
			{"message_type": "error", "field_name": "value", "message": "duplicate value"},
			{"message_type": "warning", "field_name": "expiration", "message": "expiration in the past"}
		]`),
	}

	type indicator struct {
		ID    string `json:"id"`
		Type  string `json:"type"`
		Value string `json:"value"`
	}

	env, err := ToEnvelope[indicator](resp)
	if err != nil {
		t.Fatalf("ToEnvelope() error = %v", err)
	}

	if len(env.Resources) != 1 || env.Resources[0].ID != "ind-1" {
		t.Errorf("resources = %v, want the single real indicator", env.Resources)
	}
	if len(env.Errors) != 1 || env.Errors[0].Field != "value" {
		t.Errorf("errors = %v, want the duplicate-value error", env.Errors)
	}
	if len(env.Warnings) != 1 || env.Warnings[0].Field != "expiration" {
		t.Errorf("warnings = %v, want the expiration warning", env.Warnings)
	}
}

func TestToEnvelope_NullResources(t *testing.T) {
	resp := &Response{
		StatusCode: 200,
		Resources:  json.RawMessage(`null`),
	}

	env, err := ToEnvelope[string](resp)
	if err != nil {
		t.Fatalf("ToEnvelope() error = %v", err)
	}
	if len(env.Resources) != 0 {
		t.Errorf("resources = %v, want none", env.Resources)
	}
}
