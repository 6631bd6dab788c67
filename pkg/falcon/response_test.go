package falcon

import (
	"encoding/json"
	"testing"
)

func TestPagination_NextOffset(t *testing.T) {
	tests := []struct {
		name       string
		pagination *Pagination
		want       *int
	}{
		{
			name:       "numbered offset",
			pagination: &Pagination{Offset: json.RawMessage(`57`), Total: 100},
			want:       intPtr(57),
		},
		{
			name:       "absent offset",
			pagination: &Pagination{Total: 100},
			want:       nil,
		},
		{
			name:       "token offset is not a number",
			pagination: &Pagination{Offset: json.RawMessage(`"abc123"`), Total: 100},
			want:       nil,
		},
		{
			name:       "nil pagination",
			pagination: nil,
			want:       nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.pagination.NextOffset()
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("NextOffset() = %v, want %v", got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("NextOffset() = %d, want %d", *got, *tt.want)
			}
		})
	}
}

func TestPagination_EngineMeta_TokenDialects(t *testing.T) {
	p := &Pagination{
		Limit:  10,
		Offset: json.RawMessage(`"cursor-1"`),
		Total:  100,
	}
	meta := p.engineMeta()
	if meta.NextTokens.Offset != "cursor-1" {
		t.Errorf("offset token = %q, want %q", meta.NextTokens.Offset, "cursor-1")
	}
	if meta.NextOffset != nil {
		t.Errorf("NextOffset = %v, want nil for token dialect", meta.NextOffset)
	}

	p = &Pagination{Limit: 10, After: "cursor-2", Total: 100}
	meta = p.engineMeta()
	if meta.NextTokens.After != "cursor-2" {
		t.Errorf("after token = %q, want %q", meta.NextTokens.After, "cursor-2")
	}
}

func TestDecodeResponse(t *testing.T) {
	body := `{
		"resources": ["id-1", "id-2"],
		"errors": [],
		"meta": {"pagination": {"limit": 2, "offset": 2, "total": 5}, "trace_id": "t-1"}
	}`

	resp, err := decodeResponse(200, []byte(body))
	if err != nil {
		t.Fatalf("decodeResponse() error = %v", err)
	}

	ids, err := DecodeResources[string](resp)
	if err != nil {
		t.Fatalf("DecodeResources() error = %v", err)
	}
	if len(ids) != 2 || ids[0] != "id-1" {
		t.Errorf("resources = %v, want [id-1 id-2]", ids)
	}

	if resp.Meta.Pagination == nil {
		t.Fatal("pagination metadata missing")
	}
	if next := resp.Meta.Pagination.NextOffset(); next == nil || *next != 2 {
		t.Errorf("NextOffset = %v, want 2", next)
	}
	if resp.Meta.Pagination.Total != 5 {
		t.Errorf("Total = %d, want 5", resp.Meta.Pagination.Total)
	}
}

func TestDecodeResponse_NonJSONBody(t *testing.T) {
	resp, err := decodeResponse(502, []byte("Bad Gateway"))
	if err != nil {
		t.Fatalf("decodeResponse() error = %v", err)
	}
	if resp.StatusCode != 502 {
		t.Errorf("StatusCode = %d, want 502", resp.StatusCode)
	}
	if len(resp.Errors) != 0 {
		t.Errorf("Errors = %v, want empty", resp.Errors)
	}
}

func intPtr(n int) *int {
	return &n
}
