package ioc

import (
	"fmt"
	"strings"
)

// Filter builds a Falcon Query Language (FQL) filter string for IOC
// searches, e.g. type:'domain'+value:'example.com'.
type Filter struct {
	clauses []string
}

// NewFilter returns an empty filter.
func NewFilter() *Filter {
	return &Filter{}
}

// Eq adds a field equality clause.
func (f *Filter) Eq(field, value string) *Filter {
	f.clauses = append(f.clauses, fmt.Sprintf("%s:'%s'", field, value))
	return f
}

// Raw adds a pre-built FQL clause verbatim.
func (f *Filter) Raw(clause string) *Filter {
	if clause != "" {
		f.clauses = append(f.clauses, clause)
	}
	return f
}

// Empty reports whether no clauses have been added.
func (f *Filter) Empty() bool {
	return f == nil || len(f.clauses) == 0
}

// FQL renders the filter as an FQL string, joining clauses with +.
func (f *Filter) FQL() string {
	if f == nil {
		return ""
	}
	return strings.Join(f.clauses, "+")
}
