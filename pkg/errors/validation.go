package errors

import (
	"fmt"
	"strings"
	"unicode"
)

// Kind names the record type a validation issue refers to.
type Kind string

const (
	KindNode Kind = "node"
	KindEdge Kind = "edge"
)

// Issue describes one malformed input record. Issues are collected while
// processing and never abort it: the offending record is dropped or
// repaired and processing continues.
type Issue struct {
	Kind    Kind   `json:"kind"`
	Index   int    `json:"index"`           // Position in the raw input slice
	ID      string `json:"id,omitempty"`    // Node id, or "from->to" for edges
	Field   string `json:"field,omitempty"` // Offending field, if any
	Message string `json:"message"`
}

// String formats the issue for logs.
func (i Issue) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]", i.Kind, i.Index)
	if i.ID != "" {
		fmt.Fprintf(&b, " %q", i.ID)
	}
	if i.Field != "" {
		fmt.Fprintf(&b, " %s", i.Field)
	}
	b.WriteString(": ")
	b.WriteString(i.Message)
	return b.String()
}

// Issues is an ordered collection of validation issues.
type Issues []Issue

// Add appends an issue with a formatted message.
func (is *Issues) Add(kind Kind, index int, id, field, format string, args ...any) {
	*is = append(*is, Issue{
		Kind:    kind,
		Index:   index,
		ID:      id,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	})
}

// Of returns the issues recorded for the given record kind.
func (is Issues) Of(kind Kind) Issues {
	var out Issues
	for _, i := range is {
		if i.Kind == kind {
			out = append(out, i)
		}
	}
	return out
}

// Err returns the issues as a single VALIDATION_ERROR, or nil if empty.
func (is Issues) Err() error {
	if len(is) == 0 {
		return nil
	}
	msgs := make([]string, len(is))
	for n, i := range is {
		msgs[n] = i.String()
	}
	return New(ErrCodeValidation, "%d invalid record(s): %s", len(is), strings.Join(msgs, "; "))
}

// ValidateID checks that a node identifier is usable as an element key.
// Identifiers must be non-empty and free of control characters.
func ValidateID(id string) error {
	if id == "" {
		return New(ErrCodeValidation, "id cannot be empty")
	}
	if len(id) > 512 {
		return New(ErrCodeValidation, "id too long (max 512 characters)")
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeValidation, "id contains invalid control characters")
		}
	}
	return nil
}
