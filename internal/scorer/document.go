package scorer

import (
	"fmt"
	"strings"
)

// Document is a named set of keywords to match against. Keywords are
// lowercased when the document is registered; the id is an opaque label used
// only for reporting, never for matching.
type Document struct {
	ID       string   `json:"id" yaml:"id"`
	Keywords []string `json:"keywords" yaml:"keywords"`
}

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	return strings.Join(parts, "; ")
}

const maxKeywordLength = 256

func (d Document) validate() error {
	errs := make(map[string]string)

	if strings.TrimSpace(d.ID) == "" {
		errs["id"] = "id is required"
	}
	for i, kw := range d.Keywords {
		if len(kw) > maxKeywordLength {
			errs["keywords"] = fmt.Sprintf("keyword %d exceeds %d bytes", i, maxKeywordLength)
			break
		}
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
