// Package aiparse turns raw text from the generation service into a parsed,
// schema-checked payload. Failures are classified as parse or schema errors
// and always carry the original raw text for display.
package aiparse

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/Astrocyte74/jeopardy-sub000/internal/action"
)

// Kind classifies a parse failure.
type Kind string

const (
	KindParse  Kind = "PARSE_ERROR"
	KindSchema Kind = "SCHEMA_ERROR"
)

var (
	ErrParse  = errors.New("response is not valid JSON")
	ErrSchema = errors.New("response does not match the expected shape")
)

// Error is returned for every parse or schema failure. Raw is the text as
// received, before normalization.
type Error struct {
	Kind   Kind
	Raw    string
	Parsed any
	Err    error
}

func (e *Error) Error() string { return e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

var (
	// openingFence matches ``` optionally followed by a language tag.
	openingFence = regexp.MustCompile("^```[A-Za-z0-9_+-]*[ \t]*\r?\n?")
	closingFence = regexp.MustCompile("\r?\n?```$")
)

// Normalize trims whitespace and strips a surrounding code fence.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	s = openingFence.ReplaceAllString(s, "")
	s = closingFence.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// Parser parses raw responses and logs diagnostics.
type Parser struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// Parse normalizes raw, decodes it, and applies validate when non-nil.
// The decoded value is returned unchanged.
func (p *Parser) Parse(raw string, validate action.Validator) (any, error) {
	var parsed any
	if err := json.Unmarshal([]byte(Normalize(raw)), &parsed); err != nil {
		p.logger.Debug("ai response parse failed", "error", err, "bytes", len(raw))
		return nil, &Error{Kind: KindParse, Raw: raw, Err: fmt.Errorf("%w: %v", ErrParse, err)}
	}

	if validate != nil && !validate(parsed) {
		p.logger.Debug("ai response failed schema validation", "bytes", len(raw))
		return nil, &Error{Kind: KindSchema, Raw: raw, Parsed: parsed, Err: ErrSchema}
	}
	return parsed, nil
}

// Decode parses raw with id's validator and converts it into a typed result.
// An action without a validator is a configuration error, not a schema error.
func (p *Parser) Decode(id action.ID, raw string) (action.Result, error) {
	validate, ok := action.ValidatorFor(id)
	if !ok {
		return nil, fmt.Errorf("no validator configured for action %q", id)
	}
	parsed, err := p.Parse(raw, validate)
	if err != nil {
		return nil, err
	}
	res, err := action.Decode(id, parsed)
	if err != nil {
		return nil, &Error{Kind: KindSchema, Raw: raw, Parsed: parsed, Err: fmt.Errorf("%w: %v", ErrSchema, err)}
	}
	return res, nil
}

// KindOf returns the failure kind of err, or "" if err is not a parse error.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}
