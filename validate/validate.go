// Package validate rejects malformed or malicious interview inputs before
// they reach the core. Validation failures are non-recoverable: callers get
// an Error with a user-facing reason and nothing is retried or degraded.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	playground "github.com/go-playground/validator/v10"

	"github.com/hupe1980/interviewmesh/core"
)

// Size limits for raw text inputs.
const (
	MaxResumeSize     = 500_000
	MaxJobDescSize    = 100_000
	MaxResponseLength = 50_000
	MinResumeLength   = 50
	MinJobDescLength  = 50
)

// dangerousPatterns flag content that must never reach a prompt: script
// injection, path traversal, template injection, code execution.
var dangerousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<script`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`\.\./`),
	regexp.MustCompile(`\$\{`),
	regexp.MustCompile(`exec\(`),
	regexp.MustCompile(`eval\(`),
}

// Error is a non-recoverable validation failure with a user-facing reason.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

var structValidator = playground.New(playground.WithRequiredStructEnabled())

// Resume validates and sanitizes raw resume text.
func Resume(text string) (string, error) {
	return rawText("resume", text, MinResumeLength, MaxResumeSize)
}

// JobDescription validates and sanitizes raw job description text.
func JobDescription(text string) (string, error) {
	return rawText("job description", text, MinJobDescLength, MaxJobDescSize)
}

// Answer validates and sanitizes one candidate answer.
func Answer(text string) (string, error) {
	return rawText("answer", text, 1, MaxResponseLength)
}

func rawText(field, text string, minLen, maxLen int) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", &Error{Field: field, Reason: "must not be empty"}
	}
	if len(text) > maxLen {
		return "", &Error{Field: field, Reason: fmt.Sprintf("too large (max %d bytes)", maxLen)}
	}
	if len(strings.TrimSpace(text)) < minLen {
		return "", &Error{Field: field, Reason: fmt.Sprintf("too short (min %d characters)", minLen)}
	}
	if isBinary(text) {
		return "", &Error{Field: field, Reason: "appears to be binary data"}
	}
	for _, pattern := range dangerousPatterns {
		if pattern.MatchString(text) {
			return "", &Error{Field: field, Reason: "contains potentially malicious content"}
		}
	}
	sanitized := sanitize(text)
	if len(strings.TrimSpace(sanitized)) < minLen {
		return "", &Error{Field: field, Reason: "contains insufficient valid text"}
	}
	return sanitized, nil
}

// Profile checks the structural requirements of a parsed candidate profile.
func Profile(p core.CandidateProfile) error {
	if err := structValidator.Struct(p); err != nil {
		return &Error{Field: "candidate profile", Reason: err.Error()}
	}
	return nil
}

// Requirements checks the structural requirements of parsed job requirements.
func Requirements(r core.JobRequirements) error {
	if err := structValidator.Struct(r); err != nil {
		return &Error{Field: "job requirements", Reason: err.Error()}
	}
	return nil
}

// Topics checks that a topic list is non-empty, structurally valid and free
// of duplicate names.
func Topics(topics []core.Topic) error {
	if len(topics) == 0 {
		return &Error{Field: "topics", Reason: "at least one topic is required"}
	}
	seen := make(map[string]struct{}, len(topics))
	for _, t := range topics {
		if err := structValidator.Struct(t); err != nil {
			return &Error{Field: "topic", Reason: err.Error()}
		}
		if _, dup := seen[t.Name]; dup {
			return &Error{Field: "topic", Reason: fmt.Sprintf("duplicate topic name %q", t.Name)}
		}
		seen[t.Name] = struct{}{}
	}
	return nil
}

// isBinary reports whether a meaningful share of the text is non-printable.
func isBinary(text string) bool {
	if text == "" {
		return false
	}
	sample := text
	if len(sample) > 1024 {
		sample = sample[:1024]
	}
	nonPrintable := 0
	total := 0
	for _, r := range sample {
		total++
		if r == unicode.ReplacementChar {
			nonPrintable++
			continue
		}
		if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			nonPrintable++
		}
	}
	return total > 0 && nonPrintable*10 > total
}

// sanitize strips control characters, keeping tabs and newlines.
func sanitize(text string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || r == '\r' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, text)
}
