package analysis

import (
	"fmt"
	"net/url"
	"strings"

	domain "github.com/scamwatch/threatcheck/internal/domain/analysis"
)

// Input size limits enforced before anything reaches the orchestrator.
const (
	MaxURLLength  = 2048
	MaxTextLength = 10000
)

// ParseInputType maps the wire value onto the InputType enum.
func ParseInputType(s string) (domain.InputType, error) {
	switch domain.InputType(strings.ToLower(strings.TrimSpace(s))) {
	case domain.InputText:
		return domain.InputText, nil
	case domain.InputURL:
		return domain.InputURL, nil
	case domain.InputEmail:
		return domain.InputEmail, nil
	case domain.InputPhone:
		return domain.InputPhone, nil
	}
	return "", &domain.ValidationError{
		Field:  "input_type",
		Reason: fmt.Sprintf("must be one of text, url, email, phone (got %q)", s),
	}
}

// ValidateInput rejects malformed, empty or oversized content. A nil return
// guarantees the orchestrator can proceed.
func ValidateInput(input domain.InputType, content string) error {
	canonical, err := ParseInputType(string(input))
	if err != nil {
		return err
	}
	input = canonical
	if strings.TrimSpace(content) == "" {
		return &domain.ValidationError{Field: "content", Reason: "must not be empty"}
	}

	if input == domain.InputURL {
		if len(content) > MaxURLLength {
			return &domain.ValidationError{
				Field:  "content",
				Reason: fmt.Sprintf("URL exceeds %d characters", MaxURLLength),
			}
		}
		u, err := url.Parse(strings.TrimSpace(content))
		if err != nil {
			return &domain.ValidationError{Field: "content", Reason: "URL does not parse"}
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return &domain.ValidationError{Field: "content", Reason: "URL scheme must be http or https"}
		}
		if u.Hostname() == "" {
			return &domain.ValidationError{Field: "content", Reason: "URL has no host"}
		}
		return nil
	}

	if len(content) > MaxTextLength {
		return &domain.ValidationError{
			Field:  "content",
			Reason: fmt.Sprintf("text exceeds %d characters", MaxTextLength),
		}
	}
	return nil
}
