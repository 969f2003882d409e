package ai

import "context"

// TextExtractor cleans up pasted content before heuristic classification:
// stripping quoting boilerplate, undoing simple obfuscation and surfacing
// embedded targets. External collaborator; analysis must succeed without it.
type TextExtractor interface {
	IsConfigured() bool
	Extract(ctx context.Context, content string) (string, error)
}
