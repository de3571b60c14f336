package ask

import (
	"fmt"

	"github.com/docq-dev/docq/internal/domain"
)

// Retrieval parameter limits and defaults.
const (
	// MaxQuestionLength is the maximum allowed question length.
	MaxQuestionLength = 4096
	// DefaultMatchCount is the retrieval cap when none is given.
	DefaultMatchCount = 10
	// MaxMatchCount bounds caller-supplied match counts.
	MaxMatchCount = 50
	// DefaultMatchThreshold is the similarity floor when none is given.
	// Chunks with similarity exactly equal to the threshold are excluded.
	DefaultMatchThreshold = 0.2
)

// Request is a validated question against a tenant's documents.
type Request struct {
	question       string
	history        []domain.Message
	matchCount     int
	matchThreshold float64
}

// New validates and normalizes a question request.
// matchCount <= 0 and matchThreshold <= 0 fall back to the defaults
// (10 and 0.2); the defaults are never silently changed. Zero is the
// "unset" marker, so a literal zero threshold cannot be requested;
// callers that want every positively-similar chunk pass a small
// positive floor instead.
func New(question string, history []domain.Message, matchCount int, matchThreshold float64) (Request, error) {
	if question == "" {
		return Request{}, fmt.Errorf("question is required")
	}
	if len(question) > MaxQuestionLength {
		return Request{}, fmt.Errorf("question too long (max %d chars)", MaxQuestionLength)
	}
	if matchCount <= 0 {
		matchCount = DefaultMatchCount
	}
	if matchCount > MaxMatchCount {
		matchCount = MaxMatchCount
	}
	if matchThreshold <= 0 {
		matchThreshold = DefaultMatchThreshold
	}
	if matchThreshold >= 1 {
		return Request{}, fmt.Errorf("match threshold must be below 1")
	}
	for _, m := range history {
		switch m.Role {
		case domain.RoleUser, domain.RoleAssistant:
			// ok
		default:
			return Request{}, fmt.Errorf("history role must be %q or %q, got %q",
				domain.RoleUser, domain.RoleAssistant, m.Role)
		}
	}

	return Request{
		question:       question,
		history:        history,
		matchCount:     matchCount,
		matchThreshold: matchThreshold,
	}, nil
}

// Question returns the user's question.
func (r *Request) Question() string { return r.question }

// History returns prior conversation turns in original order.
func (r *Request) History() []domain.Message { return r.history }

// MatchCount returns the retrieval cap (hard cap, not a target).
func (r *Request) MatchCount() int { return r.matchCount }

// MatchThreshold returns the strict similarity floor.
func (r *Request) MatchThreshold() float64 { return r.matchThreshold }
