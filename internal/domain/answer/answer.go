package answer

import "github.com/docq-dev/docq/internal/domain/citation"

// Answer is a grounded response with its citations. The citation set is
// exactly the set of chunks placed into the model's context, in context
// order — never a superset or subset.
type Answer struct {
	text      string
	citations []citation.Citation
}

// New creates an Answer.
func New(text string, citations []citation.Citation) Answer {
	return Answer{text: text, citations: citations}
}

// Text returns the model's answer.
func (a *Answer) Text() string { return a.text }

// Citations returns the citations in context order.
func (a *Answer) Citations() []citation.Citation { return a.citations }
