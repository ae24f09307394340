// Package extraction turns a free-text request into Preferences through an
// external language model. Replies are untrusted and validated before use.
package extraction

import (
	"context"

	"github.com/denisok6893-rgb/swampswipe/internal/domain"
)

type Kind string

const (
	NeedDetails Kind = "need_details"
	Results     Kind = "results"
)

// Outcome carries Preferences only when Kind is Results.
type Outcome struct {
	Kind        Kind
	Preferences domain.Preferences
}

// Adapter extracts preferences from a user message.
type Adapter interface {
	Extract(ctx context.Context, message string) (Outcome, error)
}
