// Package gateway is the boundary to the external intelligence service: a
// generative model with optional live search grounding.
package gateway

import (
	"context"
	"errors"
)

var (
	// ErrGateway wraps failures reported by the remote service.
	ErrGateway = errors.New("intelligence gateway")
	// ErrNotConfigured is returned when no API key is available.
	ErrNotConfigured = errors.New("intelligence gateway not configured: set gemini.api_key or API_KEY")
)

// Request is one prompt. Grounded asks the service to back the answer with
// live web search results.
type Request struct {
	Prompt   string
	Grounded bool
}

// Citation is a grounding source attached to an answer.
type Citation struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type Answer struct {
	Text      string     `json:"text"`
	Citations []Citation `json:"citations"`
}

// Intelligence answers prompts.
type Intelligence interface {
	Ask(ctx context.Context, req Request) (Answer, error)
}

// Unavailable is the gateway used when AI calls are switched off.
type Unavailable struct{}

func (Unavailable) Ask(context.Context, Request) (Answer, error) {
	return Answer{}, ErrNotConfigured
}

// Outcome labels reported by Observed.
const (
	OutcomeOK          = "ok"
	OutcomeError       = "error"
	OutcomeUnavailable = "unavailable"
)

// Observed reports the outcome of every call to next.
type Observed struct {
	Next    Intelligence
	Observe func(outcome string)
}

func (o Observed) Ask(ctx context.Context, req Request) (Answer, error) {
	ans, err := o.Next.Ask(ctx, req)
	if o.Observe != nil {
		switch {
		case err == nil:
			o.Observe(OutcomeOK)
		case errors.Is(err, ErrNotConfigured):
			o.Observe(OutcomeUnavailable)
		default:
			o.Observe(OutcomeError)
		}
	}
	return ans, err
}
