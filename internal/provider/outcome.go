// Package provider wraps the external generation services behind
// narrow interfaces and classifies their failures.
package provider

import (
	"context"
	"time"
)

// Kind discriminates the result of a provider invocation.
type Kind int

const (
	// KindSuccess carries non-empty generated text.
	KindSuccess Kind = iota
	// KindEmptyOutput means the provider answered but produced no
	// usable text. Retrying without changing input is unlikely to help.
	KindEmptyOutput
	// KindQuotaExceeded is a throttle/quota rejection; the caller may
	// retry after a delay.
	KindQuotaExceeded
	// KindProviderError is any other transport or provider-side fault.
	KindProviderError
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindEmptyOutput:
		return "empty_output"
	case KindQuotaExceeded:
		return "quota_exceeded"
	default:
		return "provider_error"
	}
}

// Outcome is the classified result of one provider call. It is transient
// and never persisted.
type Outcome struct {
	Kind       Kind
	Text       string        // set when Kind == KindSuccess
	RetryAfter time.Duration // optional hint when Kind == KindQuotaExceeded
	Detail     string        // raw provider detail for failure kinds
}

func Success(text string) Outcome { return Outcome{Kind: KindSuccess, Text: text} }

func Empty() Outcome { return Outcome{Kind: KindEmptyOutput} }

// TextGenerator is the boundary to the external text generation
// provider. One synchronous call per invocation; no internal retries.
type TextGenerator interface {
	Generate(ctx context.Context, prompt, model string) Outcome
}

// ImageGenerator is the boundary to the external image synthesis
// provider.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string, width, height int) ([]byte, error)
}
