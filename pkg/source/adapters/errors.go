package adapters

import (
	"errors"

	"github.com/olamyy/wmt/pkg/integrations"
	"github.com/olamyy/wmt/pkg/source"
)

// fetchError maps a transport error to the engine's error kinds. Anything
// it does not recognise is left to [source.Classify]: deadlines become
// Timeout, the rest (network failures, 5xx, an open circuit) Transient.
func fetchError(src source.Kind, err error) *source.FetchError {
	var (
		rl *integrations.RateLimitError
		se *integrations.StatusError
	)
	switch {
	case errors.Is(err, integrations.ErrNotFound):
		return source.NewFetchError(source.NotFound, src, err)
	case errors.As(err, &rl):
		fe := source.NewFetchError(source.RateLimited, src, err)
		fe.RetryAfter = rl.RetryAfter
		return fe
	case errors.Is(err, integrations.ErrMalformed), errors.As(err, &se):
		return source.NewFetchError(source.MalformedResponse, src, err)
	}
	return source.Classify(src, err)
}
