package providers

import (
	"errors"
	"fmt"
	"net/http"

	"postpilot/internal/domain"
	"postpilot/internal/providers/genai"
)

// Classify maps a provider-layer failure onto the domain error taxonomy so the
// orchestration boundary can record it and decide about retries.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *genai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s", domain.ErrRateLimited, apiErr.Message)
		case apiErr.StatusCode == http.StatusBadRequest:
			return fmt.Errorf("%w: %s", domain.ErrInvalidInput, apiErr.Message)
		default:
			return fmt.Errorf("%w: %s", domain.ErrProviderUnavailable, apiErr.Error())
		}
	}
	return fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
}
