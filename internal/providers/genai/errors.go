package genai

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	sdk "google.golang.org/genai"

	"genstudio/internal/domain"
)

const entityNotFoundMessage = "Requested entity was not found"

// tagError attaches the domain sentinels the orchestrator classifies on. The
// original error stays in the chain.
func tagError(err error) error {
	if err == nil {
		return nil
	}
	if code, message, ok := apiError(err); ok {
		switch {
		case strings.Contains(message, entityNotFoundMessage):
			return fmt.Errorf("%w: %w", domain.ErrEntityNotFound, err)
		case code == http.StatusTooManyRequests, code >= http.StatusInternalServerError:
			return fmt.Errorf("%w: %w", domain.ErrServiceUnavailable, err)
		}
		return err
	}
	if strings.Contains(err.Error(), entityNotFoundMessage) {
		return fmt.Errorf("%w: %w", domain.ErrEntityNotFound, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", domain.ErrServiceUnavailable, err)
	}
	return err
}

func apiError(err error) (int, string, bool) {
	var value sdk.APIError
	if errors.As(err, &value) {
		return value.Code, value.Message, true
	}
	var ptr *sdk.APIError
	if errors.As(err, &ptr) && ptr != nil {
		return ptr.Code, ptr.Message, true
	}
	return 0, "", false
}
