package service

import (
	"errors"

	"github.com/sakif/content-studio/internal/apperror"
	"github.com/sakif/content-studio/internal/provider"
)

// Provider failure kinds, used in logs and as a metrics label.
const (
	failureQuota         = "quota_exceeded"
	failureRateLimited   = "rate_limited"
	failureNotConfigured = "not_configured"
	failureOther         = "other"
)

// classifyProviderError turns a provider error into the application error the
// handler will render, plus a short kind label for logs and metrics. The raw
// provider error stays in the chain but never reaches the response message.
func classifyProviderError(action string, err error) (kind string, appErr error) {
	switch {
	case errors.Is(err, provider.ErrQuotaExceeded):
		return failureQuota, apperror.QuotaExceeded("API quota exceeded. Please try again later.")
	case errors.Is(err, provider.ErrRateLimited):
		return failureRateLimited, apperror.RateLimited("Too many requests. Please try again in a few seconds.")
	case errors.Is(err, provider.ErrNotConfigured):
		return failureNotConfigured, apperror.Internal(action+": provider is not configured", err)
	default:
		return failureOther, apperror.Internal(action+" failed", err)
	}
}
