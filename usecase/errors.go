package usecase

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/satriahrh/cocoa-fruit/assistant/domain"
)

// ClassifyProviderError maps a generation failure to a category by inspecting
// its message. It never returns an empty kind.
func ClassifyProviderError(err error) domain.ProviderErrorKind {
	if err == nil {
		return domain.ProviderOther
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ProviderTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.ProviderTimeout
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "401") || strings.Contains(msg, "unauthorized"):
		return domain.ProviderUnauthorized
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit"):
		return domain.ProviderRateLimited
	case strings.Contains(msg, "timeout"):
		return domain.ProviderTimeout
	default:
		return domain.ProviderOther
	}
}

var apologies = map[domain.ProviderErrorKind]string{
	domain.ProviderUnauthorized: "Sorry, the API configuration seems to be wrong. Please check that your API key is correct.",
	domain.ProviderRateLimited:  "The service is busy right now, please try again later.",
	domain.ProviderTimeout:      "The connection timed out. Please check your network and try again.",
	domain.ProviderOther:        "Sorry, I ran into a problem handling your request. Please try again later.",
}

// Apology is the user-facing text for a failure category.
func Apology(kind domain.ProviderErrorKind) string {
	if msg, ok := apologies[kind]; ok {
		return msg
	}
	return apologies[domain.ProviderOther]
}

func IsCityNotFound(err error) bool {
	return errors.Is(err, domain.ErrCityNotFound)
}

func IsWeatherTimeout(err error) bool {
	var apiErr *domain.WeatherAPIError
	return errors.As(err, &apiErr) && apiErr.Timeout
}
