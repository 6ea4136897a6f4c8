package discord

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

var ErrRateLimit = errors.New("rate limit")

func IsRateLimit(err error) (time.Time, bool) {
	if !errors.Is(err, ErrRateLimit) {
		return time.Time{}, false
	}

	msg := err.Error()
	i := strings.LastIndex(msg, ":")
	if i < 0 {
		return time.Time{}, false
	}

	resetAtMilli, err := strconv.ParseInt(msg[i+1:], 10, 64)
	if err != nil {
		return time.Time{}, false
	}

	return time.UnixMilli(resetAtMilli), true
}

func wrapRateLimit(resetAt time.Time) error {
	return fmt.Errorf("%w:%d", ErrRateLimit, resetAt.UnixMilli())
}

// APIError is a non-2xx answer of the REST API.
type APIError struct {
	Status  int
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("discord api error (status=%d, code=%d): %s", e.Status, e.Code, e.Message)
}

func IsNotFound(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}

	return apiErr.Status == http.StatusNotFound
}
