package provider

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// TransientError marks a provider failure that is worth retrying:
// throttling, quota exhaustion, or a 5xx-like condition on the remote side.
type TransientError struct {
	Provider ProviderID
	Err      error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: transient: %v", e.Provider, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// FatalError marks a provider failure that retrying cannot fix:
// bad credentials, misconfiguration, or a malformed request.
type FatalError struct {
	Provider ProviderID
	Err      error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s: fatal: %v", e.Provider, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// transientMarkers are substrings that indicate a throttling or quota
// condition in provider error messages. Matching is case-insensitive.
var transientMarkers = []string{
	"429",
	"rate",
	"quota",
	"resource_exhausted",
	"too many requests",
	"overloaded",
	"503",
	"502",
	"timeout",
}

// Transient reports whether the error message carries a rate/quota/5xx marker.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, m := range transientMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// Classify wraps a raw SDK or HTTP error into the router taxonomy for the
// given provider. Transient conditions become *TransientError, everything
// else *FatalError. Already-classified errors pass through unchanged.
func Classify(id ProviderID, err error) error {
	if err == nil {
		return nil
	}
	switch err.(type) {
	case *TransientError, *FatalError:
		return err
	}
	if Transient(err) {
		return &TransientError{Provider: id, Err: err}
	}
	return &FatalError{Provider: id, Err: err}
}

// retryAfterRegex matches "Please retry in 45.3s" or "retryDelay: 45s"
// patterns that Gemini embeds in RESOURCE_EXHAUSTED errors.
var retryAfterRegex = regexp.MustCompile(`(?i)(?:please retry in |retrydelay[:\s]+)(\d+(?:\.\d+)?)\s*s`)

// RetryAfter parses the API-suggested retry delay from an error message.
// Returns 0 when no delay is present.
func RetryAfter(err error) time.Duration {
	if err == nil {
		return 0
	}
	matches := retryAfterRegex.FindStringSubmatch(err.Error())
	if len(matches) < 2 {
		return 0
	}
	seconds, parseErr := strconv.ParseFloat(matches[1], 64)
	if parseErr != nil {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}
