package provider

import (
	"errors"
	"regexp"
	"strconv"
	"time"
)

// Provider errors are not structurally typed across vendors, so quota
// exhaustion is recognized from the HTTP status when available and from
// known throttle vocabulary otherwise. The matching rules live here so
// they can change without touching orchestration.
var quotaPattern = regexp.MustCompile(`(?i)(rate\s*limit|429|too\s*many\s*requests|throttl|quota|resource[_\s]*exhausted)`)

// Matches retry hints like "retry in 12s" or "Retry-After: 30s".
var retryHintPattern = regexp.MustCompile(`(?i)retry(?:\s+in|-after:?)\s*(\d+)\s*s`)

// HTTPStatusError carries the status of a failed provider HTTP call so
// classification does not have to parse it back out of the message.
type HTTPStatusError struct {
	Status int
	Body   string
}

func (e *HTTPStatusError) Error() string {
	return "provider returned status " + strconv.Itoa(e.Status) + ": " + e.Body
}

// ClassifyError maps a provider call error to an Outcome. Pass status
// <= 0 when no HTTP status is known.
func ClassifyError(status int, err error) Outcome {
	if err == nil {
		return Empty()
	}
	var se *HTTPStatusError
	if errors.As(err, &se) && status <= 0 {
		status = se.Status
	}
	msg := err.Error()
	if status == 429 || quotaPattern.MatchString(msg) {
		return Outcome{
			Kind:       KindQuotaExceeded,
			RetryAfter: retryHint(msg),
			Detail:     msg,
		}
	}
	return Outcome{Kind: KindProviderError, Detail: msg}
}

func retryHint(msg string) time.Duration {
	m := retryHintPattern.FindStringSubmatch(msg)
	if m == nil {
		return 0
	}
	secs, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return time.Duration(secs) * time.Second
}
