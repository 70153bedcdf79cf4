package apiclient

import (
	"net/http"
	"strconv"
	"time"
)

// RateLimitInfo holds rate limit state parsed from response headers.
// GitHub reports no token budget, so RemainingTokens and TokensReset stay
// zero for release fetches.
type RateLimitInfo struct {
	RemainingRequests int
	RemainingTokens   int
	RequestsReset     time.Time
	TokensReset       time.Time
}

// RateLimitInfoReporter provides the most recently observed rate limit info.
type RateLimitInfoReporter interface {
	LastRateLimitInfo() *RateLimitInfo
}

// RateLimitHeaderParser extracts rate limit info from HTTP response headers.
// It receives the current time so callers can control the clock in tests.
type RateLimitHeaderParser func(h http.Header, now time.Time) *RateLimitInfo

// rateLimitHeaders names the headers one API uses for its budget.
// An empty name means the API does not report that value.
type rateLimitHeaders struct {
	remainingRequests string
	remainingTokens   string
	resetRequests     string
	resetTokens       string
}

var (
	openAIHeaders = rateLimitHeaders{
		remainingRequests: "x-ratelimit-remaining-requests",
		remainingTokens:   "x-ratelimit-remaining-tokens",
		resetRequests:     "x-ratelimit-reset-requests",
		resetTokens:       "x-ratelimit-reset-tokens",
	}
	gitHubHeaders = rateLimitHeaders{
		remainingRequests: "x-ratelimit-remaining",
		resetRequests:     "x-ratelimit-reset",
	}
)

// ParseOpenAIRateLimitHeaders parses the request and token budgets reported by
// the generation API. Resets are RFC3339 timestamps or durations such as "6s".
func ParseOpenAIRateLimitHeaders(h http.Header, now time.Time) *RateLimitInfo {
	return openAIHeaders.parse(h, now)
}

// ParseGitHubRateLimitHeaders parses GitHub REST rate limit headers.
// GitHub has a single request budget; x-ratelimit-reset is a unix timestamp.
func ParseGitHubRateLimitHeaders(h http.Header, now time.Time) *RateLimitInfo {
	return gitHubHeaders.parse(h, now)
}

// parse returns nil when none of the remaining-budget headers is present.
func (rh rateLimitHeaders) parse(h http.Header, now time.Time) *RateLimitInfo {
	reqs, reqsOK := headerInt(h, rh.remainingRequests)
	toks, toksOK := headerInt(h, rh.remainingTokens)
	if !reqsOK && !toksOK {
		return nil
	}

	return &RateLimitInfo{
		RemainingRequests: reqs,
		RemainingTokens:   toks,
		RequestsReset:     resetTime(headerValue(h, rh.resetRequests), now),
		TokensReset:       resetTime(headerValue(h, rh.resetTokens), now),
	}
}

func headerValue(h http.Header, name string) string {
	if name == "" {
		return ""
	}
	return h.Get(name)
}

// headerInt reports whether the header was present; unparsable values read as 0.
func headerInt(h http.Header, name string) (int, bool) {
	raw := headerValue(h, name)
	if raw == "" {
		return 0, false
	}
	v, _ := strconv.Atoi(raw)
	return v, true
}

// resetTime accepts a unix timestamp, an RFC3339 time, or a duration
// relative to now.
func resetTime(val string, now time.Time) time.Time {
	if val == "" {
		return time.Time{}
	}
	if secs, err := strconv.ParseInt(val, 10, 64); err == nil {
		return time.Unix(secs, 0)
	}
	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return t
	}
	if d, err := time.ParseDuration(val); err == nil {
		return now.Add(d)
	}
	return time.Time{}
}
