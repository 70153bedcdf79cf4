package generator_test

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/germanamz/herald/pkg/apiclient"
	"github.com/germanamz/herald/pkg/generator"
	"github.com/germanamz/herald/pkg/release"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaults = generator.Defaults{BaseURL: "https://api.openai.com/v1", Model: "gpt-4o-mini"}

func TestNewConfig_MissingToken(t *testing.T) {
	_, err := generator.NewConfig("", generator.Options{}, defaults)

	var cfgErr *generator.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.EqualError(t, err, "missing OpenAI API token")
}

func TestNewConfig_BaseURLWithoutModel(t *testing.T) {
	_, err := generator.NewConfig("tok", generator.Options{BaseURL: "http://localhost:8080/v1"}, defaults)

	var cfgErr *generator.ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestNewConfig_BaseURLWithModel(t *testing.T) {
	cfg, err := generator.NewConfig("tok", generator.Options{
		BaseURL: "http://localhost:8080/v1//",
		Model:   "llama3",
	}, defaults)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/v1/", cfg.BaseURL)
	assert.Equal(t, "llama3", cfg.Model)
}

func TestNewConfig_Defaults(t *testing.T) {
	cfg, err := generator.NewConfig("tok", generator.Options{Prompt: "be brief"}, defaults)
	require.NoError(t, err)

	assert.Equal(t, generator.Config{
		Token:   "tok",
		Prompt:  "be brief",
		BaseURL: "https://api.openai.com/v1/",
		Model:   "gpt-4o-mini",
	}, cfg)
}

func TestNewConfig_ModelOnly(t *testing.T) {
	cfg, err := generator.NewConfig("tok", generator.Options{Model: "gpt-4.1"}, defaults)
	require.NoError(t, err)

	assert.Equal(t, "https://api.openai.com/v1/", cfg.BaseURL)
	assert.Equal(t, "gpt-4.1", cfg.Model)
}

func TestNormalizeBaseURL(t *testing.T) {
	assert.Equal(t, "https://x/", generator.NormalizeBaseURL("https://x"))
	assert.Equal(t, "https://x/", generator.NormalizeBaseURL("https://x/"))
	assert.Equal(t, "https://x/", generator.NormalizeBaseURL("https://x///"))
}

func TestResolvePrompt(t *testing.T) {
	assert.Equal(t, "custom", generator.ResolvePrompt("custom"))

	bundled := generator.ResolvePrompt("")
	assert.NotEmpty(t, strings.TrimSpace(bundled))
	assert.Contains(t, bundled, "280")
}

func TestUserInput(t *testing.T) {
	rel := release.Record{
		TagName: "v1.0.0",
		Version: "1.0.0",
		URL:     "https://github.com/user/repo/releases/v1.0.0",
		Details: "Added new features and fixed bugs",
	}

	assert.Equal(t,
		"Create a post summarizing this release for testproject 1.0.0: Added new features and fixed bugs\n\nURL is https://github.com/user/repo/releases/v1.0.0",
		generator.UserInput("testproject", rel),
	)
}

func TestErrorMessages(t *testing.T) {
	assert.EqualError(t,
		&generator.TransportError{Op: "chat completion", StatusCode: 500, Status: "Internal Server Error"},
		"500 Internal Server Error: chat completion failed",
	)
	assert.EqualError(t,
		&generator.RetryExhaustedError{Limit: 280, Attempts: 3},
		"failed to generate post within 280 characters after 3 attempts",
	)
}

func TestWrapTransport_StatusError(t *testing.T) {
	src := &apiclient.StatusError{StatusCode: http.StatusTooManyRequests, Body: "slow down", RetryAfter: 2 * time.Second}

	err := generator.WrapTransport("response generation", fmt.Errorf("wrapped: %w", src))

	var te *generator.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 429, te.StatusCode)
	assert.Equal(t, "Too Many Requests", te.Status)
	assert.Equal(t, "slow down", te.Body)
	assert.Equal(t, 2*time.Second, te.RetryAfter)
}

func TestWrapTransport_KeepsReasonPhrase(t *testing.T) {
	src := &apiclient.StatusError{StatusCode: 520, Reason: "Origin Unreachable", Body: "x"}

	err := generator.WrapTransport("chat completion", src)

	var te *generator.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "Origin Unreachable", te.Status)
	assert.EqualError(t, err, "520 Origin Unreachable: chat completion failed")
}

func TestWrapTransport_OtherError(t *testing.T) {
	src := errors.New("connection refused")

	err := generator.WrapTransport("chat completion", src)

	var te *generator.TransportError
	assert.False(t, errors.As(err, &te))
	assert.ErrorIs(t, err, src)
	assert.EqualError(t, err, "chat completion: connection refused")
}
