package generator

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/germanamz/herald/pkg/release"
)

const (
	// Temperature is the sampling temperature sent on every exchange.
	Temperature = 0.7

	// TooLongDirective is appended to the system instructions on retries by
	// backends that resend the full conversation.
	TooLongDirective = "PREVIOUS ATTEMPT WAS TOO LONG. Make it shorter!"

	// ShorterInput replaces the user input on retries by backends that
	// continue a server-side conversation.
	ShorterInput = "The previous response was too long. Make it shorter."
)

//go:embed prompt.txt
var defaultPrompt string

// Generator writes a social media post announcing a release.
type Generator interface {
	GenerateSocialPost(ctx context.Context, projectName string, rel release.Record) (string, error)
}

// Func adapts a plain function to the Generator interface.
type Func func(ctx context.Context, projectName string, rel release.Record) (string, error)

// GenerateSocialPost calls the underlying function.
func (f Func) GenerateSocialPost(ctx context.Context, projectName string, rel release.Record) (string, error) {
	return f(ctx, projectName, rel)
}

// Options are the optional construction arguments shared by all backends.
type Options struct {
	Prompt     string       // System instructions; empty selects the bundled prompt.
	BaseURL    string       // API root override; requires Model.
	Model      string       // Model identifier.
	HTTPClient *http.Client // Optional HTTP client.
	Logger     *slog.Logger // Optional logger; nil discards.
}

// Defaults are a backend's built-in endpoint and model.
type Defaults struct {
	BaseURL string
	Model   string
}

// Config is the validated, immutable configuration of one backend instance.
type Config struct {
	Token   string
	Prompt  string
	BaseURL string // Always ends with exactly one "/".
	Model   string
}

// NewConfig validates token and opts and fills in the backend defaults.
func NewConfig(token string, opts Options, defaults Defaults) (Config, error) {
	if token == "" {
		return Config{}, &ConfigError{Msg: "missing OpenAI API token"}
	}

	if opts.BaseURL != "" && opts.Model == "" {
		return Config{}, &ConfigError{Msg: "a model is required when a base URL is provided"}
	}

	cfg := Config{
		Token:   token,
		Prompt:  opts.Prompt,
		BaseURL: defaults.BaseURL,
		Model:   defaults.Model,
	}

	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	if opts.Model != "" {
		cfg.Model = opts.Model
	}

	cfg.BaseURL = NormalizeBaseURL(cfg.BaseURL)

	return cfg, nil
}

// NormalizeBaseURL returns u with exactly one trailing slash.
func NormalizeBaseURL(u string) string {
	return strings.TrimRight(u, "/") + "/"
}

// ResolvePrompt returns override when set, otherwise the bundled prompt.
func ResolvePrompt(override string) string {
	if override != "" {
		return override
	}
	return defaultPrompt
}

// UserInput builds the first user message for a release.
func UserInput(projectName string, rel release.Record) string {
	return fmt.Sprintf("Create a post summarizing this release for %s %s: %s\n\nURL is %s",
		projectName, rel.Version, rel.Details, rel.URL)
}

// DiscardLogger returns l, or a logger that drops everything when l is nil.
func DiscardLogger(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
