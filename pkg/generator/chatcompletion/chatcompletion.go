// Package chatcompletion provides a Generator backed by the OpenAI Chat
// Completions API. Each attempt is an independent exchange that resends the
// full conversation.
package chatcompletion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/germanamz/herald/pkg/apiclient"
	"github.com/germanamz/herald/pkg/apiclient/usage"
	"github.com/germanamz/herald/pkg/generator"
	"github.com/germanamz/herald/pkg/release"
)

const (
	// DefaultBaseURL is the OpenAI API root.
	DefaultBaseURL = "https://api.openai.com/v1/"
	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-4o-mini"

	completionsPath = "chat/completions"
	backendName     = "chat completion"
	provider        = "OpenAI"
)

var (
	_ generator.Generator             = (*Generator)(nil)
	_ usage.Reporter                  = (*Generator)(nil)
	_ apiclient.RateLimitInfoReporter = (*Generator)(nil)
)

// Generator implements generator.Generator over chat completions.
type Generator struct {
	cfg    generator.Config
	client *apiclient.Client
	log    *slog.Logger
	usage  usage.Tracker
}

// New creates a Generator. A BaseURL override must come with a Model.
func New(token string, opts generator.Options) (*Generator, error) {
	cfg, err := generator.NewConfig(token, opts, generator.Defaults{
		BaseURL: DefaultBaseURL,
		Model:   DefaultModel,
	})
	if err != nil {
		return nil, err
	}

	client := apiclient.New(cfg.BaseURL, apiclient.Auth{Key: cfg.Token}, opts.HTTPClient)
	client.HeaderParser = apiclient.ParseOpenAIRateLimitHeaders

	return &Generator{
		cfg:    cfg,
		client: client,
		log:    generator.DiscardLogger(opts.Logger),
	}, nil
}

// Model returns the configured model identifier.
func (g *Generator) Model() string { return g.cfg.Model }

// UsageTracker returns the token usage recorded across calls.
func (g *Generator) UsageTracker() *usage.Tracker { return &g.usage }

// LastRateLimitInfo returns the rate limit state seen on the last exchange.
func (g *Generator) LastRateLimitInfo() *apiclient.RateLimitInfo {
	return g.client.LastRateLimitInfo()
}

// GenerateSocialPost writes a post for rel. On retries the system message
// gains a "too long" directive while the user message stays the same.
func (g *Generator) GenerateSocialPost(ctx context.Context, projectName string, rel release.Record) (string, error) {
	systemPrompt := generator.ResolvePrompt(g.cfg.Prompt)
	input := generator.UserInput(projectName, rel)

	plan := func(index int, _ *generator.Reply) generator.Attempt {
		instructions := systemPrompt
		if index > 0 {
			instructions = systemPrompt + "\n\n" + generator.TooLongDirective
		}
		return generator.Attempt{Index: index, Instructions: &instructions, Input: input}
	}

	loop := generator.Loop{Logger: g.log, Backend: backendName, Provider: provider}

	candidate, err := loop.Run(ctx, plan, g.exchange)
	if err != nil {
		return "", err
	}

	return candidate.Text, nil
}

// --- request types ---

type apiRequest struct {
	Model       string       `json:"model"`
	Messages    []apiMessage `json:"messages"`
	Temperature float64      `json:"temperature"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// --- response types ---

type apiResponse struct {
	Choices []apiChoice `json:"choices"`
	Usage   apiUsage    `json:"usage"`
}

type apiChoice struct {
	Message      apiRespMessage `json:"message"`
	FinishReason string         `json:"finish_reason"`
}

type apiRespMessage struct {
	Role    string  `json:"role"`
	Content *string `json:"content"`
}

type apiUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

var validRoles = map[string]struct{}{
	"system":    {},
	"user":      {},
	"developer": {},
}

func validateRole(role string) error {
	if role == "" {
		return errors.New("invalid role")
	}
	if _, ok := validRoles[role]; !ok {
		return fmt.Errorf("invalid role: %s", role)
	}
	return nil
}

func (g *Generator) buildRequest(a generator.Attempt) (apiRequest, error) {
	var system string
	if a.Instructions != nil {
		system = *a.Instructions
	}

	msgs := []apiMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: a.Input},
	}
	for _, m := range msgs {
		if err := validateRole(m.Role); err != nil {
			return apiRequest{}, err
		}
	}

	return apiRequest{
		Model:       g.cfg.Model,
		Messages:    msgs,
		Temperature: generator.Temperature,
	}, nil
}

func (g *Generator) exchange(ctx context.Context, a generator.Attempt) (generator.Reply, error) {
	req, err := g.buildRequest(a)
	if err != nil {
		return generator.Reply{}, err
	}

	var resp apiResponse
	if err := g.client.PostJSON(ctx, completionsPath, req, &resp); err != nil {
		return generator.Reply{}, generator.WrapTransport(backendName, err)
	}

	g.usage.Record(usage.Exchange{
		Attempt:      a.Index,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	})

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == nil || *resp.Choices[0].Message.Content == "" {
		return generator.Reply{}, &generator.EmptyGenerationError{Backend: provider}
	}

	return generator.Reply{Text: *resp.Choices[0].Message.Content}, nil
}
