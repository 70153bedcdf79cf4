// Package responses provides a Generator backed by the OpenAI Responses API.
//
// The first attempt sends the full instructions and release summary request.
// Retries send only a short "make it shorter" input and reference the
// previous response by ID, relying on the server to keep the conversation.
package responses

import (
	"context"
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

	responsesPath = "responses"
	backendName   = "response generation"
	provider      = "OpenAI"
)

var (
	_ generator.Generator             = (*Generator)(nil)
	_ usage.Reporter                  = (*Generator)(nil)
	_ apiclient.RateLimitInfoReporter = (*Generator)(nil)
)

// Generator implements generator.Generator over the Responses API.
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

// GenerateSocialPost writes a post for rel, continuing the same server-side
// conversation on each retry.
func (g *Generator) GenerateSocialPost(ctx context.Context, projectName string, rel release.Record) (string, error) {
	systemPrompt := generator.ResolvePrompt(g.cfg.Prompt)
	input := generator.UserInput(projectName, rel)

	plan := func(index int, previous *generator.Reply) generator.Attempt {
		if previous == nil {
			return generator.Attempt{Index: index, Instructions: &systemPrompt, Input: input}
		}

		a := generator.Attempt{Index: index, Input: generator.ShorterInput}
		// A reply without an id leaves previous_response_id null.
		if id := previous.ResponseID; id != "" {
			a.PreviousResponseID = &id
		}
		return a
	}

	loop := generator.Loop{Logger: g.log, Backend: backendName, Provider: provider}

	candidate, err := loop.Run(ctx, plan, g.exchange)
	if err != nil {
		return "", err
	}

	return candidate.Text, nil
}

// --- request types ---

// apiRequest always serializes instructions and previous_response_id,
// sending null when they are unset.
type apiRequest struct {
	Model              string  `json:"model"`
	Instructions       *string `json:"instructions"`
	Input              string  `json:"input"`
	PreviousResponseID *string `json:"previous_response_id"`
	Temperature        float64 `json:"temperature"`
}

// --- response types ---

type apiResponse struct {
	ID     string          `json:"id"`
	Output []apiOutputItem `json:"output"`
	Usage  apiUsage        `json:"usage"`
}

type apiOutputItem struct {
	Type    string       `json:"type"`
	Content []apiContent `json:"content"`
}

type apiContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type apiUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

func (r apiResponse) text() string {
	if len(r.Output) == 0 || len(r.Output[0].Content) == 0 {
		return ""
	}
	return r.Output[0].Content[0].Text
}

func (g *Generator) exchange(ctx context.Context, a generator.Attempt) (generator.Reply, error) {
	req := apiRequest{
		Model:              g.cfg.Model,
		Instructions:       a.Instructions,
		Input:              a.Input,
		PreviousResponseID: a.PreviousResponseID,
		Temperature:        generator.Temperature,
	}

	var resp apiResponse
	if err := g.client.PostJSON(ctx, responsesPath, req, &resp); err != nil {
		return generator.Reply{}, generator.WrapTransport(backendName, err)
	}

	g.usage.Record(usage.Exchange{
		Attempt:      a.Index,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	})

	text := resp.text()
	if text == "" {
		return generator.Reply{}, &generator.EmptyGenerationError{Backend: provider}
	}

	return generator.Reply{Text: text, ResponseID: resp.ID}, nil
}
