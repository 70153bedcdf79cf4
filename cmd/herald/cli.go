package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/germanamz/herald/pkg/apiclient"
	"github.com/germanamz/herald/pkg/apiclient/usage"
	"github.com/germanamz/herald/pkg/config"
	"github.com/germanamz/herald/pkg/generator"
	"github.com/germanamz/herald/pkg/generator/chatcompletion"
	"github.com/germanamz/herald/pkg/generator/responses"
	"github.com/germanamz/herald/pkg/mcpserver"
	"github.com/germanamz/herald/pkg/release"
)

var errMissingArgs = errors.New("missing required arguments: --org, --repo")

// env is the process surface the CLI reads from and writes to.
type env struct {
	stdin      io.Reader
	stdout     io.Writer
	stderr     io.Writer
	getenv     func(string) string
	workDir    string
	httpClient *http.Client // nil uses each client's default.
}

// run executes the CLI and returns the process exit code.
func run(ctx context.Context, args []string, e *env) int {
	app := newCLIApp(e)
	if err := app.RunContext(ctx, args); err != nil {
		fmt.Fprintf(e.stderr, "Error: %v\n", err)
		if errors.Is(err, errMissingArgs) {
			cli.HelpPrinter(e.stderr, cli.AppHelpTemplate, app)
		}
		return 1
	}
	return 0
}

// newCLIApp creates the CLI application.
func newCLIApp(e *env) *cli.App {
	app := &cli.App{
		Name:      "herald",
		Usage:     "Write a social media post announcing a GitHub release",
		UsageText: "herald --org <org> --repo <repo> [--name <name>] [--tag <tag>]",
		Version:   Version,
		Writer:    e.stdout,
		ErrWriter: e.stderr,
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "org", Aliases: []string{"o"}, Usage: "The organization name"},
			&cli.StringFlag{Name: "repo", Aliases: []string{"r"}, Usage: "The repository name"},
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "The name of the project (default: org/repo)"},
			&cli.StringFlag{Name: "tag", Aliases: []string{"t"}, Usage: "The release tag (default: latest)"},
			&cli.BoolFlag{Name: "preview", Usage: "Show the post in a box with its length on stderr"},
		}, commonFlags()...),
		Action: func(c *cli.Context) error {
			return generateAction(c, e)
		},
		Commands: []*cli.Command{
			serveMCPCmd(e),
		},
	}
	// Errors are reported by run as an "Error: <msg>" line.
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "Path to configuration file (default: " + config.DefaultFile + " if present)"},
		&cli.StringFlag{Name: "env", Value: ".env", Usage: "Path to .env file (ignored if missing)"},
		&cli.StringFlag{Name: "backend", Aliases: []string{"b"}, Usage: "Generation backend: chat or responses (env: HERALD_BACKEND)"},
		&cli.DurationFlag{Name: "timeout", Usage: "Abort generation after this long (e.g. 90s)"},
		&cli.BoolFlag{Name: "verbose", Usage: "Log generation attempts and token usage to stderr"},
	}
}

// serveMCPCmd creates the serve-mcp command.
func serveMCPCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "serve-mcp",
		Usage: "Serve post generation as an MCP tool over stdio",
		Flags: commonFlags(),
		Action: func(c *cli.Context) error {
			rt, err := setup(c, e)
			if err != nil {
				return err
			}

			srv := mcpserver.New("herald", Version, rt.fetcher, rt.gen)
			return srv.Serve(c.Context, e.stdin, e.stdout)
		},
	}
}

func generateAction(c *cli.Context, e *env) error {
	org, repo := c.String("org"), c.String("repo")
	if org == "" || repo == "" {
		return errMissingArgs
	}

	repoID := org + "/" + repo
	if err := release.ValidateRepo(repoID); err != nil {
		return err
	}

	name := c.String("name")
	if name == "" {
		name = repoID
	}

	rt, err := setup(c, e)
	if err != nil {
		return err
	}

	rel, err := rt.fetcher.Fetch(c.Context, repoID, c.String("tag"))
	if err != nil {
		return err
	}

	text, err := rt.gen.GenerateSocialPost(c.Context, name, rel)
	if err != nil {
		return err
	}

	fmt.Fprintln(e.stdout, text)

	if c.Bool("preview") {
		fmt.Fprintln(e.stderr, renderPreview(text))
	}

	rt.report(c.Context)

	return nil
}

// runtime is the wired fetcher and generator for one invocation.
type runtime struct {
	log     *slog.Logger
	backend generator.Generator // Unwrapped backend, for usage reporting.
	gen     generator.Generator
	fetcher release.Fetcher
}

func setup(c *cli.Context, e *env) (*runtime, error) {
	if err := loadDotEnv(e.resolve(c.String("env"))); err != nil {
		return nil, err
	}

	cfg, err := loadConfig(c.String("config"), e)
	if err != nil {
		return nil, err
	}

	if b := c.String("backend"); b != "" {
		cfg.Backend = b
	} else if b := e.getenv("HERALD_BACKEND"); b != "" {
		cfg.Backend = b
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := newLogger(e.stderr, c.Bool("verbose"))

	prompt, err := cfg.PromptText()
	if err != nil {
		return nil, err
	}

	token := cfg.APIKey
	if token == "" {
		token = e.getenv("OPENAI_API_KEY")
	}

	backend, err := newGenerator(cfg.BackendName(), token, generator.Options{
		Prompt:     prompt,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		HTTPClient: e.httpClient,
		Logger:     log,
	})
	if err != nil {
		return nil, err
	}

	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, err
	}
	if d := c.Duration("timeout"); d > 0 {
		timeout = d
	}

	mws := []generator.Middleware{
		generator.Logger(log, cfg.BackendName()),
		generator.Recovery(),
	}
	if timeout > 0 {
		mws = append(mws, generator.Timeout(timeout))
	}

	ghToken := cfg.GitHub.Token
	if ghToken == "" {
		ghToken = e.getenv("GITHUB_TOKEN")
	}

	return &runtime{
		log:     log,
		backend: backend,
		gen:     generator.Chain(backend, mws...),
		fetcher: release.NewGitHub(cfg.GitHub.BaseURL, ghToken, e.httpClient),
	}, nil
}

// newGenerator selects a backend by name.
func newGenerator(kind, token string, opts generator.Options) (generator.Generator, error) {
	switch kind {
	case config.BackendChat:
		return chatcompletion.New(token, opts)
	case config.BackendResponses:
		return responses.New(token, opts)
	default:
		return nil, &generator.ConfigError{Msg: fmt.Sprintf("unknown backend %q", kind)}
	}
}

// report logs token usage and remaining rate limit at debug level.
func (rt *runtime) report(ctx context.Context) {
	if r, ok := rt.backend.(usage.Reporter); ok {
		s := r.UsageTracker().Summary()
		rt.log.DebugContext(ctx, "token usage",
			"exchanges", s.Exchanges,
			"retries", s.Retries,
			"input_tokens", s.InputTokens,
			"output_tokens", s.OutputTokens,
		)
	}

	if r, ok := rt.backend.(apiclient.RateLimitInfoReporter); ok {
		if info := r.LastRateLimitInfo(); info != nil {
			rt.log.DebugContext(ctx, "rate limit",
				"remaining_requests", info.RemainingRequests,
				"remaining_tokens", info.RemainingTokens,
			)
		}
	}
}

func loadConfig(explicit string, e *env) (config.Config, error) {
	if explicit != "" {
		explicit = e.resolve(explicit)
	}

	path, ok := config.Find(explicit, e.workDir)
	if !ok {
		return config.Config{}, nil
	}

	return config.Load(path)
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// resolve makes a relative path relative to the working directory.
func (e *env) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(e.workDir, path)
}

// loadDotEnv loads environment variables from path. Missing files are ignored.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
