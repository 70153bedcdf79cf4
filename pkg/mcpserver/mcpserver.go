// Package mcpserver exposes release post generation as an MCP tool.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/germanamz/herald/pkg/generator"
	"github.com/germanamz/herald/pkg/release"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolName is the name of the single tool served.
const ToolName = "generate_release_post"

const inputSchema = `{
  "type": "object",
  "properties": {
    "repo": {"type": "string", "description": "GitHub repository as owner/name"},
    "tag":  {"type": "string", "description": "Release tag; the latest release when omitted"},
    "name": {"type": "string", "description": "Project name used in the post; defaults to repo"}
  },
  "required": ["repo"]
}`

// Server serves post generation over the MCP protocol using the official MCP Go SDK.
type Server struct {
	server  *mcp.Server
	fetcher release.Fetcher
	gen     generator.Generator
}

// New creates a Server with the given name and version. Each tool call
// fetches a release with fetcher and writes a post with gen.
func New(name, version string, fetcher release.Fetcher, gen generator.Generator) *Server {
	s := &Server{
		server: mcp.NewServer(&mcp.Implementation{
			Name:    name,
			Version: version,
		}, nil),
		fetcher: fetcher,
		gen:     gen,
	}

	s.server.AddTool(&mcp.Tool{
		Name:        ToolName,
		Description: "Write a social media post (at most 280 characters, URLs count as 27) announcing a GitHub release.",
		InputSchema: json.RawMessage(inputSchema),
	}, s.handle)

	return s
}

// Serve starts serving MCP requests. It reads requests from in and writes
// responses to out. It blocks until ctx is cancelled or the transport closes.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	transport := &mcp.IOTransport{
		Reader: io.NopCloser(in),
		Writer: nopWriteCloser{out},
	}

	return s.run(ctx, transport)
}

// run starts the server with the given transport. Exported via Serve for
// production use; called directly by tests with InMemoryTransport.
func (s *Server) run(ctx context.Context, transport mcp.Transport) error {
	return s.server.Run(ctx, transport)
}

// Request is the argument object of the tool.
type Request struct {
	Repo string `json:"repo"`
	Tag  string `json:"tag"`
	Name string `json:"name"`
}

// Generate fetches the release and writes the post. It backs the MCP tool
// and is usable on its own.
func (s *Server) Generate(ctx context.Context, in Request) (string, error) {
	if err := release.ValidateRepo(in.Repo); err != nil {
		return "", err
	}

	rel, err := s.fetcher.Fetch(ctx, in.Repo, in.Tag)
	if err != nil {
		return "", err
	}

	name := in.Name
	if name == "" {
		name = in.Repo
	}

	return s.gen.GenerateSocialPost(ctx, name, rel)
}

func (s *Server) handle(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.Params.Arguments
	if args == nil {
		args = json.RawMessage("{}")
	}

	var in Request
	if err := json.Unmarshal(args, &in); err != nil {
		return errorResult(fmt.Errorf("invalid arguments: %w", err)), nil
	}

	text, err := s.Generate(ctx, in)
	if err != nil {
		return errorResult(err), nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
		IsError: true,
	}
}

// nopWriteCloser wraps an io.Writer as an io.WriteCloser with a no-op Close.
type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
