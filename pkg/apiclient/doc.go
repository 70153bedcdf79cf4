// Package apiclient is the JSON-over-HTTP client shared by herald's remote
// collaborators.
//
// It contains:
//   - [Client], which applies base URL, auth, and custom headers, posts or gets JSON, and turns non-2xx responses into [StatusError]
//   - rate limit header parsers for OpenAI and GitHub
//   - [github.com/germanamz/herald/pkg/apiclient/usage]: per-exchange token accounting with retry counts
//
// The package has no knowledge of any particular API. The generation
// backends and the GitHub release fetcher build on it.
package apiclient
