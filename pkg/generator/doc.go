// Package generator defines the contract for writing release announcements
// and the retry loop that enforces the post length limit.
//
// It contains:
//   - [Generator] interface, [Func] adapter, and [Middleware] wrappers (timeout, recovery, logging)
//   - [Config] construction and validation shared by all backends
//   - [Loop], the accept/retry/exhaust state machine driven by a backend's [PlanFunc] and [ExchangeFunc]
//   - the error taxonomy: [ConfigError], [TransportError], [EmptyGenerationError], [RetryExhaustedError]
//   - the bundled default prompt, resolved per call by [ResolvePrompt]
//
// Concrete backends live in sub-packages:
//   - [github.com/germanamz/herald/pkg/generator/chatcompletion]: stateless, resends the whole conversation every attempt
//   - [github.com/germanamz/herald/pkg/generator/responses]: stateful, continues a server-side conversation by response ID
package generator
