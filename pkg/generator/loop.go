package generator

import (
	"context"
	"log/slog"

	"github.com/germanamz/herald/pkg/post"
)

// MaxAttempts is the number of exchanges allowed per post.
const MaxAttempts = 3

// Attempt is the request side of one generation exchange.
type Attempt struct {
	Index              int
	Instructions       *string // nil when the backend relies on server-side state.
	Input              string
	PreviousResponseID *string // nil on the first attempt and for stateless backends.
}

// Reply is what a backend extracted from one exchange.
type Reply struct {
	Text       string
	ResponseID string
}

// PlanFunc builds attempt index from the previous reply. previous is nil
// for index 0.
type PlanFunc func(index int, previous *Reply) Attempt

// ExchangeFunc performs one request/response exchange.
type ExchangeFunc func(ctx context.Context, a Attempt) (Reply, error)

// Loop runs exchanges until a post fits or the attempt budget is spent.
// The zero value uses MaxAttempts and post.MaxLength.
type Loop struct {
	MaxAttempts int
	MaxLength   int
	Logger      *slog.Logger
	Backend     string // Names the backend in attempt logs.
	Provider    string // Names the service in EmptyGenerationError.
}

func (l Loop) maxAttempts() int {
	if l.MaxAttempts > 0 {
		return l.MaxAttempts
	}
	return MaxAttempts
}

func (l Loop) maxLength() int {
	if l.MaxLength > 0 {
		return l.MaxLength
	}
	return post.MaxLength
}

// Run executes attempts sequentially. Exchange errors abort immediately;
// only over-long posts are retried.
func (l Loop) Run(ctx context.Context, plan PlanFunc, exchange ExchangeFunc) (post.Candidate, error) {
	log := DiscardLogger(l.Logger)
	limit := l.maxLength()
	budget := l.maxAttempts()

	var previous *Reply
	for n := range budget {
		attempt := plan(n, previous)

		reply, err := exchange(ctx, attempt)
		if err != nil {
			return post.Candidate{}, err
		}

		candidate := post.NewCandidate(reply.Text)
		if candidate.Text == "" {
			return post.Candidate{}, &EmptyGenerationError{Backend: l.Provider}
		}

		accepted := candidate.Length <= limit
		log.DebugContext(ctx, "generation attempt",
			"backend", l.Backend,
			"attempt", n+1,
			"length", candidate.Length,
			"limit", limit,
			"accepted", accepted,
		)

		if accepted {
			return candidate, nil
		}

		previous = &reply
	}

	return post.Candidate{}, &RetryExhaustedError{Limit: limit, Attempts: budget}
}
