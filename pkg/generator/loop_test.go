package generator_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/germanamz/herald/pkg/generator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- test helpers ---

func fixedPlan(index int, previous *generator.Reply) generator.Attempt {
	a := generator.Attempt{Index: index, Input: "input"}
	if previous != nil {
		id := previous.ResponseID
		a.PreviousResponseID = &id
	}
	return a
}

// scripted returns an ExchangeFunc that replays replies in order and
// records every attempt it receives.
func scripted(replies []generator.Reply, errs []error) (generator.ExchangeFunc, *[]generator.Attempt) {
	var seen []generator.Attempt
	return func(_ context.Context, a generator.Attempt) (generator.Reply, error) {
		i := len(seen)
		seen = append(seen, a)
		if i < len(errs) && errs[i] != nil {
			return generator.Reply{}, errs[i]
		}
		return replies[i], nil
	}, &seen
}

var filler = strings.Repeat("x", 281)

// --- tests ---

func TestLoop_AcceptsFirstFit(t *testing.T) {
	exchange, seen := scripted([]generator.Reply{{Text: "short post"}}, nil)

	c, err := generator.Loop{}.Run(context.Background(), fixedPlan, exchange)
	require.NoError(t, err)
	assert.Equal(t, "short post", c.Text)
	assert.Len(t, *seen, 1)
}

func TestLoop_RetriesUntilFit(t *testing.T) {
	good := "Short enough response!"
	exchange, seen := scripted([]generator.Reply{
		{Text: filler, ResponseID: "resp_1"},
		{Text: filler, ResponseID: "resp_2"},
		{Text: good, ResponseID: "resp_3"},
	}, nil)

	c, err := generator.Loop{}.Run(context.Background(), fixedPlan, exchange)
	require.NoError(t, err)
	assert.Equal(t, good, c.Text)
	require.Len(t, *seen, 3)

	attempts := *seen
	assert.Nil(t, attempts[0].PreviousResponseID)
	require.NotNil(t, attempts[1].PreviousResponseID)
	assert.Equal(t, "resp_1", *attempts[1].PreviousResponseID)
	require.NotNil(t, attempts[2].PreviousResponseID)
	assert.Equal(t, "resp_2", *attempts[2].PreviousResponseID)

	for i, a := range attempts {
		assert.Equal(t, i, a.Index)
	}
}

func TestLoop_Exhausted(t *testing.T) {
	exchange, seen := scripted([]generator.Reply{{Text: filler}, {Text: filler}, {Text: filler}}, nil)

	_, err := generator.Loop{}.Run(context.Background(), fixedPlan, exchange)

	var exhausted *generator.RetryExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 280, exhausted.Limit)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.Contains(t, err.Error(), "280")
	assert.Contains(t, err.Error(), "3")
	assert.Len(t, *seen, 3)
}

func TestLoop_BoundaryIsInclusive(t *testing.T) {
	exactly := strings.Repeat("y", 280)
	exchange, seen := scripted([]generator.Reply{{Text: exactly}}, nil)

	c, err := generator.Loop{}.Run(context.Background(), fixedPlan, exchange)
	require.NoError(t, err)
	assert.Equal(t, 280, c.Length)
	assert.Len(t, *seen, 1)
}

func TestLoop_EmojiCountsTwiceAtBoundary(t *testing.T) {
	over := "🎉" + strings.Repeat("a", 279)
	fits := "🎉" + strings.Repeat("a", 278)
	exchange, seen := scripted([]generator.Reply{{Text: over}, {Text: fits}}, nil)

	c, err := generator.Loop{}.Run(context.Background(), fixedPlan, exchange)
	require.NoError(t, err)
	assert.Equal(t, fits, c.Text)
	assert.Equal(t, 280, c.Length)
	assert.Len(t, *seen, 2)
}

func TestLoop_MeasuresAfterSanitizing(t *testing.T) {
	quoted := `"` + strings.Repeat("q", 280) + `"`
	exchange, _ := scripted([]generator.Reply{{Text: quoted}}, nil)

	c, err := generator.Loop{}.Run(context.Background(), fixedPlan, exchange)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("q", 280), c.Text)
}

func TestLoop_TransportErrorIsNotRetried(t *testing.T) {
	transportErr := &generator.TransportError{Op: "chat completion", StatusCode: 500, Status: "Internal Server Error"}
	exchange, seen := scripted(nil, []error{transportErr})

	_, err := generator.Loop{}.Run(context.Background(), fixedPlan, exchange)

	var te *generator.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 500, te.StatusCode)
	assert.Len(t, *seen, 1)
}

func TestLoop_TransportErrorAfterRetry(t *testing.T) {
	transportErr := &generator.TransportError{Op: "response generation", StatusCode: 502, Status: "Bad Gateway"}
	exchange, seen := scripted([]generator.Reply{{Text: filler}}, []error{nil, transportErr})

	_, err := generator.Loop{}.Run(context.Background(), fixedPlan, exchange)

	assert.ErrorIs(t, err, transportErr)
	assert.Len(t, *seen, 2)
}

func TestLoop_EmptyAfterSanitizingIsNotRetried(t *testing.T) {
	exchange, seen := scripted([]generator.Reply{{Text: `""`}}, nil)

	_, err := generator.Loop{Provider: "OpenAI"}.Run(context.Background(), fixedPlan, exchange)

	var empty *generator.EmptyGenerationError
	require.ErrorAs(t, err, &empty)
	assert.EqualError(t, err, "no content received from OpenAI")
	assert.Len(t, *seen, 1)
}

func TestLoop_CustomBudget(t *testing.T) {
	exchange, seen := scripted([]generator.Reply{{Text: "abcdef"}, {Text: "abc"}}, nil)

	c, err := generator.Loop{MaxAttempts: 2, MaxLength: 3}.Run(context.Background(), fixedPlan, exchange)
	require.NoError(t, err)
	assert.Equal(t, "abc", c.Text)
	assert.Len(t, *seen, 2)
}

func TestLoop_LogsAttempts(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	exchange, _ := scripted([]generator.Reply{{Text: filler}, {Text: "ok"}}, nil)

	_, err := generator.Loop{Logger: log, Backend: "test"}.Run(context.Background(), fixedPlan, exchange)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "attempt=1")
	assert.Contains(t, out, "length=281")
	assert.Contains(t, out, "accepted=false")
	assert.Contains(t, out, "attempt=2")
	assert.Contains(t, out, "accepted=true")
}

func TestLoop_ContextErrorPropagates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exchange := func(ctx context.Context, _ generator.Attempt) (generator.Reply, error) {
		return generator.Reply{}, ctx.Err()
	}

	_, err := generator.Loop{}.Run(ctx, fixedPlan, exchange)
	assert.True(t, errors.Is(err, context.Canceled))
}
