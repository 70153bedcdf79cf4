package generator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/germanamz/herald/pkg/post"
	"github.com/germanamz/herald/pkg/release"
)

// Middleware wraps a Generator, returning a new Generator with added behaviour.
type Middleware func(next Generator) Generator

// Chain applies mws to g. The first middleware is the outermost.
func Chain(g Generator, mws ...Middleware) Generator {
	for i := len(mws) - 1; i >= 0; i-- {
		g = mws[i](g)
	}
	return g
}

// --- Timeout middleware ---

// Timeout returns a Middleware that bounds the whole call, all attempts
// included, with a deadline.
func Timeout(d time.Duration) Middleware {
	return func(next Generator) Generator {
		return Func(func(ctx context.Context, projectName string, rel release.Record) (string, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()

			return next.GenerateSocialPost(ctx, projectName, rel)
		})
	}
}

// --- Recovery middleware ---

// Recovery returns a Middleware that catches panics and converts them to errors.
func Recovery() Middleware {
	return func(next Generator) Generator {
		return Func(func(ctx context.Context, projectName string, rel release.Record) (text string, err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("generator panicked: %v", r)
				}
			}()

			return next.GenerateSocialPost(ctx, projectName, rel)
		})
	}
}

// --- Logger middleware ---

// Logger returns a Middleware that logs generation start, duration, and error.
func Logger(log *slog.Logger, backend string) Middleware {
	return func(next Generator) Generator {
		return Func(func(ctx context.Context, projectName string, rel release.Record) (string, error) {
			log.InfoContext(ctx, "generation started",
				"backend", backend,
				"project", projectName,
				"version", rel.Version,
			)

			start := time.Now()

			text, err := next.GenerateSocialPost(ctx, projectName, rel)

			duration := time.Since(start)

			if err != nil {
				log.ErrorContext(ctx, "generation finished with error",
					"backend", backend,
					"duration", duration,
					"error", err,
				)
			} else {
				log.InfoContext(ctx, "generation finished",
					"backend", backend,
					"duration", duration,
					"length", post.Length(text),
				)
			}

			return text, err
		})
	}
}
