// Package gateway maps the two logical model kinds onto configured model ids
// and enforces the per-call deadline.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/duet/internal/domain"
	"github.com/kailas-cloud/duet/internal/domain/chat"
	"github.com/kailas-cloud/duet/internal/logger"
	"github.com/kailas-cloud/duet/internal/metrics"
)

// DefaultTimeout bounds a single generation call.
const DefaultTimeout = 120 * time.Second

// Config names the model id behind each kind.
type Config struct {
	Simple   string
	Reasoned string
	Timeout  time.Duration
}

// Gateway invokes a model kind with a bounded timeout and no retries.
type Gateway struct {
	gen     Generator
	models  map[chat.Model]string
	timeout time.Duration
}

// New creates a Gateway.
func New(gen Generator, cfg Config) *Gateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Gateway{
		gen: gen,
		models: map[chat.Model]string{
			chat.ModelSimple:   cfg.Simple,
			chat.ModelReasoned: cfg.Reasoned,
		},
		timeout: cfg.Timeout,
	}
}

// Invoke sends prompt to the model behind kind and returns its text.
// Every failure wraps either domain.ErrUnreachable or domain.ErrGenerationFailed;
// a deadline hit is reported as unreachable.
func (g *Gateway) Invoke(ctx context.Context, kind chat.Model, prompt string) (string, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("%w: unknown model kind %q", domain.ErrValidation, kind)
	}
	model := g.models[kind]
	log := logger.FromContext(ctx).With(zap.String("model_kind", string(kind)), zap.String("model", model))

	cctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	text, err := g.gen.Generate(cctx, model, prompt)
	elapsed := time.Since(start)

	if err != nil {
		err = g.classify(cctx, kind, err)
		errType := "unreachable"
		if errors.Is(err, domain.ErrGenerationFailed) {
			errType = "generation_failed"
		}
		metrics.ModelRequestsTotal.WithLabelValues(string(kind), model, "error").Inc()
		metrics.ModelErrorsTotal.WithLabelValues(string(kind), errType).Inc()
		log.Warn("model call failed",
			zap.String("error_type", errType),
			zap.Duration("duration", elapsed),
			zap.Error(err))
		return "", err
	}

	metrics.ModelRequestsTotal.WithLabelValues(string(kind), model, "success").Inc()
	metrics.ModelRequestDuration.WithLabelValues(string(kind), model).Observe(elapsed.Seconds())
	log.Debug("model call",
		zap.Int("prompt_chars", len(prompt)),
		zap.Int("response_chars", len(text)),
		zap.Duration("duration", elapsed))

	return text, nil
}

func (g *Gateway) classify(ctx context.Context, kind chat.Model, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, domain.ErrGenerationFailed) {
		return fmt.Errorf("%w: %s model timed out after %s", domain.ErrUnreachable, kind, g.timeout)
	}
	if errors.Is(err, domain.ErrUnreachable) || errors.Is(err, domain.ErrGenerationFailed) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrUnreachable, err)
}
