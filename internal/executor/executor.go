// Package executor validates invocation requests against registered
// descriptors and runs the underlying callables, normalizing every
// outcome into a JSON-safe InvocationResult. Nothing escapes it as a
// Go error: failures become error-status results the model can read.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/storepilot/storepilot/internal/provider"
	"github.com/storepilot/storepilot/internal/registry"
)

// ToolExecutionError wraps a failure raised by a registered callable.
type ToolExecutionError struct {
	Op  string
	Err error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("operation %q failed: %v", e.Op, e.Err)
}

func (e *ToolExecutionError) Unwrap() error { return e.Err }

// Config tunes an Executor.
type Config struct {
	// Workers bounds how many blocking callables run at once.
	Workers int
	// InvocationTimeout applies to each individual invocation.
	InvocationTimeout time.Duration
	// MaxSequenceLen bounds lists in normalized payloads; longer
	// sequences are truncated with a marker element.
	MaxSequenceLen int
}

func (c *Config) setDefaults() {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.InvocationTimeout <= 0 {
		c.InvocationTimeout = 30 * time.Second
	}
	if c.MaxSequenceLen <= 0 {
		c.MaxSequenceLen = 500
	}
}

// Executor runs invocation requests against a registry.
type Executor struct {
	reg  *registry.Registry
	pool *workerPool
	cfg  Config
}

// New builds an executor over reg.
func New(reg *registry.Registry, cfg Config) *Executor {
	cfg.setDefaults()
	return &Executor{
		reg:  reg,
		pool: newWorkerPool(cfg.Workers),
		cfg:  cfg,
	}
}

// Execute resolves, validates, and runs one invocation request. The
// returned result always carries the request's correlation ID; lookup
// misses, validation failures, callable errors, and panics all surface
// as error-status results, never as Go errors.
func (e *Executor) Execute(ctx context.Context, req provider.InvocationRequest) provider.InvocationResult {
	start := time.Now()

	desc, err := e.reg.Get(req.Name)
	if err != nil {
		log.Warn().Str("operation", req.Name).Msg("invocation of unknown operation")
		return provider.ErrorResult(req.ID, err)
	}

	args, verr := validateArgs(desc.Schema, req.Arguments)
	if verr != nil {
		log.Warn().Str("operation", req.Name).Str("detail", verr.Error()).Msg("invocation rejected")
		return provider.ErrorResult(req.ID, verr)
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.InvocationTimeout)
	defer cancel()

	var out any
	if desc.Blocking {
		out, err = e.pool.Run(ctx, func() (any, error) {
			return desc.Invoke(ctx, args)
		})
	} else {
		out, err = safeInvoke(ctx, desc, args)
	}
	if err != nil {
		log.Warn().Err(err).Str("operation", req.Name).Msg("invocation failed")
		return provider.ErrorResult(req.ID, &ToolExecutionError{Op: req.Name, Err: err})
	}

	payload, err := normalize(out, e.cfg.MaxSequenceLen)
	if err != nil {
		return provider.ErrorResult(req.ID, &ToolExecutionError{Op: req.Name, Err: err})
	}

	log.Debug().
		Str("operation", req.Name).
		Dur("duration", time.Since(start)).
		Msg("invocation completed")
	return provider.OKResult(req.ID, payload)
}

// safeInvoke runs the callable inline, converting panics into errors.
func safeInvoke(ctx context.Context, desc *registry.Descriptor, args map[string]any) (out any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out = nil
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return desc.Invoke(ctx, args)
}
