package compiler

import (
	"fmt"
	"log/slog"

	"github.com/roach88/datagrid/internal/spec"
)

// Writer applies one specification node to a target.
//
// Write returns handled=false, without touching the target, when it does not
// support the target type or does not recognize the node. It returns an
// error only for nodes it recognizes but cannot write.
type Writer interface {
	Write(target any, s spec.Specification, c *Compiler) (handled bool, err error)
}

// WriterFunc adapts a function to the Writer interface.
type WriterFunc func(target any, s spec.Specification, c *Compiler) (bool, error)

// Write calls f.
func (f WriterFunc) Write(target any, s spec.Specification, c *Compiler) (bool, error) {
	return f(target, s, c)
}

// Checkpointer is implemented by targets that can undo builder calls.
// Checkpoint captures the current state; calling restore returns to it.
type Checkpointer interface {
	Checkpoint() (restore func())
}

// Compiler dispatches specifications to writers.
type Compiler struct {
	writers []Writer
	logger  *slog.Logger
	metrics *Metrics
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger used for dispatch diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records dispatch outcomes in m.
func WithMetrics(m *Metrics) Option {
	return func(c *Compiler) {
		c.metrics = m
	}
}

// New creates a Compiler trying writers in the given order.
func New(writers []Writer, opts ...Option) *Compiler {
	c := &Compiler{
		writers: append([]Writer(nil), writers...),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Writers returns a copy of the writer list.
func (c *Compiler) Writers() []Writer {
	return append([]Writer(nil), c.writers...)
}

// Compile applies specs to target left to right and returns the ones no
// writer handled.
//
// On error the remaining specs are skipped and, when target implements
// Checkpointer, every call made by this Compile is undone.
func (c *Compiler) Compile(target any, specs ...spec.Specification) (unhandled []spec.Specification, err error) {
	if cp, ok := target.(Checkpointer); ok {
		restore := cp.Checkpoint()
		defer func() {
			if err != nil {
				restore()
			}
		}()
	}

	for _, s := range specs {
		handled, werr := c.write(target, s)
		if werr != nil {
			return nil, werr
		}
		if !handled {
			unhandled = append(unhandled, s)
		}
	}
	return unhandled, nil
}

// write offers s to each writer until one handles it.
func (c *Compiler) write(target any, s spec.Specification) (bool, error) {
	kind := Kind(s)
	for _, w := range c.writers {
		handled, err := w.Write(target, s, c)
		if err != nil {
			c.metrics.observe(kind, outcomeError)
			c.logger.Debug("specification write failed",
				"kind", kind,
				"target", fmt.Sprintf("%T", target),
				"error", err)
			return false, err
		}
		if handled {
			c.metrics.observe(kind, outcomeWritten)
			return true, nil
		}
	}

	c.metrics.observe(kind, outcomeUnhandled)
	c.logger.Debug("specification not handled by any writer",
		"kind", kind,
		"target", fmt.Sprintf("%T", target),
		"writers", len(c.writers))
	return false, nil
}

// Kind returns a short name for a specification node, e.g. "spec.Equals".
func Kind(s spec.Specification) string {
	u := spec.Unwrap(s)
	if u == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", u)
}
