// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package registry maps operation names to handlers. It validates
// caller-supplied arguments against each operation's declared parameters,
// runs the handler, and always answers with a uniform result envelope.
// Discovery and dispatch read the same table, so an operation that is
// listed can always be invoked.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/serpfire/pkg/types"
)

// ErrUnknownOperation is returned by Invoke for names that were never
// registered. It is a protocol-level error, not a failed envelope.
var ErrUnknownOperation = errors.New("unknown operation")

// Handler runs one operation. A returned error becomes a failed envelope.
type Handler func(ctx context.Context, args Args) (types.Envelope, error)

// Operation is one named, invocable unit.
type Operation struct {
	Name        string
	Description string
	Params      []Param
	Handler     Handler
}

// Descriptor is the discovery view of an operation.
type Descriptor struct {
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description" yaml:"description"`
	InputSchema json.RawMessage `json:"inputSchema" yaml:"-"`
}

// Registry holds the registered operations. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	ops   map[string]Operation
	order []string
	log   *zap.Logger
}

// New returns an empty Registry. A nil logger discards output.
func New(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{ops: make(map[string]Operation), log: log}
}

// Register adds op. Names must be non-empty and unique.
func (r *Registry) Register(op Operation) error {
	if op.Name == "" {
		return errors.New("registering operation: empty name")
	}
	if op.Handler == nil {
		return fmt.Errorf("registering operation %s: nil handler", op.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.ops[op.Name]; dup {
		return fmt.Errorf("registering operation %s: already registered", op.Name)
	}
	r.ops[op.Name] = op
	r.order = append(r.order, op.Name)
	return nil
}

// List describes every registered operation in registration order.
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		op := r.ops[name]
		out = append(out, Descriptor{
			Name:        op.Name,
			Description: op.Description,
			InputSchema: InputSchema(op.Params),
		})
	}
	return out
}

// Lookup returns the operation registered under name.
func (r *Registry) Lookup(name string) (Operation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.ops[name]
	return op, ok
}

// Invoke validates args and runs the named operation. The only error
// returned is ErrUnknownOperation (wrapped); every other outcome, including
// invalid arguments and handler failures, is an envelope.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (types.Envelope, error) {
	op, ok := r.Lookup(name)
	if !ok {
		return types.Envelope{}, fmt.Errorf("%w: %s", ErrUnknownOperation, name)
	}

	log := r.log.With(zap.String("operation", name), zap.String("invocation_id", uuid.NewString()))
	start := time.Now()

	valid, err := Validate(op.Params, args)
	if err != nil {
		log.Info("rejected arguments", zap.Error(err))
		return types.ErrorEnvelope("invalid arguments: " + err.Error()), nil
	}

	env := run(ctx, op, valid)
	log.Info("operation finished",
		zap.Bool("is_error", env.IsError),
		zap.Duration("elapsed", time.Since(start)))
	return env, nil
}

// run calls the handler, converting errors and panics into failed envelopes.
func run(ctx context.Context, op Operation, args Args) (env types.Envelope) {
	defer func() {
		if p := recover(); p != nil {
			env = types.ErrorEnvelope(fmt.Sprintf("%s failed: %v", op.Name, p))
		}
	}()
	env, err := op.Handler(ctx, args)
	if err != nil {
		return types.ErrorEnvelope(err.Error())
	}
	return env
}
