// Package plugin is a minimal host for storages: a named plugin whose
// observers are notified of lifecycle events.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/newthinker/recstore/internal/storage"
)

// Plugin dispatches named events to registered observers.
type Plugin struct {
	name   string
	logger *zap.Logger

	mu        sync.Mutex
	observers map[string][]storage.Hook
	cleanedUp bool
}

var _ storage.Observable = (*Plugin)(nil)

// New creates a plugin.
func New(name string, logger *zap.Logger) *Plugin {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Plugin{
		name:      name,
		logger:    logger.With(zap.String("plugin", name)),
		observers: make(map[string][]storage.Hook),
	}
}

// Name returns the plugin name.
func (p *Plugin) Name() string {
	return p.name
}

// AddObserver registers hook for event. Hooks run in registration order.
func (p *Plugin) AddObserver(event string, hook storage.Hook) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers[event] = append(p.observers[event], hook)
}

// Notify runs every observer of event. All observers run even if some fail;
// the failures are joined.
func (p *Plugin) Notify(ctx context.Context, event string) error {
	p.mu.Lock()
	hooks := append([]storage.Hook(nil), p.observers[event]...)
	p.mu.Unlock()

	var errs []error
	for _, hook := range hooks {
		if err := hook(ctx); err != nil {
			p.logger.Error("observer failed", zap.String("event", event), zap.Error(err))
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s: %s: %w", p.name, event, errors.Join(errs...))
	}
	return nil
}

// Cleanup fires the cleanup event. The plugin is torn down once: later calls
// do nothing.
func (p *Plugin) Cleanup(ctx context.Context) error {
	p.mu.Lock()
	if p.cleanedUp {
		p.mu.Unlock()
		return nil
	}
	p.cleanedUp = true
	p.mu.Unlock()

	p.logger.Debug("cleaning up")
	return p.Notify(ctx, storage.CleanupEvent)
}
