package persistence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/talgya/idle-galaxy/internal/world"
)

// Saver is anything that can persist a snapshot.
type Saver interface {
	Save(ctx context.Context, st *world.State) error
}

// Mirror saves to Primary every time and copies to Secondary at most once per
// Interval. A Secondary failure never prevents the primary save.
type Mirror struct {
	Primary   Saver
	Secondary Saver // nil disables mirroring
	Interval  time.Duration

	Now    func() time.Time
	Logger *slog.Logger

	mu   sync.Mutex
	last time.Time
}

func (m *Mirror) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

func (m *Mirror) log() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.Default()
}

// Save writes st to the primary backend and, when due, to the secondary.
func (m *Mirror) Save(ctx context.Context, st *world.State) error {
	var errs []error
	if err := m.Primary.Save(ctx, st); err != nil {
		errs = append(errs, fmt.Errorf("primary save: %w", err))
	}
	if m.Secondary != nil && m.due() {
		if err := m.Secondary.Save(ctx, st); err != nil {
			m.log().Warn("mirror save failed", "error", err)
			errs = append(errs, fmt.Errorf("mirror save: %w", err))
		} else {
			m.mu.Lock()
			m.last = m.now()
			m.mu.Unlock()
		}
	}
	return errors.Join(errs...)
}

// Flush copies st to the secondary regardless of the interval.
func (m *Mirror) Flush(ctx context.Context, st *world.State) error {
	if m.Secondary == nil {
		return nil
	}
	if err := m.Secondary.Save(ctx, st); err != nil {
		return fmt.Errorf("mirror flush: %w", err)
	}
	m.mu.Lock()
	m.last = m.now()
	m.mu.Unlock()
	return nil
}

func (m *Mirror) due() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last.IsZero() || m.now().Sub(m.last) >= m.Interval
}
