package numbering

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"
)

const (
	Prefix = "ADU-"

	layout      = "20060102150405"
	maxAttempts = 120
	reserveTTL  = 48 * time.Hour
)

var numberRe = regexp.MustCompile(`^ADU-\d{14}$`)

// Reserver claims a key exactly once across all processes sharing the backend
type Reserver interface {
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Generator hands out timestamp-based complaint numbers. Two requests in the same
// second get consecutive seconds instead of colliding.
type Generator struct {
	reserver Reserver
	logger   *slog.Logger
	now      func() time.Time
}

func NewGenerator(reserver Reserver, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	if reserver == nil {
		reserver = NewMemoryReserver()
	}
	return &Generator{
		reserver: reserver,
		logger:   logger,
		now:      time.Now,
	}
}

// Format renders the number for instant t
func Format(t time.Time) string {
	return Prefix + t.Format(layout)
}

// IsValid reports whether s looks like a complaint number
func IsValid(s string) bool {
	return numberRe.MatchString(s)
}

// Next returns a fresh complaint number. When the reservation backend is unreachable
// the plain timestamp is returned; the unique index on complaint_number remains the
// final arbiter.
func (g *Generator) Next(ctx context.Context) (string, error) {
	base := g.now()

	for i := 0; i < maxAttempts; i++ {
		candidate := Format(base.Add(time.Duration(i) * time.Second))

		ok, err := g.reserver.Reserve(ctx, "complaint_number:"+candidate, reserveTTL)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			g.logger.Warn("complaint number reservation unavailable, using timestamp",
				slog.String("number", candidate),
				slog.Any("error", err),
			)
			return candidate, nil
		}
		if ok {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("no free complaint number after %d attempts", maxAttempts)
}

// MemoryReserver is a process-local Reserver for the CLI and tests
type MemoryReserver struct {
	mu   sync.Mutex
	keys map[string]time.Time
	now  func() time.Time
}

func NewMemoryReserver() *MemoryReserver {
	return &MemoryReserver{
		keys: make(map[string]time.Time),
		now:  time.Now,
	}
}

func (m *MemoryReserver) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if exp, ok := m.keys[key]; ok && now.Before(exp) {
		return false, nil
	}
	m.keys[key] = now.Add(ttl)
	return true, nil
}
