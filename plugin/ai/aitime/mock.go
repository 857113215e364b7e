package aitime

import (
	"context"
	"sync"
	"time"
)

// MockTimeService is a TimeService for tests. It parses with a fixed clock
// and records every phrase it was asked about.
type MockTimeService struct {
	// FixedNow overrides the reference passed by callers.
	FixedNow *time.Time
	// Err, when set, is returned instead of parsing.
	Err error

	mu    sync.Mutex
	calls []string
}

// NewMockTimeService creates a new MockTimeService.
func NewMockTimeService() *MockTimeService {
	return &MockTimeService{}
}

// ParseTimeRequest implements TimeService.
func (m *MockTimeService) ParseTimeRequest(_ context.Context, text string, reference time.Time) (TimeRequest, error) {
	m.mu.Lock()
	m.calls = append(m.calls, text)
	m.mu.Unlock()

	if m.Err != nil {
		return TimeRequest{}, m.Err
	}
	if m.FixedNow != nil {
		reference = *m.FixedNow
	}
	parser := &Parser{
		timezone: reference.Location(),
		now:      func() time.Time { return reference },
	}
	return parser.Parse(text)
}

// Calls returns the phrases seen so far.
func (m *MockTimeService) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}
