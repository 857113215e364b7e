package aitime

import (
	"context"
	"time"

	"github.com/hrygo/freeslot/server/timezone"
)

// Service implements TimeService with rule-based parsing.
type Service struct {
	parser *Parser
}

// NewService creates a new time service. An unknown timezone falls back to UTC.
func NewService(defaultTimezone string) *Service {
	loc, err := timezone.ParseTimezone(defaultTimezone)
	if err != nil {
		loc = timezone.UTC
	}
	return &Service{
		parser: NewParser(loc),
	}
}

// ParseTimeRequest parses text relative to reference. A zero reference means
// now in the service's default timezone.
func (s *Service) ParseTimeRequest(ctx context.Context, text string, reference time.Time) (TimeRequest, error) {
	if err := ctx.Err(); err != nil {
		return TimeRequest{}, err
	}

	parser := s.parser
	if !reference.IsZero() {
		// Relative dates resolve against reference, in its own location.
		parser = parser.WithTimezone(reference.Location())
		parser.now = func() time.Time { return reference }
	}
	return parser.Parse(text)
}
