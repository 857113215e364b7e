package aitime

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ TimeService = (*Service)(nil)
	_ TimeService = (*MockTimeService)(nil)
)

// TestTimeServiceContract runs the same phrases through both implementations.
func TestTimeServiceContract(t *testing.T) {
	ctx := context.Background()
	mock := NewMockTimeService()
	fixedNow := reference
	mock.FixedNow = &fixedNow

	impls := map[string]TimeService{
		"service": NewService("UTC"),
		"mock":    mock,
	}

	for name, svc := range impls {
		t.Run(name, func(t *testing.T) {
			got, err := svc.ParseTimeRequest(ctx, "next tuesday at 3pm", reference)
			require.NoError(t, err)
			assert.Equal(t, "2026-10-20", got.DateString())
			assert.Equal(t, "15:00-16:00", got.Window.String())
			assert.True(t, got.IsExact)
		})
	}

	assert.Equal(t, []string{"next tuesday at 3pm"}, mock.Calls())
}

func TestMockTimeService_Err(t *testing.T) {
	mock := NewMockTimeService()
	mock.Err = errors.New("boom")

	_, err := mock.ParseTimeRequest(context.Background(), "today", time.Now())
	assert.EqualError(t, err, "boom")
}
