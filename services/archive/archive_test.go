package archive

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trading_assistant/models"
	"trading_assistant/services/sentiment"
)

func TestDisabledServiceIsNoOp(t *testing.T) {
	s, err := NewService("")
	require.NoError(t, err)
	assert.False(t, s.Enabled())

	// With no backing store every write is a silent no-op and reads
	// come back empty.
	s.RecordDelivery("push", "title", true)
	s.RecordTriggeredReminder(&models.Reminder{ID: 1, Title: "x"})
	s.SaveSentimentSnapshot(&sentiment.CombinedReport{Ticker: "NVDA"})

	snapshots, err := s.RecentSnapshots(context.Background(), "NVDA", 10)
	require.NoError(t, err)
	assert.Empty(t, snapshots)

	assert.NoError(t, s.Close())
}
