package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDueAt(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)

	got, err := parseDueAt(" 2031-06-15 08:05 ", loc)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2031, 6, 15, 13, 5, 0, 0, time.UTC)))

	for _, raw := range []string{"", "tomorrow", "2031-06-15", "15.06.2031 08:05", "2031-13-01 10:00"} {
		_, err := parseDueAt(raw, loc)
		assert.Error(t, err, raw)
	}
}

func TestConversations(t *testing.T) {
	c := newConversations()

	_, ok := c.get(1)
	assert.False(t, ok)

	c.set(1, awaitingDate())
	state, ok := c.get(1)
	require.True(t, ok)
	assert.Equal(t, stageAwaitingDate, state.stage)

	due := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)
	c.set(1, awaitingContent(due))
	state, _ = c.get(1)
	assert.Equal(t, stageAwaitingContent, state.stage)
	assert.Equal(t, due, state.dueAt)

	c.clear(1)
	_, ok = c.get(1)
	assert.False(t, ok)
}

func TestConversationStageString(t *testing.T) {
	assert.Equal(t, "awaiting_date", stageAwaitingDate.String())
	assert.Equal(t, "awaiting_content", stageAwaitingContent.String())
	assert.Equal(t, "none", conversationStage(0).String())
}
