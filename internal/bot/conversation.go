package bot

import (
	"strings"
	"sync"
	"time"
)

// dateLayout is the format users type due dates in.
const dateLayout = "2006-01-02 15:04"

type conversationStage int

const (
	stageAwaitingDate conversationStage = iota + 1
	stageAwaitingContent
)

func (s conversationStage) String() string {
	switch s {
	case stageAwaitingDate:
		return "awaiting_date"
	case stageAwaitingContent:
		return "awaiting_content"
	default:
		return "none"
	}
}

type conversationState struct {
	stage conversationStage
	dueAt time.Time
}

func awaitingDate() conversationState {
	return conversationState{stage: stageAwaitingDate}
}

func awaitingContent(dueAt time.Time) conversationState {
	return conversationState{stage: stageAwaitingContent, dueAt: dueAt}
}

// conversations tracks the /remember dialog per chat.
type conversations struct {
	mu     sync.Mutex
	states map[int64]conversationState
}

func newConversations() *conversations {
	return &conversations{states: make(map[int64]conversationState)}
}

func (c *conversations) get(chatID int64) (conversationState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	state, ok := c.states[chatID]
	return state, ok
}

func (c *conversations) set(chatID int64, state conversationState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states[chatID] = state
}

func (c *conversations) clear(chatID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.states, chatID)
}

func parseDueAt(raw string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(dateLayout, strings.TrimSpace(raw), loc)
}
