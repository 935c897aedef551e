package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"forgotten/internal/media"
	"forgotten/internal/repository"
)

func newTestService(t *testing.T) (*ReminderService, *media.FileStore) {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())

	db, err := repository.NewDB(dsn)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	store := repository.NewStore(db)
	require.NoError(t, store.Initialize(context.Background()))

	mediaStore, err := media.NewFileStore(t.TempDir())
	require.NoError(t, err)

	return NewReminderService(store, mediaStore), mediaStore
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type sentMessage struct {
	ChatID int64
	Text   string
	Photo  []byte
}

var errSendFailed = errors.New("send failed")

type fakeMessenger struct {
	mu       sync.Mutex
	sent     []sentMessage
	failFor  map[int64]bool
	attempts int
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{failFor: make(map[int64]bool)}
}

func (m *fakeMessenger) SendText(_ context.Context, chatID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts++
	if m.failFor[chatID] {
		return errSendFailed
	}
	m.sent = append(m.sent, sentMessage{ChatID: chatID, Text: text})
	return nil
}

func (m *fakeMessenger) SendPhoto(_ context.Context, chatID int64, photo []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts++
	if m.failFor[chatID] {
		return errSendFailed
	}
	m.sent = append(m.sent, sentMessage{ChatID: chatID, Photo: photo})
	return nil
}

func (m *fakeMessenger) setFailing(chatID int64, failing bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failFor[chatID] = failing
}

func (m *fakeMessenger) messages() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMessage(nil), m.sent...)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
