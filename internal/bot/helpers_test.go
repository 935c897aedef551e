package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"

	"forgotten/internal/media"
	"forgotten/internal/repository"
	"forgotten/internal/service"
)

const (
	testToken = "TEST"
	ownerID   = int64(1000)
	// failingChat makes the fake API answer with an error.
	failingChat = int64(13)
)

type apiCall struct {
	Method string
	ChatID int64
	Text   string
	Photo  []byte
}

// fakeTelegram serves the subset of the Bot API the bot uses.
type fakeTelegram struct {
	t   *testing.T
	srv *httptest.Server

	mu    sync.Mutex
	calls []apiCall
	files map[string][]byte
}

func newFakeTelegram(t *testing.T) *fakeTelegram {
	t.Helper()

	f := &fakeTelegram{t: t, files: make(map[string][]byte)}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeTelegram) api() *tgbotapi.BotAPI {
	f.t.Helper()
	api, err := tgbotapi.NewBotAPIWithClient(testToken, f.srv.URL+"/bot%s/%s", f.srv.Client())
	require.NoError(f.t, err)
	return api
}

func (f *fakeTelegram) fileEndpoint() string {
	return f.srv.URL + "/file/bot%s/%s"
}

func (f *fakeTelegram) addFile(fileID string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[fileID] = data
}

func (f *fakeTelegram) serve(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/file/") {
		f.mu.Lock()
		data, ok := f.files[path.Base(r.URL.Path)]
		f.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
		return
	}

	method := path.Base(r.URL.Path)
	switch method {
	case "getMe":
		f.reply(w, map[string]any{"id": 1, "is_bot": true, "first_name": "Forgotten", "username": "forgotten_bot"})
	case "getFile":
		if err := r.ParseForm(); err != nil {
			f.fail(w, err.Error())
			return
		}
		fileID := r.FormValue("file_id")
		f.reply(w, map[string]any{"file_id": fileID, "file_path": "photos/" + fileID})
	case "sendMessage":
		if err := r.ParseForm(); err != nil {
			f.fail(w, err.Error())
			return
		}
		f.record(w, apiCall{Method: method, ChatID: parseChatID(r), Text: r.FormValue("text")})
	case "sendPhoto":
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			f.fail(w, err.Error())
			return
		}
		file, _, err := r.FormFile("photo")
		if err != nil {
			f.fail(w, err.Error())
			return
		}
		data, err := io.ReadAll(file)
		if err != nil {
			f.fail(w, err.Error())
			return
		}
		f.record(w, apiCall{Method: method, ChatID: parseChatID(r), Photo: data})
	default:
		f.fail(w, fmt.Sprintf("method %s not supported", method))
	}
}

func (f *fakeTelegram) record(w http.ResponseWriter, call apiCall) {
	if call.ChatID == failingChat {
		f.fail(w, "Bad Request: chat not found")
		return
	}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	id := len(f.calls)
	f.mu.Unlock()

	f.reply(w, map[string]any{"message_id": id, "date": time.Now().Unix(), "chat": map[string]any{"id": call.ChatID, "type": "private"}})
}

func (f *fakeTelegram) reply(w http.ResponseWriter, result any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": result})
}

func (f *fakeTelegram) fail(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error_code": 400, "description": description})
}

func (f *fakeTelegram) sent() []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]apiCall(nil), f.calls...)
}

// lastText returns the last text message sent to chatID.
func (f *fakeTelegram) lastText(chatID int64) string {
	calls := f.sent()
	for i := len(calls) - 1; i >= 0; i-- {
		if calls[i].ChatID == chatID && calls[i].Method == "sendMessage" {
			return calls[i].Text
		}
	}
	return ""
}

func parseChatID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(r.FormValue("chat_id"), 10, 64)
	return id
}

type testEnv struct {
	bot       *Bot
	telegram  *fakeTelegram
	reminders *service.ReminderService
	media     *media.FileStore
	location  *time.Location
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := repository.NewDB(fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano()))
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

	reminders := service.NewReminderService(store, mediaStore)
	telegram := newFakeTelegram(t)
	loc := time.FixedZone("UTC+3", 3*60*60)

	b := New(telegram.api(), reminders, mediaStore, Options{
		OwnerID:      ownerID,
		Location:     loc,
		FileEndpoint: telegram.fileEndpoint(),
	})

	return &testEnv{bot: b, telegram: telegram, reminders: reminders, media: mediaStore, location: loc}
}

// send feeds a message through the bot as if it came from the update loop.
func (e *testEnv) send(t *testing.T, msg *tgbotapi.Message) {
	t.Helper()
	require.NoError(t, e.bot.handleMessage(context.Background(), msg))
}

func (e *testEnv) addUser(t *testing.T, id int64, name string) {
	t.Helper()
	require.NoError(t, e.reminders.AddUser(context.Background(), id, name))
}

func commandMessage(chatID int64, text string) *tgbotapi.Message {
	cmd := strings.Fields(text)[0]
	return &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: chatID},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
	}
}

func textMessage(chatID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}, Text: text}
}

func photoMessage(chatID int64, fileIDs ...string) *tgbotapi.Message {
	sizes := make([]tgbotapi.PhotoSize, 0, len(fileIDs))
	for i, id := range fileIDs {
		sizes = append(sizes, tgbotapi.PhotoSize{FileID: id, FileUniqueID: id, Width: 90 * (i + 1), Height: 90 * (i + 1)})
	}
	return &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}, Photo: sizes}
}
