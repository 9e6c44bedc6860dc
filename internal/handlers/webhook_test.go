package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlorgames/parlor/internal/game"
	"github.com/parlorgames/parlor/internal/notifier"
)

// botRecorder fakes the bot API and records every call body.
type botRecorder struct {
	mu    sync.Mutex
	calls []map[string]interface{}
}

func (br *botRecorder) handler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	payload := map[string]interface{}{}
	_ = json.Unmarshal(body, &payload)
	payload["_method"] = r.URL.Path[strings.LastIndexByte(r.URL.Path, '/')+1:]
	br.mu.Lock()
	br.calls = append(br.calls, payload)
	br.mu.Unlock()
	fmt.Fprint(w, `{"ok":true}`)
}

func (br *botRecorder) textsTo(chatID string) []string {
	br.mu.Lock()
	defer br.mu.Unlock()
	var out []string
	for _, c := range br.calls {
		if c["_method"] == "sendMessage" && c["chat_id"] == chatID {
			if s, ok := c["text"].(string); ok {
				out = append(out, s)
			}
		}
	}
	return out
}

func (br *botRecorder) lastCallbackAnswer() string {
	br.mu.Lock()
	defer br.mu.Unlock()
	for i := len(br.calls) - 1; i >= 0; i-- {
		if br.calls[i]["_method"] == "answerCallbackQuery" {
			if s, ok := br.calls[i]["text"].(string); ok {
				return s
			}
			return ""
		}
	}
	return "<none>"
}

func setupWebhookTest(t *testing.T) (*Server, http.HandlerFunc, *botRecorder) {
	t.Helper()
	rec := &botRecorder{}
	api := httptest.NewServer(http.HandlerFunc(rec.handler))
	t.Cleanup(api.Close)

	bots := map[game.Variant]*notifier.Client{
		game.VariantDeduction: notifier.NewWithBase("test-token", api.URL),
	}
	srv := NewServer(logrus.New(), bots)
	srv.Store = game.NewStore(4, game.WithSink(srv.Dispatch))
	return srv, WebhookHandler(srv, game.VariantDeduction), rec
}

func postCommand(t *testing.T, h http.HandlerFunc, userID int64, name, text string) {
	t.Helper()
	upd := fmt.Sprintf(`{"update_id":1,"message":{"message_id":1,"from":{"id":%d,"first_name":%q},"chat":{"id":%d},"text":%q}}`,
		userID, name, userID, text)
	req := httptest.NewRequest(http.MethodPost, "/webhook/s/deduction", strings.NewReader(upd))
	w := httptest.NewRecorder()
	h(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func postCallback(t *testing.T, h http.HandlerFunc, userID int64, name, data string) {
	t.Helper()
	upd := fmt.Sprintf(`{"update_id":2,"callback_query":{"id":"cb1","from":{"id":%d,"first_name":%q},"data":%q}}`,
		userID, name, data)
	req := httptest.NewRequest(http.MethodPost, "/webhook/s/deduction", strings.NewReader(upd))
	w := httptest.NewRecorder()
	h(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestNewCommandOpensSession(t *testing.T) {
	srv, h, rec := setupWebhookTest(t)
	postCommand(t, h, 100, "Ann", "/new 3")

	open := srv.Store.OpenSessions()
	require.Len(t, open, 1)
	assert.Equal(t, 3, open[0].Capacity)
	assert.Equal(t, 1, open[0].Seated)

	texts := rec.textsTo("100")
	require.NotEmpty(t, texts)
	assert.Contains(t, texts[len(texts)-1], "opened for 3 players")
}

func TestJoinCallbackSeatsPlayer(t *testing.T) {
	srv, h, rec := setupWebhookTest(t)
	postCommand(t, h, 100, "Ann", "/new 2")
	open := srv.Store.OpenSessions()
	require.Len(t, open, 1)

	postCallback(t, h, 200, "Ben", "join:"+open[0].ID.String())

	// Filling the last seat starts the session; deals arrive async.
	assert.Eventually(t, func() bool {
		for _, text := range rec.textsTo("200") {
			if strings.Contains(text, "Your card") {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
	assert.Empty(t, srv.Store.OpenSessions())
}

func TestCallbackErrorsBecomeToasts(t *testing.T) {
	_, h, rec := setupWebhookTest(t)
	postCallback(t, h, 300, "Cat", "play:5")

	assert.Eventually(t, func() bool {
		return rec.lastCallbackAnswer() == game.ErrRoomNotFound.Error()
	}, time.Second, 10*time.Millisecond)
}

func TestExitCommandLeaves(t *testing.T) {
	srv, h, rec := setupWebhookTest(t)
	postCommand(t, h, 100, "Ann", "/new 2")
	require.Len(t, srv.Store.OpenSessions(), 1)

	postCommand(t, h, 100, "Ann", "/exit")
	assert.Empty(t, srv.Store.OpenSessions())
	texts := rec.textsTo("100")
	assert.Contains(t, texts[len(texts)-1], "You left the session")
}

func TestStatusWithoutSession(t *testing.T) {
	_, h, rec := setupWebhookTest(t)
	postCommand(t, h, 500, "Dot", "/status")
	texts := rec.textsTo("500")
	require.NotEmpty(t, texts)
	assert.Contains(t, texts[0], "not in a session")
}

func TestHelpCommand(t *testing.T) {
	_, h, rec := setupWebhookTest(t)
	postCommand(t, h, 600, "Eve", "/help")
	texts := rec.textsTo("600")
	require.NotEmpty(t, texts)
	assert.Contains(t, texts[0], "/new")
}
