package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultAPIBase = "https://api.telegram.org"

// Client is a minimal bot-API sender. It only implements the calls the
// dispatcher needs: sendMessage (optionally with an inline keyboard) and
// answerCallbackQuery.
type Client struct {
	token string
	base  string
	http  *http.Client
}

// New builds a client for one bot token.
func New(token string) *Client {
	return &Client{
		token: token,
		base:  defaultAPIBase,
		http:  &http.Client{Timeout: 10 * time.Second},
	}
}

// NewWithBase overrides the API host; tests point this at a local server.
func NewWithBase(token, base string) *Client {
	c := New(token)
	c.base = base
	return c
}

// InlineButton is one tappable button carrying an opaque callback payload.
type InlineButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

// InlineKeyboard is the reply-markup grid attached to a message.
type InlineKeyboard struct {
	Rows [][]InlineButton `json:"inline_keyboard"`
}

// Message is one outbound chat message.
type Message struct {
	ChatID    string          `json:"chat_id"`
	Text      string          `json:"text"`
	ParseMode string          `json:"parse_mode,omitempty"`
	Markup    *InlineKeyboard `json:"reply_markup,omitempty"`
}

// SendMessage delivers one message. The caller decides whether failures
// matter; the dispatcher treats them as best-effort.
func (c *Client) SendMessage(ctx context.Context, msg Message) error {
	return c.call(ctx, "sendMessage", msg)
}

// AnswerCallback acknowledges an inline-button press, optionally with a
// short toast text (used for action errors).
func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string) error {
	payload := map[string]string{"callback_query_id": callbackID}
	if text != "" {
		payload["text"] = text
	}
	return c.call(ctx, "answerCallbackQuery", payload)
}

func (c *Client) call(ctx context.Context, method string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", method, err)
	}
	url := fmt.Sprintf("%s/bot%s/%s", c.base, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s: status %d: %s", method, resp.StatusCode, snippet)
	}
	return nil
}
