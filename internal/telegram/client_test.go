package telegram

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "leadflow/internal/errors"
)

const apiBase = "https://api.telegram.org/botTOKEN/"

var okMessage = map[string]any{
	"ok": true,
	"result": map[string]any{
		"message_id": 1,
		"date":       0,
		"chat":       map[string]any{"id": 42, "type": "private"},
	},
}

func newTestClient(t *testing.T) (*Client, *httpmock.MockTransport) {
	t.Helper()
	mock := httpmock.NewMockTransport()
	mock.RegisterResponder(http.MethodPost, apiBase+"getMe",
		httpmock.NewJsonResponderOrPanic(http.StatusOK, map[string]any{
			"ok": true,
			"result": map[string]any{
				"id": 1, "is_bot": true, "first_name": "Leads", "username": "leadbot",
			},
		}))

	c, err := NewClient("TOKEN", WithHTTPClient(&http.Client{Transport: mock}), WithRate(0))
	require.NoError(t, err)
	return c, mock
}

func TestNewClient_Authorizes(t *testing.T) {
	c, _ := newTestClient(t)
	assert.Equal(t, "leadbot", c.Username())
}

func TestNewClient_RequiresToken(t *testing.T) {
	_, err := NewClient("")
	assert.Error(t, err)
}

func TestClient_SendMessage(t *testing.T) {
	c, mock := newTestClient(t)

	var chatID, text string
	mock.RegisterResponder(http.MethodPost, apiBase+"sendMessage", func(req *http.Request) (*http.Response, error) {
		if err := req.ParseForm(); err != nil {
			return nil, err
		}
		chatID = req.PostForm.Get("chat_id")
		text = req.PostForm.Get("text")
		return httpmock.NewJsonResponse(http.StatusOK, okMessage)
	})

	require.NoError(t, c.SendMessage(context.Background(), 42, "Статус изменён"))
	assert.Equal(t, "42", chatID)
	assert.Equal(t, "Статус изменён", text)
}

func TestClient_SendPhotoByFileID(t *testing.T) {
	c, mock := newTestClient(t)

	var photo, caption string
	mock.RegisterResponder(http.MethodPost, apiBase+"sendPhoto", func(req *http.Request) (*http.Response, error) {
		if err := req.ParseForm(); err != nil {
			return nil, err
		}
		photo = req.PostForm.Get("photo")
		caption = req.PostForm.Get("caption")
		return httpmock.NewJsonResponse(http.StatusOK, okMessage)
	})

	require.NoError(t, c.SendPhoto(context.Background(), 42, "AgACAgIAAxk", "план"))
	assert.Equal(t, "AgACAgIAAxk", photo)
	assert.Equal(t, "план", caption)
}

func TestClient_SendErrorIsTransportError(t *testing.T) {
	c, mock := newTestClient(t)
	mock.RegisterResponder(http.MethodPost, apiBase+"sendMessage",
		httpmock.NewJsonResponderOrPanic(http.StatusForbidden, map[string]any{
			"ok":          false,
			"error_code":  403,
			"description": "Forbidden: bot was blocked by the user",
		}))

	err := c.SendMessage(context.Background(), 42, "hi")
	require.Error(t, err)
	assert.True(t, apperrors.IsTransport(err))

	var te *apperrors.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, int64(42), te.ChatID)
	assert.Equal(t, "sendMessage", te.Method)

	var apiErr *tgbotapi.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 403, apiErr.Code)
}

func TestClient_DebugModeMakesNoCalls(t *testing.T) {
	mock := httpmock.NewMockTransport()
	c, err := NewClient("", WithDebugMode(true), WithHTTPClient(&http.Client{Transport: mock}))
	require.NoError(t, err)

	ctx := context.Background()
	assert.NoError(t, c.SendMessage(ctx, 1, "x"))
	assert.NoError(t, c.SendDocument(ctx, 1, "doc", ""))
	assert.NoError(t, c.SendPNG(ctx, 1, "summary.png", []byte{0x89, 'P', 'N', 'G'}, ""))
	assert.NoError(t, c.AnswerCallback(ctx, "cb", ""))
	assert.Equal(t, 0, mock.GetTotalCallCount())
	assert.Empty(t, c.Username())
}

func TestClient_DebugUpdatesCloseOnCancel(t *testing.T) {
	c, err := NewClient("", WithDebugMode(true))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	updates := c.Updates(ctx, 30)
	cancel()

	select {
	case _, ok := <-updates:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("updates channel not closed")
	}
}

func TestClient_NilClient(t *testing.T) {
	var c *Client
	err := c.SendMessage(context.Background(), 7, "x")
	assert.True(t, apperrors.IsTransport(err))
}
