// Package telegram provides the Bot API transport used for intake dialogs,
// requester notifications and admin announcements.
//
// All outbound calls pass through a shared rate limiter to stay under the
// Bot API's global flood limit. Failures are returned as
// *errors.TransportError carrying the method and chat id.
//
// In debug mode no request leaves the process: sends are logged and
// reported as successful.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	apperrors "leadflow/internal/errors"
)

// Client wraps a Bot API session.
type Client struct {
	bot       *tgbotapi.BotAPI
	limiter   *rate.Limiter
	logger    *zap.Logger
	DebugMode bool

	endpoint   string
	httpClient tgbotapi.HTTPClient
	perSecond  float64
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithDebugMode simulates every API call.
func WithDebugMode(debug bool) Option {
	return func(c *Client) { c.DebugMode = debug }
}

// WithRate limits outbound calls to perSecond; <= 0 disables limiting.
func WithRate(perSecond float64) Option {
	return func(c *Client) { c.perSecond = perSecond }
}

// WithEndpoint overrides the Bot API endpoint format (see tgbotapi.APIEndpoint).
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

// WithHTTPClient overrides the HTTP client used for API calls.
func WithHTTPClient(h tgbotapi.HTTPClient) Option {
	return func(c *Client) { c.httpClient = h }
}

// NewClient authenticates with the Bot API. In debug mode an empty token is
// accepted and no network call is made.
func NewClient(token string, opts ...Option) (*Client, error) {
	c := &Client{
		logger:     zap.NewNop(),
		endpoint:   tgbotapi.APIEndpoint,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		perSecond:  25,
	}
	for _, opt := range opts {
		opt(c)
	}

	limit := rate.Inf
	if c.perSecond > 0 {
		limit = rate.Limit(c.perSecond)
	}
	c.limiter = rate.NewLimiter(limit, 1)

	if c.DebugMode {
		c.logger.Info("🐛 DEBUG MODE ENABLED - Telegram API calls will be simulated")
		return c, nil
	}
	if token == "" {
		return nil, errors.New("telegram: bot token is required")
	}

	bot, err := tgbotapi.NewBotAPIWithClient(token, c.endpoint, c.httpClient)
	if err != nil {
		return nil, fmt.Errorf("telegram: authorize bot: %w", err)
	}
	c.bot = bot
	c.logger.Info("✓ Telegram bot authorized", zap.String("username", bot.Self.UserName))
	return c, nil
}

// Username returns the bot's username, empty in debug mode.
func (c *Client) Username() string {
	if c == nil || c.bot == nil {
		return ""
	}
	return c.bot.Self.UserName
}

// Send delivers any Chattable (messages with keyboards, edits, ...).
func (c *Client) Send(ctx context.Context, chatID int64, msg tgbotapi.Chattable) error {
	if c == nil {
		return apperrors.NewTransportError("send", chatID, errors.New("telegram not configured"))
	}
	method := methodName(msg)
	if err := c.limiter.Wait(ctx); err != nil {
		return apperrors.NewTransportError(method, chatID, err)
	}
	if c.DebugMode {
		c.logger.Debug("🐛 DEBUG: simulated send", zap.Int64("chat_id", chatID), zap.String("type", fmt.Sprintf("%T", msg)))
		return nil
	}
	if _, err := c.bot.Send(msg); err != nil {
		return apperrors.NewTransportError(method, chatID, err)
	}
	return nil
}

func methodName(msg tgbotapi.Chattable) string {
	switch msg.(type) {
	case tgbotapi.MessageConfig:
		return "sendMessage"
	case tgbotapi.PhotoConfig:
		return "sendPhoto"
	case tgbotapi.DocumentConfig:
		return "sendDocument"
	case tgbotapi.EditMessageTextConfig:
		return "editMessageText"
	}
	return "send"
}

// SendMessage sends plain text.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	return c.Send(ctx, chatID, tgbotapi.NewMessage(chatID, text))
}

// SendPhoto sends an already uploaded photo by file id.
func (c *Client) SendPhoto(ctx context.Context, chatID int64, fileID, caption string) error {
	p := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(fileID))
	p.Caption = caption
	return c.Send(ctx, chatID, p)
}

// SendDocument sends an already uploaded document by file id.
func (c *Client) SendDocument(ctx context.Context, chatID int64, fileID, caption string) error {
	d := tgbotapi.NewDocument(chatID, tgbotapi.FileID(fileID))
	d.Caption = caption
	return c.Send(ctx, chatID, d)
}

// SendPNG uploads an in-memory image as a photo.
func (c *Client) SendPNG(ctx context.Context, chatID int64, name string, data []byte, caption string) error {
	p := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	p.Caption = caption
	return c.Send(ctx, chatID, p)
}

// AnswerCallback acknowledges an inline button press.
func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if c == nil || c.DebugMode {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	if _, err := c.bot.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return fmt.Errorf("answer callback: %w", err)
	}
	return nil
}

// Updates starts long polling and returns the update stream. The channel
// is closed after ctx is cancelled.
func (c *Client) Updates(ctx context.Context, timeoutSeconds int) <-chan tgbotapi.Update {
	out := make(chan tgbotapi.Update)
	if c == nil || c.DebugMode {
		go func() {
			<-ctx.Done()
			close(out)
		}()
		return out
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeoutSeconds
	in := c.bot.GetUpdatesChan(u)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				c.bot.StopReceivingUpdates()
				return
			case upd, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- upd:
				case <-ctx.Done():
					c.bot.StopReceivingUpdates()
					return
				}
			}
		}
	}()
	return out
}
