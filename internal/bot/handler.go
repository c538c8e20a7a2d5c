// Package bot runs the intake conversation: the client and partner forms,
// the "my requests" lookup and the admin commands. Telegram updates are
// routed by text and by the per-chat fsm state.
package bot

import (
	"context"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"leadflow/internal/lead"
	"leadflow/internal/metrics"
	"leadflow/internal/notify"
)

// Store is the subset of the record store the bot needs.
type Store interface {
	Append(ctx context.Context, sub lead.Submission, kind lead.Kind, chatID int64) (int, error)
	FindByIdentifier(ctx context.Context, identifier string) ([]lead.Record, error)
	FindByID(ctx context.Context, id string) (lead.Record, error)
	UpdateStatus(ctx context.Context, id, status string, comment *string) error
	ReadAll(ctx context.Context) (lead.Snapshot, error)
}

// Announcer tells admins about new leads.
type Announcer interface {
	AnnounceLead(ctx context.Context, rec lead.Record, attachments []lead.Attachment) notify.Report
}

// Messenger is the chat transport.
type Messenger interface {
	Send(ctx context.Context, chatID int64, msg tgbotapi.Chattable) error
	SendPNG(ctx context.Context, chatID int64, name string, data []byte, caption string) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

// Handler processes Telegram updates.
type Handler struct {
	msg       Messenger
	store     Store
	announcer Announcer
	admins    map[int64]struct{}
	sessions  *sessions
	logger    *zap.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// Option configures a Handler.
type Option func(*Handler)

// WithAdmins sets the chats allowed to run /status and /summary.
func WithAdmins(ids []int64) Option {
	return func(h *Handler) {
		for _, id := range ids {
			h.admins[id] = struct{}{}
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithMetrics counts appends.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

// NewHandler creates a Handler.
func NewHandler(m Messenger, store Store, announcer Announcer, opts ...Option) *Handler {
	h := &Handler{
		msg:       m,
		store:     store,
		announcer: announcer,
		admins:    make(map[int64]struct{}),
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.sessions = newSessions(h.logger)
	return h
}

// Run handles updates until ctx is cancelled or the channel is closed.
// Updates are processed one at a time.
func (h *Handler) Run(ctx context.Context, updates <-chan tgbotapi.Update) error {
	h.logger.Info("🤖 Bot is listening for updates")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			h.safeHandle(ctx, upd)
		}
	}
}

func (h *Handler) safeHandle(ctx context.Context, upd tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("❌ Panic while handling update",
				zap.Int("update_id", upd.UpdateID),
				zap.Any("panic", r),
			)
		}
	}()
	h.Handle(ctx, upd)
}

// Handle routes one update.
func (h *Handler) Handle(ctx context.Context, upd tgbotapi.Update) {
	switch {
	case upd.CallbackQuery != nil:
		h.handleCallback(ctx, upd.CallbackQuery)
	case upd.Message != nil && upd.Message.Chat != nil:
		h.handleMessage(ctx, upd.Message)
	}
}

func (h *Handler) isAdmin(chatID int64) bool {
	_, ok := h.admins[chatID]
	return ok
}

func (h *Handler) handleMessage(ctx context.Context, m *tgbotapi.Message) {
	chatID := m.Chat.ID
	text := strings.TrimSpace(m.Text)
	s := h.sessions.get(chatID)

	if name, args, ok := command(text); ok {
		h.handleCommand(ctx, s, name, args)
		return
	}

	switch text {
	case MenuNewRequest:
		h.fire(ctx, s, evNewRequest)
		return
	case BtnClient:
		h.fire(ctx, s, evClient)
		return
	case BtnPartner:
		h.fire(ctx, s, evPartner)
		return
	case MenuMyRequests:
		h.myRequests(ctx, s)
		return
	case MenuContacts:
		if s.Kind == lead.KindPartner {
			h.reply(ctx, chatID, msgContactsPartner)
		} else {
			h.reply(ctx, chatID, msgContactsClient)
		}
		return
	case MenuHelp:
		h.reply(ctx, chatID, msgHelp)
		return
	}

	switch s.State() {
	case stateIdle:
		h.replyWithMenu(ctx, chatID, msgUnknown)
	case stateChooseKind:
		h.prompt(ctx, s)
	case stateLookup:
		h.search(ctx, s, text)
	case statePartnerFiles:
		h.collectFile(ctx, s, m, text)
	default:
		h.answer(ctx, s, text)
	}
}

// command splits "/status@bot 12 Готово" into ("status", "12 Готово").
func command(text string) (name, args string, ok bool) {
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	head, rest, _ := strings.Cut(text[1:], " ")
	head, _, _ = strings.Cut(head, "@")
	if head == "" {
		return "", "", false
	}
	return strings.ToLower(head), strings.TrimSpace(rest), true
}

func (h *Handler) handleCommand(ctx context.Context, s *Session, name, args string) {
	switch name {
	case "start", "cancel":
		_ = s.Fire(ctx, evReset)
		h.replyWithMenu(ctx, s.ChatID, msgWelcome)
	case "help":
		h.reply(ctx, s.ChatID, msgHelp)
	case "status":
		if !h.requireAdmin(ctx, s.ChatID) {
			return
		}
		h.setStatus(ctx, s.ChatID, args)
	case "summary":
		if !h.requireAdmin(ctx, s.ChatID) {
			return
		}
		h.sendSummary(ctx, s.ChatID)
	default:
		h.replyWithMenu(ctx, s.ChatID, msgUnknown)
	}
}

func (h *Handler) requireAdmin(ctx context.Context, chatID int64) bool {
	if h.isAdmin(chatID) {
		return true
	}
	h.logger.Warn("admin command denied", zap.Int64("chat_id", chatID))
	h.reply(ctx, chatID, msgAdminOnly)
	return false
}

// fire moves the session and asks the question of the state it lands in.
func (h *Handler) fire(ctx context.Context, s *Session, event string) {
	if err := s.Fire(ctx, event); err != nil {
		h.logger.Warn("dialog event rejected",
			zap.Int64("chat_id", s.ChatID),
			zap.String("event", event),
			zap.String("state", s.State()),
			zap.Error(err),
		)
	}
	h.prompt(ctx, s)
}

func (h *Handler) prompt(ctx context.Context, s *Session) {
	st, ok := steps[s.State()]
	if !ok {
		h.replyWithMenu(ctx, s.ChatID, msgWelcome)
		return
	}
	msg := tgbotapi.NewMessage(s.ChatID, st.prompt)
	if len(st.keyboard) > 0 {
		msg.ReplyMarkup = replyKeyboard(st.keyboard)
	} else {
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	}
	h.send(ctx, s.ChatID, msg)
}

func (h *Handler) reply(ctx context.Context, chatID int64, text string) {
	h.send(ctx, chatID, tgbotapi.NewMessage(chatID, text))
}

func (h *Handler) replyWithMenu(ctx context.Context, chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = mainMenu()
	h.send(ctx, chatID, msg)
}

func (h *Handler) send(ctx context.Context, chatID int64, msg tgbotapi.Chattable) {
	if err := h.msg.Send(ctx, chatID, msg); err != nil {
		h.logger.Warn("⚠️  Failed to reply", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func mainMenu() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(MenuNewRequest)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(MenuMyRequests)),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(MenuContacts),
			tgbotapi.NewKeyboardButton(MenuHelp),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func replyKeyboard(rows [][]string) tgbotapi.ReplyKeyboardMarkup {
	buttons := make([][]tgbotapi.KeyboardButton, 0, len(rows))
	for _, row := range rows {
		r := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, label := range row {
			r = append(r, tgbotapi.NewKeyboardButton(label))
		}
		buttons = append(buttons, r)
	}
	kb := tgbotapi.NewReplyKeyboard(buttons...)
	kb.ResizeKeyboard = true
	return kb
}

func chatIDString(id int64) string { return strconv.FormatInt(id, 10) }
