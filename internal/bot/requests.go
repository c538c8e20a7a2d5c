package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	apperrors "leadflow/internal/errors"
	"leadflow/internal/lead"
)

const (
	cbDetailsPrefix = "req_details_"
	cbRefresh       = "refresh_requests"

	maxDescription = 200
)

// ownRequests returns the leads submitted from chatID. The identifier
// lookup also matches ids and phone digits, so results are narrowed to the
// requester's own chat.
func (h *Handler) ownRequests(ctx context.Context, chatID int64) ([]lead.Record, error) {
	recs, err := h.store.FindByIdentifier(ctx, chatIDString(chatID))
	if err != nil {
		return nil, err
	}
	own := recs[:0]
	for _, r := range recs {
		if r.RequesterChatID == chatIDString(chatID) {
			own = append(own, r)
		}
	}
	return own, nil
}

func (h *Handler) myRequests(ctx context.Context, s *Session) {
	recs, err := h.ownRequests(ctx, s.ChatID)
	if err != nil {
		h.logger.Error("❌ Lookup failed", zap.Int64("chat_id", s.ChatID), zap.Error(err))
		h.reply(ctx, s.ChatID, msgStoreUnavailable)
		return
	}
	if len(recs) == 0 {
		h.fire(ctx, s, evLookup)
		return
	}
	h.showRequests(ctx, s.ChatID, recs)
}

// search handles the phone or id typed while in the lookup state. The
// state is kept on a miss so the user can try again.
func (h *Handler) search(ctx context.Context, s *Session, query string) {
	recs, err := h.store.FindByIdentifier(ctx, query)
	if err != nil {
		h.logger.Error("❌ Lookup failed", zap.Int64("chat_id", s.ChatID), zap.Error(err))
		h.reply(ctx, s.ChatID, msgStoreUnavailable)
		return
	}
	if len(recs) == 0 {
		h.replyWithMenu(ctx, s.ChatID, msgNotFound)
		return
	}
	_ = s.Fire(ctx, evReset)
	h.showRequests(ctx, s.ChatID, recs)
}

func (h *Handler) showRequests(ctx context.Context, chatID int64, recs []lead.Record) {
	msg := tgbotapi.NewMessage(chatID, requestsText(recs))
	msg.ReplyMarkup = requestsKeyboard(recs)
	h.send(ctx, chatID, msg)
}

func requestsText(recs []lead.Record) string {
	var b strings.Builder
	b.WriteString(msgRequestsHeader)
	for _, r := range recs {
		b.WriteString(requestLine(r))
		b.WriteByte('\n')
	}
	return b.String()
}

func requestsKeyboard(recs []lead.Record) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(recs)+1)
	for _, r := range recs {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(BtnDetails, cbDetailsPrefix+r.ID),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(BtnRefresh, cbRefresh),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// requestLine renders "Заявка #12 | тип: Партнер | статус: Смета готова | дата: 17.12.2025 | сумма: 150 000".
func requestLine(r lead.Record) string {
	line := fmt.Sprintf("Заявка #%s | тип: %s | статус: %s | дата: %s", r.ID, r.Kind, r.Status, displayDate(r.CreatedAt))
	if amount := formatAmount(r.Amount); amount != "" {
		line += " | сумма: " + amount
	}
	return line
}

func displayDate(raw string) string {
	t, err := time.Parse(lead.TimeLayout, strings.TrimSpace(raw))
	if err != nil {
		return raw
	}
	return t.Format("02.01.2006")
}

// formatAmount groups digits by thousands with spaces. Non-numeric text is
// returned as typed; the "-" placeholder reads as no amount.
func formatAmount(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == lead.NoAmount {
		return ""
	}
	n, err := strconv.Atoi(strings.ReplaceAll(raw, " ", ""))
	if err != nil || n < 0 {
		return raw
	}
	digits := strconv.Itoa(n)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(d)
	}
	return b.String()
}

func detailsText(r lead.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📋 Заявка #%s\n", r.ID)
	fmt.Fprintf(&b, "👤 Тип: %s\n", r.Kind)
	fmt.Fprintf(&b, "📅 Дата: %s\n", r.CreatedAt)
	fmt.Fprintf(&b, "📊 Статус: %s\n", r.Status)
	if amount := formatAmount(r.Amount); amount != "" {
		fmt.Fprintf(&b, "💰 Сумма: %s\n", amount)
	}
	if r.Name != "" {
		fmt.Fprintf(&b, "👨‍💼 Имя: %s\n", r.Name)
	}
	if r.Phone != "" {
		fmt.Fprintf(&b, "📞 Телефон: %s\n", r.Phone)
	}
	if r.Comment != "" {
		desc := r.Comment
		if utf8.RuneCountInString(desc) > maxDescription {
			desc = string([]rune(desc)[:maxDescription]) + "..."
		}
		fmt.Fprintf(&b, "\n📝 Описание:\n%s\n", desc)
	}
	if r.HasAttachments() {
		b.WriteString("\n📂 Вложения: есть\n")
	}
	return b.String()
}

func (h *Handler) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	chatID := int64(0)
	switch {
	case cq.Message != nil && cq.Message.Chat != nil:
		chatID = cq.Message.Chat.ID
	case cq.From != nil:
		chatID = cq.From.ID
	default:
		return
	}

	switch {
	case strings.HasPrefix(cq.Data, cbDetailsPrefix):
		h.ackCallback(ctx, cq.ID, "")
		h.details(ctx, chatID, strings.TrimPrefix(cq.Data, cbDetailsPrefix))
	case cq.Data == cbRefresh:
		h.ackCallback(ctx, cq.ID, msgRefreshing)
		h.refresh(ctx, chatID, cq.Message)
	default:
		h.ackCallback(ctx, cq.ID, "")
	}
}

func (h *Handler) ackCallback(ctx context.Context, id, text string) {
	if err := h.msg.AnswerCallback(ctx, id, text); err != nil {
		h.logger.Debug("callback answer failed", zap.Error(err))
	}
}

func (h *Handler) details(ctx context.Context, chatID int64, id string) {
	rec, err := h.store.FindByID(ctx, id)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		h.reply(ctx, chatID, msgRequestGone)
	case err != nil:
		h.logger.Error("❌ Failed to load lead", zap.String("id", id), zap.Error(err))
		h.reply(ctx, chatID, msgLoadFailed)
	default:
		h.reply(ctx, chatID, detailsText(rec))
	}
}

// refresh re-reads the requester's leads and edits the list in place.
func (h *Handler) refresh(ctx context.Context, chatID int64, orig *tgbotapi.Message) {
	recs, err := h.ownRequests(ctx, chatID)
	if err != nil {
		h.logger.Error("❌ Refresh failed", zap.Int64("chat_id", chatID), zap.Error(err))
		h.reply(ctx, chatID, msgLoadFailed)
		return
	}
	if len(recs) == 0 {
		h.replyWithMenu(ctx, chatID, msgNoRequests)
		return
	}
	if orig == nil {
		h.showRequests(ctx, chatID, recs)
		return
	}

	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, orig.MessageID, requestsText(recs), requestsKeyboard(recs))
	err = h.msg.Send(ctx, chatID, edit)
	switch {
	case err == nil:
	case strings.Contains(err.Error(), "message is not modified"):
		h.logger.Debug("request list unchanged", zap.Int64("chat_id", chatID))
	default:
		h.logger.Warn("⚠️  Failed to refresh request list", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
