package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"

	apperrors "leadflow/internal/errors"
	"leadflow/internal/lead"
	"leadflow/internal/summary"
)

// maxSummaryRows keeps the rendered image within Telegram's photo limits.
const maxSummaryRows = 40

// setStatus handles "/status <id> <status> [comment]".
func (h *Handler) setStatus(ctx context.Context, chatID int64, args string) {
	id, rest, _ := strings.Cut(strings.TrimSpace(args), " ")
	status, comment := splitStatus(rest)
	if id == "" || status == "" {
		h.reply(ctx, chatID, msgStatusUsage)
		return
	}

	var c *string
	if comment != "" {
		c = &comment
	}
	err := h.store.UpdateStatus(ctx, id, status, c)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		h.reply(ctx, chatID, msgRequestGone)
		return
	case err != nil:
		h.logger.Error("❌ Status update failed", zap.String("id", id), zap.Error(err))
		h.reply(ctx, chatID, msgStoreUnavailable)
		return
	}

	h.logger.Info("✏️ Status set by admin",
		zap.Int64("admin", chatID),
		zap.String("id", id),
		zap.String("status", status),
	)
	h.reply(ctx, chatID, fmt.Sprintf(msgStatusUpdated, id, lead.CanonicalStatus(status).Display()))
}

// splitStatus separates a leading status from the comment after it.
// Multi-word labels such as "Смета готова" are matched against the
// vocabulary (longest first); otherwise the first word is the status.
func splitStatus(s string) (status, comment string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ""
	}

	lower := strings.ToLower(s)
	best := ""
	for _, st := range lead.Statuses {
		for _, label := range []string{st.Display(), string(st)} {
			l := strings.ToLower(label)
			if len(l) <= len(best) || !strings.HasPrefix(lower, l) {
				continue
			}
			if rest := lower[len(l):]; rest != "" && !unicode.IsSpace([]rune(rest)[0]) {
				continue
			}
			best = l
		}
	}
	if best != "" {
		return s[:len(best)], strings.TrimSpace(s[len(best):])
	}

	status, comment, _ = strings.Cut(s, " ")
	return status, strings.TrimSpace(comment)
}

// sendSummary renders the open leads table and sends it as a photo.
func (h *Handler) sendSummary(ctx context.Context, chatID int64) {
	snap, err := h.store.ReadAll(ctx)
	if err != nil {
		h.logger.Error("❌ Summary read failed", zap.Error(err))
		h.reply(ctx, chatID, msgStoreUnavailable)
		return
	}

	open := summary.OpenLeads(snap)
	img, err := summary.RenderTable(summary.Limit(open, maxSummaryRows), h.now())
	switch {
	case errors.Is(err, summary.ErrNoLeads):
		h.reply(ctx, chatID, msgNoOpenLeads)
		return
	case err != nil:
		h.logger.Error("❌ Summary render failed", zap.Error(err))
		h.reply(ctx, chatID, msgLoadFailed)
		return
	}

	caption := fmt.Sprintf("Открытых заявок: %d", len(open))
	if err := h.msg.SendPNG(ctx, chatID, "summary.png", img, caption); err != nil {
		h.logger.Warn("⚠️  Failed to send summary", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
