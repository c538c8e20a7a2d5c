package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"leadflow/internal/lead"
)

// answer stores a form answer and advances the flow.
func (h *Handler) answer(ctx context.Context, s *Session, text string) {
	st, ok := steps[s.State()]
	if !ok || st.field == "" {
		h.prompt(ctx, s)
		return
	}
	if text == "" {
		h.prompt(ctx, s)
		return
	}

	value := text
	if st.field == lead.FieldUsername && value == "-" {
		value = ""
	}
	s.Data[st.field] = value

	switch state := s.State(); {
	case state == statePartnerRole && text == BtnOther:
		h.fire(ctx, s, evOther)
	case state == statePartnerProject && text == BtnYesProject:
		h.fire(ctx, s, evUpload)
	case state == statePartnerTerms && text == lead.TermsCustom:
		h.fire(ctx, s, evCustom)
	case state == stateClientDescription || state == statePartnerTerms || state == statePartnerTermsCustom:
		h.submit(ctx, s)
	default:
		h.fire(ctx, s, evNext)
	}
}

var doneWords = map[string]bool{"готово": true, "done": true, "далее": true, "next": true}

// collectFile accepts photos and documents until the partner says done.
func (h *Handler) collectFile(ctx context.Context, s *Session, m *tgbotapi.Message, text string) {
	if doneWords[strings.ToLower(text)] {
		h.fire(ctx, s, evNext)
		return
	}

	switch {
	case len(m.Photo) > 0:
		// The last size is the largest.
		s.Attach(lead.Attachment{Kind: lead.AttachmentPhoto, FileID: m.Photo[len(m.Photo)-1].FileID})
	case m.Document != nil:
		s.Attach(lead.Attachment{Kind: lead.AttachmentDocument, FileID: m.Document.FileID})
	default:
		h.reply(ctx, s.ChatID, msgFileExpected)
		return
	}

	msg := tgbotapi.NewMessage(s.ChatID, msgFileReceived)
	msg.ReplyMarkup = replyKeyboard([][]string{{BtnDone}})
	h.send(ctx, s.ChatID, msg)
}

// submit appends the collected form. On failure the session stays on the
// last question so that sending the answer again retries the write.
func (h *Handler) submit(ctx context.Context, s *Session) {
	kind := s.Kind
	id, err := h.store.Append(ctx, s.Data, kind, s.ChatID)
	h.metrics.RecordAppend(string(kind), err)
	if err != nil {
		h.logger.Error("❌ Failed to store lead",
			zap.Int64("chat_id", s.ChatID),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		h.reply(ctx, s.ChatID, msgSaveFailed)
		return
	}

	rec := lead.NewRecord(s.Data, kind, chatIDString(s.ChatID))
	rec.ID = strconv.Itoa(id)
	rec.CreatedAt = h.now().Format(lead.TimeLayout)
	files := s.Files

	if err := s.Fire(ctx, evFinish); err != nil {
		h.logger.Warn("dialog event rejected", zap.String("event", evFinish), zap.Error(err))
	}
	s.Data = lead.Submission{}
	s.Files = nil

	report := h.announcer.AnnounceLead(ctx, rec, files)
	h.logger.Info("✅ New lead accepted",
		zap.Int("id", id),
		zap.String("kind", string(kind)),
		zap.Int("attachments", len(files)),
		zap.Int("admins_notified", report.Delivered),
		zap.Int("admins_failed", report.Failed),
	)

	text := fmt.Sprintf(msgClientComplete, id, responseHours)
	if kind == lead.KindPartner {
		text = fmt.Sprintf(msgPartnerComplete, id, responseHours)
	}
	h.replyWithMenu(ctx, s.ChatID, text)
}
