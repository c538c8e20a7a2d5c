package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadflow/internal/lead"
)

type sent struct {
	method string
	chatID int64
	body   string
}

// fakeSender records calls and fails for chat ids in failFor.
type fakeSender struct {
	mu      sync.Mutex
	calls   []sent
	failFor map[int64]bool
	failAll map[string]bool // by method
}

func (f *fakeSender) record(method string, chatID int64, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, sent{method, chatID, body})
	if f.failFor[chatID] || f.failAll[method] {
		return fmt.Errorf("%s to %d: connection reset", method, chatID)
	}
	return nil
}

func (f *fakeSender) SendMessage(_ context.Context, chatID int64, text string) error {
	return f.record("sendMessage", chatID, text)
}

func (f *fakeSender) SendPhoto(_ context.Context, chatID int64, fileID, _ string) error {
	return f.record("sendPhoto", chatID, fileID)
}

func (f *fakeSender) SendDocument(_ context.Context, chatID int64, fileID, _ string) error {
	return f.record("sendDocument", chatID, fileID)
}

func TestStatusMessage(t *testing.T) {
	msg := StatusMessage(lead.Transition{
		RecordID:   "12",
		OldStatus:  "Новая",
		NewStatus:  "Смета готова",
		Comment:    "замер в пятницу",
		Attachment: "файлы прикреплены",
	})
	assert.Equal(t,
		"Статус вашей заявки #12 изменён на: Estimate Ready.\nКомментарий: замер в пятницу.\nСмета: файлы прикреплены",
		msg)
}

func TestStatusMessageSentinels(t *testing.T) {
	msg := StatusMessage(lead.Transition{RecordID: "3", NewStatus: "На паузе", Comment: "  "})
	assert.Contains(t, msg, "изменён на: На паузе.")
	assert.Contains(t, msg, "Комментарий: "+NoComment+".")
	assert.Contains(t, msg, "Смета: "+NoEstimate)
}

func TestStatusMessageClearedStatus(t *testing.T) {
	msg := StatusMessage(lead.Transition{RecordID: "3", OldStatus: "Новая", NewStatus: " "})
	assert.Contains(t, msg, "изменён на: "+NoStatus+".")
}

func TestDispatcher_NotifySkipsInvalidChatID(t *testing.T) {
	s := &fakeSender{}
	d := New(s)

	for _, chat := range []string{"", "abc", "-10", "0"} {
		assert.Equal(t, Skipped, d.Notify(context.Background(), lead.Transition{RecordID: "1", ChatID: chat}))
	}
	assert.Empty(t, s.calls)
}

func TestDispatcher_NotifyDelivered(t *testing.T) {
	s := &fakeSender{}
	d := New(s)

	o := d.Notify(context.Background(), lead.Transition{RecordID: "1", NewStatus: "В работе", ChatID: "42"})
	assert.Equal(t, Delivered, o)
	require.Len(t, s.calls, 1)
	assert.Equal(t, int64(42), s.calls[0].chatID)
	assert.Contains(t, s.calls[0].body, "In Progress")
}

func TestDispatcher_NotifyAllContinuesAfterFailure(t *testing.T) {
	s := &fakeSender{failFor: map[int64]bool{100: true}}
	d := New(s)

	r := d.NotifyAll(context.Background(), []lead.Transition{
		{RecordID: "1", NewStatus: "Готово", ChatID: "100"},
		{RecordID: "2", NewStatus: "Оплачено", ChatID: "200"},
		{RecordID: "3", NewStatus: "Оплачено", ChatID: ""},
	})

	assert.Equal(t, Report{Delivered: 1, Skipped: 1, Failed: 1}, r)
	assert.Equal(t, 3, r.Total())
	require.Len(t, s.calls, 2)
	assert.Equal(t, int64(100), s.calls[0].chatID, "deliveries keep batch order")
	assert.Equal(t, int64(200), s.calls[1].chatID)
}

func TestDispatcher_AnnounceLeadForwardsAttachments(t *testing.T) {
	s := &fakeSender{failFor: map[int64]bool{1: true}}
	d := New(s, WithAdmins([]int64{1, 2}))

	rec := lead.Record{ID: "5", Kind: "Партнер", PartnerRole: "Дизайнер", Name: "Studio"}
	r := d.AnnounceLead(context.Background(), rec, []lead.Attachment{
		{Kind: lead.AttachmentPhoto, FileID: "ph1"},
		{Kind: lead.AttachmentDocument, FileID: "doc1"},
	})

	assert.Equal(t, Report{Delivered: 1, Failed: 1}, r)

	var toSecond []sent
	for _, c := range s.calls {
		if c.chatID == 2 {
			toSecond = append(toSecond, c)
		}
	}
	require.Len(t, toSecond, 3)
	assert.Equal(t, "sendMessage", toSecond[0].method)
	assert.True(t, strings.HasPrefix(toSecond[0].body, "Заявка #5"))
	assert.Equal(t, sent{"sendPhoto", 2, "ph1"}, toSecond[1])
	assert.Equal(t, sent{"sendDocument", 2, "doc1"}, toSecond[2])
}

func TestDispatcher_AnnounceLeadAttachmentFailureStillDelivered(t *testing.T) {
	s := &fakeSender{failAll: map[string]bool{"sendPhoto": true}}
	d := New(s, WithAdmins([]int64{9}))

	r := d.AnnounceLead(context.Background(), lead.Record{ID: "1", Kind: "Партнер"},
		[]lead.Attachment{{Kind: lead.AttachmentPhoto, FileID: "x"}})
	assert.Equal(t, Report{Delivered: 1}, r)
}

func TestLeadAnnouncement(t *testing.T) {
	client := LeadAnnouncement(lead.Record{ID: "1", Kind: "Заказчик", Name: "Ivan", Comment: "ремонт ванной"})
	assert.Contains(t, client, "Тип заявки: КЛИЕНТ")
	assert.Contains(t, client, "📝 Задача: ремонт ванной")
	assert.NotContains(t, client, "Роль партнера")

	partner := LeadAnnouncement(lead.Record{
		ID: "2", Kind: "Партнер", PartnerRole: "Риелтор",
		PartnershipTerms: lead.CashbackClause,
	})
	assert.Contains(t, partner, "Тип заявки: ПАРТНЁР")
	assert.Contains(t, partner, "💼 Роль партнера: Риелтор")
	assert.Contains(t, partner, "Условия партнёрства:\n"+lead.CashbackClause)
	assert.Contains(t, partner, "✈️ Telegram: -")
}
