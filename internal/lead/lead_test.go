package lead

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "leadflow/internal/errors"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		cell  string
		want  Status
		known bool
	}{
		{"Новая", StatusNew, true},
		{"  смета готова ", StatusEstimateReady, true},
		{"Estimate Ready", StatusEstimateReady, true},
		{"paid", StatusPaid, true},
		{"Отменено", StatusCancelled, true},
		{"На паузе", Status("На паузе"), false},
		{"", Status(""), false},
	}
	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			got, ok := ParseStatus(tt.cell)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.known, ok)
		})
	}
}

func TestStatusDisplayRoundTrip(t *testing.T) {
	for _, s := range Statuses {
		assert.Equal(t, s, CanonicalStatus(s.Display()), "status %s", s)
	}
	assert.Equal(t, "Custom", Status("Custom").Display())
}

func TestParseKind(t *testing.T) {
	k, ok := ParseKind("Партнёр")
	assert.True(t, ok)
	assert.Equal(t, KindPartner, k)

	k, ok = ParseKind(KindClient.Display())
	assert.True(t, ok)
	assert.Equal(t, KindClient, k)

	_, ok = ParseKind("")
	assert.False(t, ok)
}

func TestParseRowShortRow(t *testing.T) {
	cells := []string{"3", "2025-12-17 10:00:00", "Заказчик", "-", "Ann"}

	r, err := ParseRow(4, cells)
	require.Error(t, err)
	assert.True(t, apperrors.IsMalformedRow(err))
	assert.Equal(t, "3", r.ID)
	assert.Equal(t, "Ann", r.Name)
	assert.Equal(t, "", r.Status)
	assert.Equal(t, "", r.RequesterChatID)
	assert.Equal(t, 4, r.Row)
}

func TestParseRowFullRow(t *testing.T) {
	rec := Record{ID: "1", Status: "Новая", RequesterChatID: "42", Comment: "hi"}
	r, err := ParseRow(2, rec.Cells())
	require.NoError(t, err)
	assert.Equal(t, "42", r.RequesterChatID)
	assert.Equal(t, "hi", r.Comment)

	id, ok := r.NumericID()
	assert.True(t, ok)
	assert.Equal(t, 1, id)
}

func TestParseRowKeepsStatusAsTyped(t *testing.T) {
	rec := Record{ID: " 5 ", Name: " Ann ", Status: "Новая "}
	r, err := ParseRow(2, rec.Cells())
	require.NoError(t, err)
	assert.Equal(t, "5", r.ID)
	assert.Equal(t, "Ann", r.Name)
	assert.Equal(t, "Новая ", r.Status)
	assert.Equal(t, StatusNew, CanonicalStatus(r.Status))
}

func TestHeaderMatches(t *testing.T) {
	assert.True(t, HeaderMatches(Columns))
	assert.False(t, HeaderMatches(Columns[:17]))

	renamed := append([]string(nil), Columns...)
	renamed[0] = "ID заявки"
	assert.False(t, HeaderMatches(renamed))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "79991234567", NormalizePhone("+7 999 123-45-67"))
	assert.Equal(t, "79991234567", NormalizePhone("+7 (999) 123-45-67"))
	assert.Equal(t, "79991234567", NormalizeIdentifier(" +7999 1234567 "))
}

func TestParseChatID(t *testing.T) {
	id, ok := ParseChatID(" 123456 ")
	assert.True(t, ok)
	assert.Equal(t, int64(123456), id)

	for _, bad := range []string{"", "-5", "0", "abc", "12.5"} {
		_, ok := ParseChatID(bad)
		assert.False(t, ok, bad)
	}
}

func TestNewRecordClient(t *testing.T) {
	sub := Submission{
		FieldName:        " Ivan ",
		FieldPhone:       "+7 999 123-45-67",
		FieldUsername:    "ivan",
		FieldDescription: "wiring",
		FieldRole:        "ignored",
		FieldBudget:      "ignored",
	}
	r := NewRecord(sub, KindClient, "42")

	assert.Equal(t, "Заказчик", r.Kind)
	assert.Equal(t, NoRole, r.PartnerRole)
	assert.Equal(t, "Ivan", r.Name)
	assert.Equal(t, "@ivan", r.TelegramHandle)
	assert.Equal(t, BudgetUnknown, r.Budget)
	assert.Equal(t, "wiring", r.Comment)
	assert.Equal(t, StatusNew.Display(), r.Status)
	assert.Equal(t, NoAmount, r.Amount)
	assert.Equal(t, "42", r.RequesterChatID)
	assert.Empty(t, r.PartnershipTerms)
}

func TestNewRecordPartner(t *testing.T) {
	sub := Submission{
		FieldRole:            "Дизайнер",
		FieldUsername:        "@studio",
		FieldProjectPresence: "Да, есть проект",
		FieldFiles:           "photo:abc",
		FieldBudget:          "100–300 тыс.",
		FieldComments:        "urgent",
		FieldTermsChoice:     TermsAcceptCashback,
	}
	r := NewRecord(sub, KindPartner, "7")

	assert.Equal(t, "Партнер", r.Kind)
	assert.Equal(t, "Дизайнер", r.PartnerRole)
	assert.Equal(t, "@studio", r.TelegramHandle)
	assert.Equal(t, "Да, есть проект"+FilesAttached, r.ProjectInfo)
	assert.True(t, r.HasAttachments())
	assert.Equal(t, "100–300 тыс.", r.Budget)
	assert.Equal(t, "urgent", r.Comment)
	assert.Equal(t, CashbackClause, r.PartnershipTerms)
}

func TestPartnershipTermsCustom(t *testing.T) {
	sub := Submission{FieldTermsChoice: TermsCustom, FieldTermsCustom: "15% после оплаты"}
	assert.Equal(t, "15% после оплаты", sub.PartnershipTerms())

	sub = Submission{FieldTermsChoice: TermsCustom}
	assert.Empty(t, sub.PartnershipTerms())

	assert.Empty(t, Submission{}.TelegramHandle())
}
