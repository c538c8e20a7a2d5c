package lead

import "strings"

// Submission keys produced by the intake flow.
const (
	FieldName            = "name"
	FieldPhone           = "phone"
	FieldUsername        = "username"
	FieldCity            = "city"
	FieldPropertyType    = "property_type"
	FieldArea            = "area"
	FieldStage           = "stage"
	FieldDescription     = "description"
	FieldComments        = "comments"
	FieldRole            = "role"
	FieldProjectPresence = "project_presence"
	FieldBudget          = "budget"
	FieldTermsChoice     = "terms_choice"
	FieldTermsCustom     = "terms_custom"
	FieldFiles           = "files"
)

// Partnership terms choices offered to partners and the clause stored for
// the cashback choice.
const (
	TermsAcceptCashback = "Принимаю 10% кэшбэк"
	TermsCustom         = "Хочу предложить свои условия"
	CashbackClause      = "кэшбэк 10% от стоимости работ."
)

// Submission is the flat field-name to value mapping collected by the form.
// It is treated as opaque by the store apart from the keys above.
type Submission map[string]string

func (s Submission) get(key string) string {
	return strings.TrimSpace(s[key])
}

// TelegramHandle derives "@username" or empty. A leading "@" typed by the
// user is not doubled.
func (s Submission) TelegramHandle() string {
	u := strings.TrimLeft(s.get(FieldUsername), "@")
	if u == "" {
		return ""
	}
	return "@" + u
}

// PartnershipTerms resolves the fixed terms choice into the stored clause.
func (s Submission) PartnershipTerms() string {
	switch s.get(FieldTermsChoice) {
	case TermsAcceptCashback:
		return CashbackClause
	case TermsCustom:
		return s.get(FieldTermsCustom)
	}
	return ""
}

// Comment returns the client description or the partner comments.
func (s Submission) Comment() string {
	if d := s.get(FieldDescription); d != "" {
		return d
	}
	return s.get(FieldComments)
}

// HasFiles reports whether any attachment was uploaded.
func (s Submission) HasFiles() bool {
	return s.get(FieldFiles) != ""
}

// NewRecord builds the row for a fresh submission. The id and timestamp are
// assigned by the store.
func NewRecord(sub Submission, kind Kind, chatID string) Record {
	r := Record{
		Kind:            kind.Display(),
		PartnerRole:     NoRole,
		Name:            sub.get(FieldName),
		Phone:           sub.get(FieldPhone),
		TelegramHandle:  sub.TelegramHandle(),
		City:            sub.get(FieldCity),
		PropertyType:    sub.get(FieldPropertyType),
		Area:            sub.get(FieldArea),
		Stage:           sub.get(FieldStage),
		Budget:          BudgetUnknown,
		Comment:         sub.Comment(),
		Status:          StatusNew.Display(),
		Amount:          NoAmount,
		RequesterChatID: chatID,
	}

	if kind == KindPartner {
		if role := sub.get(FieldRole); role != "" {
			r.PartnerRole = role
		}
		r.ProjectInfo = sub.get(FieldProjectPresence)
		if sub.HasFiles() {
			r.ProjectInfo += FilesAttached
		}
		if b := sub.get(FieldBudget); b != "" {
			r.Budget = b
		}
		r.PartnershipTerms = sub.PartnershipTerms()
	}
	return r
}
