package lead

import (
	"strings"

	apperrors "leadflow/internal/errors"
)

// ParseRow turns raw cells into a Record. Missing trailing cells read as
// empty strings; in that case the record is still returned together with a
// *MalformedRowError describing the shortfall. rowNumber is 1-based.
//
// Cells are trimmed except the status, which is kept as typed so that any
// edit to it, whitespace included, is seen as a change.
func ParseRow(rowNumber int, cells []string) (Record, error) {
	raw := func(i int) string {
		if i < len(cells) {
			return cells[i]
		}
		return ""
	}
	get := func(i int) string { return strings.TrimSpace(raw(i)) }

	r := Record{
		ID:               get(ColID),
		CreatedAt:        get(ColCreatedAt),
		Kind:             get(ColKind),
		PartnerRole:      get(ColPartnerRole),
		Name:             get(ColName),
		Phone:            get(ColPhone),
		TelegramHandle:   get(ColTelegram),
		City:             get(ColCity),
		PropertyType:     get(ColPropertyType),
		Area:             get(ColArea),
		Stage:            get(ColStage),
		ProjectInfo:      get(ColProjectInfo),
		Budget:           get(ColBudget),
		Comment:          get(ColComment),
		PartnershipTerms: get(ColPartnershipTerms),
		Status:           raw(ColStatus),
		Amount:           get(ColAmount),
		RequesterChatID:  get(ColChatID),
		Row:              rowNumber,
	}

	if len(cells) < len(Columns) {
		return r, apperrors.NewMalformedRowError(rowNumber, len(cells), len(Columns))
	}
	return r, nil
}

// HeaderMatches reports whether a header row equals the canonical columns.
func HeaderMatches(header []string) bool {
	if len(header) != len(Columns) {
		return false
	}
	for i, c := range Columns {
		if strings.TrimSpace(header[i]) != c {
			return false
		}
	}
	return true
}

// NormalizeIdentifier strips whitespace and the leading international "+".
func NormalizeIdentifier(s string) string {
	s = strings.Join(strings.Fields(s), "")
	return strings.TrimLeft(s, "+")
}

// NormalizePhone reduces a phone number to the characters that matter for
// substring matching: spaces, "+", dashes, dots and parentheses are removed.
func NormalizePhone(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '+', '-', '.', '(', ')', '\u00a0':
			return -1
		}
		return r
	}, s)
}
