// Package lead defines the record schema shared by the store, the poller and
// the bot: the canonical column list, the status and kind vocabularies, and
// the single row-parsing routine that tolerates short rows.
package lead

import (
	"strconv"
	"strings"
)

// Columns is the canonical header row. The table must match it exactly;
// a mismatch is repaired by rewriting row 1.
var Columns = []string{
	"ID", "CreatedAt", "SubmitterKind", "PartnerRole", "Name", "Phone",
	"TelegramHandle", "City", "PropertyType", "Area", "Stage",
	"ProjectInfo", "Budget", "Comment", "PartnershipTerms",
	"Status", "Amount", "RequesterChatId",
}

// Column indices (0-based) into a row.
const (
	ColID = iota
	ColCreatedAt
	ColKind
	ColPartnerRole
	ColName
	ColPhone
	ColTelegram
	ColCity
	ColPropertyType
	ColArea
	ColStage
	ColProjectInfo
	ColBudget
	ColComment
	ColPartnershipTerms
	ColStatus
	ColAmount
	ColChatID
)

// Sentinels written by Append.
const (
	NoRole        = "-"
	NoAmount      = "-"
	BudgetUnknown = "Неизвестно"
	FilesAttached = " (файлы прикреплены)"
	TimeLayout    = "2006-01-02 15:04:05"
)

// Record is one lead submission as stored in one table row.
//
// All fields hold the raw cell text. Row is the 1-based storage row number
// at the time of reading and is not persisted.
type Record struct {
	ID               string
	CreatedAt        string
	Kind             string
	PartnerRole      string
	Name             string
	Phone            string
	TelegramHandle   string
	City             string
	PropertyType     string
	Area             string
	Stage            string
	ProjectInfo      string
	Budget           string
	Comment          string
	PartnershipTerms string
	Status           string
	Amount           string
	RequesterChatID  string

	Row int
}

// Cells serializes the record in canonical column order.
func (r Record) Cells() []string {
	return []string{
		r.ID, r.CreatedAt, r.Kind, r.PartnerRole, r.Name, r.Phone,
		r.TelegramHandle, r.City, r.PropertyType, r.Area, r.Stage,
		r.ProjectInfo, r.Budget, r.Comment, r.PartnershipTerms,
		r.Status, r.Amount, r.RequesterChatID,
	}
}

// NumericID returns the id as an integer when the cell holds one.
func (r Record) NumericID() (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(r.ID))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// ChatID returns the requester chat id when it is a valid positive integer.
func (r Record) ChatID() (int64, bool) {
	return ParseChatID(r.RequesterChatID)
}

// ParseChatID parses a transport identity stored as decimal text.
func ParseChatID(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// HasAttachments reports whether the project column carries the files marker.
func (r Record) HasAttachments() bool {
	return strings.Contains(r.ProjectInfo, strings.TrimSpace(FilesAttached))
}

// Snapshot maps record id to the latest row seen for that id.
type Snapshot map[string]Record

// Transition is one observed status change of a record between two snapshots.
type Transition struct {
	RecordID   string
	OldStatus  string
	NewStatus  string
	ChatID     string
	Comment    string
	Attachment string
}

// AttachmentKind distinguishes how a forwarded file is delivered.
type AttachmentKind string

const (
	AttachmentPhoto    AttachmentKind = "photo"
	AttachmentDocument AttachmentKind = "document"
)

// Attachment is a file uploaded by a partner during the intake flow.
// FileID is the transport's reference to an already uploaded file.
type Attachment struct {
	Kind   AttachmentKind
	FileID string
}
