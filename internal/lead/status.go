package lead

import "strings"

// Status is the canonical (English) form of a lead status.
type Status string

const (
	StatusNew                 Status = "New"
	StatusInspectionScheduled Status = "Inspection Scheduled"
	StatusEstimateReady       Status = "Estimate Ready"
	StatusInProgress          Status = "In Progress"
	StatusCompleted           Status = "Completed"
	StatusPaid                Status = "Paid"
	StatusCancelled           Status = "Cancelled"
)

// statusDisplay maps canonical statuses to the labels an operator sees and
// edits in the table.
var statusDisplay = map[Status]string{
	StatusNew:                 "Новая",
	StatusInspectionScheduled: "Осмотр назначен",
	StatusEstimateReady:       "Смета готова",
	StatusInProgress:          "В работе",
	StatusCompleted:           "Готово",
	StatusPaid:                "Оплачено",
	StatusCancelled:           "Отменено",
}

var displayStatus = func() map[string]Status {
	m := make(map[string]Status, len(statusDisplay))
	for s, label := range statusDisplay {
		m[strings.ToLower(label)] = s
		m[strings.ToLower(string(s))] = s
	}
	return m
}()

// Statuses lists the vocabulary in workflow order.
var Statuses = []Status{
	StatusNew, StatusInspectionScheduled, StatusEstimateReady,
	StatusInProgress, StatusCompleted, StatusPaid, StatusCancelled,
}

// Display returns the operator-facing label. Unknown statuses are returned as is.
func (s Status) Display() string {
	if label, ok := statusDisplay[s]; ok {
		return label
	}
	return string(s)
}

// Terminal reports whether no further work is expected on the lead.
func (s Status) Terminal() bool {
	return s == StatusPaid || s == StatusCancelled
}

// ParseStatus maps a cell value in either display or canonical form to its
// canonical status. Strings outside the vocabulary are returned verbatim
// (trimmed) with ok=false, since the operator may type anything.
func ParseStatus(cell string) (Status, bool) {
	cell = strings.TrimSpace(cell)
	if s, ok := displayStatus[strings.ToLower(cell)]; ok {
		return s, true
	}
	return Status(cell), false
}

// CanonicalStatus is ParseStatus without the ok flag.
func CanonicalStatus(cell string) Status {
	s, _ := ParseStatus(cell)
	return s
}

// Kind identifies who submitted a lead.
type Kind string

const (
	KindClient  Kind = "Client"
	KindPartner Kind = "Partner"
)

var kindDisplay = map[Kind]string{
	KindClient:  "Заказчик",
	KindPartner: "Партнер",
}

// Display returns the label written to the SubmitterKind column.
func (k Kind) Display() string {
	if label, ok := kindDisplay[k]; ok {
		return label
	}
	return string(k)
}

// ParseKind accepts display or canonical labels; "Партнёр" is accepted as well.
func ParseKind(cell string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(cell)) {
	case "заказчик", "клиент", "client":
		return KindClient, true
	case "партнер", "партнёр", "partner":
		return KindPartner, true
	}
	return "", false
}
