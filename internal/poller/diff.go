package poller

import (
	"sort"
	"strconv"
	"strings"

	"leadflow/internal/lead"
)

// Diff returns one transition for every record present in both snapshots
// whose status cell changed, ordered by ascending numeric id.
//
// Records that appear only in current are new and produce nothing; their
// status becomes the baseline for the next cycle. Records that appear only
// in previous were removed from the table and are dropped.
func Diff(previous, current lead.Snapshot) []lead.Transition {
	var out []lead.Transition
	for _, id := range sortedIDs(current) {
		prev, ok := previous[id]
		if !ok {
			continue
		}
		cur := current[id]
		if prev.Status == cur.Status {
			continue
		}
		out = append(out, lead.Transition{
			RecordID:   id,
			OldStatus:  prev.Status,
			NewStatus:  cur.Status,
			ChatID:     cur.RequesterChatID,
			Comment:    cur.Comment,
			Attachment: attachmentMarker(cur),
		})
	}
	return out
}

// attachmentMarker is the files marker when the requester uploaded files,
// empty otherwise. The rest of the project cell is a yes/no answer.
func attachmentMarker(r lead.Record) string {
	if !r.HasAttachments() {
		return ""
	}
	return strings.TrimSpace(lead.FilesAttached)
}

// Changed returns the ids of records present in both snapshots whose row
// differs in any column, whether or not the status changed. Used for
// diagnostics only; amount edits land here without producing a transition.
func Changed(previous, current lead.Snapshot) []string {
	var out []string
	for _, id := range sortedIDs(current) {
		prev, ok := previous[id]
		if !ok {
			continue
		}
		cur := current[id]
		prev.Row, cur.Row = 0, 0
		if prev != cur {
			out = append(out, id)
		}
	}
	return out
}

// sortedIDs orders ids numerically; non-numeric ids follow in lexical order.
func sortedIDs(s lead.Snapshot) []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, errA := strconv.Atoi(ids[i])
		b, errB := strconv.Atoi(ids[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		}
		return ids[i] < ids[j]
	})
	return ids
}
