package summary

import (
	"sort"

	"leadflow/internal/lead"
)

// OpenLeads returns every record whose status is not terminal (Paid or
// Cancelled), newest id first. Records with non-numeric ids come last.
func OpenLeads(snap lead.Snapshot) []lead.Record {
	out := make([]lead.Record, 0, len(snap))
	for _, r := range snap {
		if lead.CanonicalStatus(r.Status).Terminal() {
			continue
		}
		out = append(out, r)
	}

	sort.Slice(out, func(i, j int) bool {
		a, aok := out[i].NumericID()
		b, bok := out[j].NumericID()
		switch {
		case aok && bok:
			return a > b
		case aok != bok:
			return aok
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Limit caps the number of rendered rows; Telegram rejects very tall photos.
func Limit(leads []lead.Record, n int) []lead.Record {
	if n > 0 && len(leads) > n {
		return leads[:n]
	}
	return leads
}
