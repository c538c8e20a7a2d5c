// Package notify turns observed lead events into chat messages.
//
// Two kinds of delivery exist:
//   - Status notifications to the requester when an operator changes a
//     lead's status (Notify, NotifyAll)
//   - Lead announcements to every admin right after a submission is stored
//     (AnnounceLead), with partner attachments forwarded
//
// Delivery failures never escape this package: each attempt is logged,
// counted and reported as an Outcome, and the remaining recipients are
// still attempted.
package notify

import (
	"context"

	"go.uber.org/zap"

	"leadflow/internal/lead"
	"leadflow/internal/metrics"
)

// Outcome is the result of one delivery attempt.
type Outcome string

const (
	Delivered Outcome = "delivered"
	Skipped   Outcome = "skipped"
	Failed    Outcome = "failed"
)

// Sender is the chat transport. Implementations may fail transiently.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendPhoto(ctx context.Context, chatID int64, fileID, caption string) error
	SendDocument(ctx context.Context, chatID int64, fileID, caption string) error
}

// Report counts outcomes over a batch.
type Report struct {
	Delivered int
	Skipped   int
	Failed    int
}

func (r *Report) add(o Outcome) {
	switch o {
	case Delivered:
		r.Delivered++
	case Skipped:
		r.Skipped++
	case Failed:
		r.Failed++
	}
}

// Total returns the number of attempts in the report.
func (r Report) Total() int {
	return r.Delivered + r.Skipped + r.Failed
}

// Dispatcher delivers notifications through a Sender.
type Dispatcher struct {
	sender  Sender
	admins  []int64
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithAdmins sets the chat ids that receive lead announcements.
func WithAdmins(ids []int64) Option {
	return func(d *Dispatcher) { d.admins = append([]int64(nil), ids...) }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithMetrics enables delivery counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// New creates a Dispatcher.
func New(sender Sender, opts ...Option) *Dispatcher {
	d := &Dispatcher{sender: sender, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Notify sends the status-change message for one transition to the
// requester. Records without a valid chat id are skipped.
func (d *Dispatcher) Notify(ctx context.Context, tr lead.Transition) Outcome {
	chatID, ok := lead.ParseChatID(tr.ChatID)
	if !ok {
		d.logger.Debug("no recipient for transition, skipping",
			zap.String("id", tr.RecordID),
			zap.String("chat_id", tr.ChatID),
		)
		d.metrics.RecordNotification("status", string(Skipped))
		return Skipped
	}

	if err := d.sender.SendMessage(ctx, chatID, StatusMessage(tr)); err != nil {
		d.logger.Error("❌ Failed to notify requester",
			zap.String("id", tr.RecordID),
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
		d.metrics.RecordNotification("status", string(Failed))
		return Failed
	}

	d.logger.Info("📨 Requester notified",
		zap.String("id", tr.RecordID),
		zap.Int64("chat_id", chatID),
		zap.String("status", tr.NewStatus),
	)
	d.metrics.RecordNotification("status", string(Delivered))
	return Delivered
}

// NotifyAll delivers transitions one after another in the given order. A
// failed delivery is not retried and does not stop the batch.
func (d *Dispatcher) NotifyAll(ctx context.Context, trs []lead.Transition) Report {
	var r Report
	for _, tr := range trs {
		r.add(d.Notify(ctx, tr))
	}
	return r
}

// AnnounceLead sends a summary of a freshly stored lead to every admin and
// forwards the partner's attachments after it. Each admin is independent:
// a failure for one does not prevent delivery to the others.
func (d *Dispatcher) AnnounceLead(ctx context.Context, rec lead.Record, attachments []lead.Attachment) Report {
	var r Report
	text := LeadAnnouncement(rec)
	for _, admin := range d.admins {
		o := d.announce(ctx, admin, text, attachments)
		d.metrics.RecordNotification("announcement", string(o))
		r.add(o)
	}
	return r
}

func (d *Dispatcher) announce(ctx context.Context, admin int64, text string, attachments []lead.Attachment) Outcome {
	if err := d.sender.SendMessage(ctx, admin, text); err != nil {
		d.logger.Error("❌ Failed to notify admin", zap.Int64("admin", admin), zap.Error(err))
		return Failed
	}
	for _, a := range attachments {
		var err error
		switch a.Kind {
		case lead.AttachmentPhoto:
			err = d.sender.SendPhoto(ctx, admin, a.FileID, "")
		default:
			err = d.sender.SendDocument(ctx, admin, a.FileID, "")
		}
		if err != nil {
			// The summary already went out; a missing file is logged only.
			d.logger.Warn("⚠️  Failed to forward attachment",
				zap.Int64("admin", admin),
				zap.String("kind", string(a.Kind)),
				zap.Error(err),
			)
		}
	}
	return Delivered
}
