package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"panen/internal/amqp"
	"panen/internal/core"
	"panen/internal/export"
	"panen/internal/lookup"
	"panen/internal/tally"
)

// ReplyPublisher delivers replies back to the chat bridge.
type ReplyPublisher interface {
	PublishReply(ctx context.Context, msg *amqp.ReplyMessage) error
}

// Bridge turns inbound chat messages into tally operations and
// publishes the answers. It owns the command surface (/start, /help,
// /report, /export) and the user-facing wording; the tally service
// only classifies conditions.
type Bridge struct {
	svc       *tally.Service
	writer    export.Writer
	directory *lookup.Directory
	now       func() time.Time
}

func NewBridge(svc *tally.Service, writer export.Writer, directory *lookup.Directory) *Bridge {
	return &Bridge{
		svc:       svc,
		writer:    writer,
		directory: directory,
		now:       time.Now,
	}
}

// Handler binds the bridge to a publisher as an AMQP consume callback.
func (b *Bridge) Handler(ctx context.Context, pub ReplyPublisher) func(*amqp.InboundMessage) error {
	return func(msg *amqp.InboundMessage) error {
		reply, err := b.HandleInbound(ctx, msg)
		if err != nil {
			return err
		}
		if reply == nil {
			return nil
		}
		return pub.PublishReply(ctx, reply)
	}
}

// HandleInbound processes one chat message and returns the reply to
// deliver, or nil when the message warrants none (free text without a
// recognizable quantity is silently ignored, like the original bot).
func (b *Bridge) HandleInbound(ctx context.Context, msg *amqp.InboundMessage) (*amqp.ReplyMessage, error) {
	if b.directory != nil {
		b.directory.Set(msg.Identity, msg.DisplayName)
	}

	now := msg.SentAt
	if now.IsZero() {
		now = b.now()
	}

	text := strings.TrimSpace(msg.Text)
	command := text
	if i := strings.IndexAny(command, " \t"); i >= 0 && strings.HasPrefix(command, "/") {
		command = command[:i]
	}

	switch command {
	case "/start":
		return amqp.NewReply(msg, startText), nil
	case "/help":
		return amqp.NewReply(msg, helpText), nil
	case "/report":
		return b.handleReport(ctx, msg, now)
	case "/export":
		return b.handleExport(ctx, msg, now)
	default:
		return b.handleRecord(ctx, msg, text, now)
	}
}

func (b *Bridge) handleRecord(ctx context.Context, msg *amqp.InboundMessage, text string, now time.Time) (*amqp.ReplyMessage, error) {
	qty, err := b.svc.Record(ctx, msg.Group, msg.Identity, text, now)
	switch {
	case errors.Is(err, core.ErrNoQuantity):
		// Ordinary chatter, not a report.
		return nil, nil
	case errors.Is(err, core.ErrNoGroupSelected), errors.Is(err, core.ErrUnknownGroup):
		return amqp.NewReply(msg, b.selectGroupText()), nil
	case errors.Is(err, core.ErrQuantityOutOfRange):
		return amqp.NewReply(msg, quantityTooLargeText), nil
	case err != nil:
		return nil, fmt.Errorf("record entry: %w", err)
	}
	return amqp.NewReply(msg, fmt.Sprintf(thanksTextFmt, qty)), nil
}

func (b *Bridge) handleReport(ctx context.Context, msg *amqp.InboundMessage, now time.Time) (*amqp.ReplyMessage, error) {
	report, err := b.svc.DailyReport(ctx, msg.Group, now, now)
	if errors.Is(err, core.ErrNoGroupSelected) || errors.Is(err, core.ErrUnknownGroup) {
		return amqp.NewReply(msg, b.selectGroupText()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("daily report: %w", err)
	}
	return amqp.NewReply(msg, RenderDailyReport(report)), nil
}

func (b *Bridge) handleExport(ctx context.Context, msg *amqp.InboundMessage, now time.Time) (*amqp.ReplyMessage, error) {
	doc, err := b.svc.ExportPeriod(ctx, msg.Group, now)
	if errors.Is(err, core.ErrNoGroupSelected) || errors.Is(err, core.ErrUnknownGroup) {
		return amqp.NewReply(msg, b.selectGroupText()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("export period: %w", err)
	}

	ref, err := b.writer.Write(ctx, doc)
	if err != nil {
		slog.ErrorContext(ctx, "Export write failed",
			"component", "bridge", "period", string(doc.Period), "error", err)
		return amqp.NewReply(msg, exportFailedText), nil
	}

	reply := amqp.NewReply(msg, fmt.Sprintf(exportReadyTextFmt, string(doc.Period)))
	reply.ExportRef = ref
	return reply, nil
}

func (b *Bridge) selectGroupText() string {
	var names []string
	if g := b.svc.Groups(); g != nil {
		names = g.Names()
	}
	if len(names) == 0 {
		return noGroupText
	}
	return noGroupText + " Kelompok tersedia: " + strings.Join(names, ", ")
}
