package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"LeitnerBot/internal/ports"
)

// Feedback payloads ride inside the interaction round-trip itself, so a lost
// confirmation simply leaves the item untouched. Wire format:
// "leitner_<action>_<itemID>".
const (
	payloadPrefix = "leitner_"

	actionPromote       = "up"
	actionReset         = "reset"
	actionDelete        = "del"
	actionDeleteConfirm = "del_confirm"
	actionDeleteCancel  = "del_cancel"
)

// Outcome tells the transport how to update the presentation message after a
// feedback signal was processed.
type Outcome struct {
	Text          string
	Controls      []ports.Control
	RemoveMessage bool
}

// ProcessorDeps wires the feedback processor's collaborators.
type ProcessorDeps struct {
	Ledger ports.BoxLedger
	Logger *slog.Logger
}

// Processor interprets a reviewer's response to a presented item and applies
// the matching ledger transition.
type Processor struct {
	ledger ports.BoxLedger
	logger *slog.Logger
}

// NewProcessor constructs the feedback processor.
func NewProcessor(deps ProcessorDeps) *Processor {
	return &Processor{ledger: deps.Ledger, logger: deps.Logger}
}

// Handle processes one feedback payload for one owner. It never returns an
// error: every failure mode maps to user-facing text, and repeated signals
// (e.g. confirming a delete twice) degrade gracefully.
func (p *Processor) Handle(ctx context.Context, owner int64, payload string) Outcome {
	action, itemID, err := decodePayload(payload)
	if err != nil {
		p.warn("invalid feedback payload", "owner", owner, "payload", payload)
		return Outcome{Text: "❌ Invalid command."}
	}

	switch action {
	case actionPromote:
		box, err := p.ledger.Promote(ctx, owner, itemID)
		if err != nil {
			p.warn("promote failed", "owner", owner, "item", itemID, "error", err)
			return Outcome{Text: "⚠️ Storage is unavailable right now, please try again."}
		}
		if box == 0 {
			return Outcome{Text: "This note is no longer available."}
		}
		return Outcome{Text: fmt.Sprintf("👍 Great! This note moved to box <b>%d</b>.", box)}

	case actionReset:
		box, err := p.ledger.Reset(ctx, owner, itemID)
		if err != nil {
			p.warn("reset failed", "owner", owner, "item", itemID, "error", err)
			return Outcome{Text: "⚠️ Storage is unavailable right now, please try again."}
		}
		if box == 0 {
			return Outcome{Text: "This note is no longer available."}
		}
		return Outcome{Text: fmt.Sprintf("🔄 This note went back to box <b>%d</b> for more review.", box)}

	case actionDelete:
		return Outcome{
			Text:     "⚠️ <b>Delete this note for good?</b>\nThis cannot be undone.",
			Controls: confirmControls(itemID),
		}

	case actionDeleteConfirm:
		if err := p.ledger.Delete(ctx, owner, itemID); err != nil {
			p.warn("delete failed", "owner", owner, "item", itemID, "error", err)
			return Outcome{Text: "❌ Something went wrong while deleting, please try again."}
		}
		return Outcome{Text: "🗑 Note deleted permanently.", RemoveMessage: true}

	case actionDeleteCancel:
		return Outcome{
			Text:     "Deletion cancelled.",
			Controls: ReviewControls(itemID),
		}

	default:
		p.warn("unknown feedback action", "owner", owner, "action", action)
		return Outcome{Text: "❌ Invalid command."}
	}
}

// ReviewControls is the standard control row attached to every presented item.
func ReviewControls(itemID int64) []ports.Control {
	return []ports.Control{
		{Label: "✅ Remembered", Payload: encodePayload(actionPromote, itemID)},
		{Label: "🤔 Review again", Payload: encodePayload(actionReset, itemID)},
		{Label: "🗑 Delete", Payload: encodePayload(actionDelete, itemID)},
	}
}

func confirmControls(itemID int64) []ports.Control {
	return []ports.Control{
		{Label: "🚮 Yes, delete it", Payload: encodePayload(actionDeleteConfirm, itemID)},
		{Label: "↩️ Cancel", Payload: encodePayload(actionDeleteCancel, itemID)},
	}
}

func encodePayload(action string, itemID int64) string {
	return payloadPrefix + action + "_" + strconv.FormatInt(itemID, 10)
}

func decodePayload(payload string) (string, int64, error) {
	body, ok := strings.CutPrefix(payload, payloadPrefix)
	if !ok || body == "" {
		return "", 0, fmt.Errorf("payload %q lacks prefix", payload)
	}

	idx := strings.LastIndex(body, "_")
	if idx <= 0 || idx == len(body)-1 {
		return "", 0, fmt.Errorf("payload %q is malformed", payload)
	}

	itemID, err := strconv.ParseInt(body[idx+1:], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("payload %q item id: %w", payload, err)
	}

	return body[:idx], itemID, nil
}

func (p *Processor) warn(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
