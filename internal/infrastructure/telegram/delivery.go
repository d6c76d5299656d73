package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"LeitnerBot/internal/domain"
	"LeitnerBot/internal/ports"
)

const defaultAPIBase = "https://api.telegram.org"

// Delivery implements ports.DeliveryChannel via the Telegram Bot API.
// Stored content is never held locally; copy/forward re-fetch it from the
// chat it was originally submitted in.
type Delivery struct {
	botToken string
	apiBase  string
	client   *http.Client
}

var _ ports.DeliveryChannel = (*Delivery)(nil)

// NewDelivery registers the bot token.
func NewDelivery(botToken string) *Delivery {
	return &Delivery{
		botToken: botToken,
		apiBase:  defaultAPIBase,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// SendCopy re-sends the item's content to dest with an inline control row.
func (d *Delivery) SendCopy(ctx context.Context, dest int64, source domain.Item, controls []ports.Control) error {
	form := url.Values{}
	form.Set("chat_id", strconv.FormatInt(dest, 10))
	form.Set("from_chat_id", strconv.FormatInt(source.Location, 10))
	form.Set("message_id", strconv.FormatInt(source.ID, 10))
	if markup := inlineKeyboard(controls); markup != "" {
		form.Set("reply_markup", markup)
	}

	return d.call(ctx, "copyMessage", form)
}

// Forward forwards the item's content to dest without controls.
func (d *Delivery) Forward(ctx context.Context, dest int64, source domain.Item) error {
	form := url.Values{}
	form.Set("chat_id", strconv.FormatInt(dest, 10))
	form.Set("from_chat_id", strconv.FormatInt(source.Location, 10))
	form.Set("message_id", strconv.FormatInt(source.ID, 10))

	return d.call(ctx, "forwardMessage", form)
}

// EditPresentation rewrites a presentation message's text and controls.
func (d *Delivery) EditPresentation(ctx context.Context, ref ports.MessageRef, text string, controls []ports.Control) error {
	form := url.Values{}
	form.Set("chat_id", strconv.FormatInt(ref.Chat, 10))
	form.Set("message_id", strconv.FormatInt(ref.Message, 10))
	form.Set("text", text)
	form.Set("parse_mode", "HTML")
	if markup := inlineKeyboard(controls); markup != "" {
		form.Set("reply_markup", markup)
	}

	return d.call(ctx, "editMessageText", form)
}

// RemovePresentation deletes a presentation message.
func (d *Delivery) RemovePresentation(ctx context.Context, ref ports.MessageRef) error {
	form := url.Values{}
	form.Set("chat_id", strconv.FormatInt(ref.Chat, 10))
	form.Set("message_id", strconv.FormatInt(ref.Message, 10))

	return d.call(ctx, "deleteMessage", form)
}

func (d *Delivery) call(ctx context.Context, method string, form url.Values) error {
	if d.botToken == "" || d.client == nil {
		return fmt.Errorf("telegram delivery misconfigured: %w", ports.ErrDeliveryUnavailable)
	}

	endpoint := fmt.Sprintf("%s/bot%s/%s", d.apiBase, d.botToken, method)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %v: %w", method, err, ports.ErrDeliveryUnavailable)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusBadRequest:
		// Bot API answers 400 when the source message was deleted or the
		// presentation message no longer exists.
		return fmt.Errorf("%s: %s: %w", method, resp.Status, ports.ErrContentGone)
	default:
		return fmt.Errorf("%s: %s: %w", method, resp.Status, ports.ErrDeliveryUnavailable)
	}
}

// inlineKeyboard renders one row of controls as Bot API reply markup JSON.
func inlineKeyboard(controls []ports.Control) string {
	if len(controls) == 0 {
		return ""
	}

	type button struct {
		Text         string `json:"text"`
		CallbackData string `json:"callback_data"`
	}

	row := make([]button, 0, len(controls))
	for _, c := range controls {
		row = append(row, button{Text: c.Label, CallbackData: c.Payload})
	}

	markup, err := json.Marshal(map[string][][]button{
		"inline_keyboard": {row},
	})
	if err != nil {
		return ""
	}

	return string(markup)
}
