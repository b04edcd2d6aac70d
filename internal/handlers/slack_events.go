package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/slack-go/slack/slackevents"
)

// MentionHandler answers one app mention.
type MentionHandler interface {
	HandleMention(ctx context.Context, channelID, text string)
}

// SlackEventsHandler receives Events API callbacks. Signature verification
// happens in middleware before requests reach this handler.
type SlackEventsHandler struct {
	bot MentionHandler
}

// NewSlackEventsHandler creates a SlackEventsHandler.
func NewSlackEventsHandler(bot MentionHandler) *SlackEventsHandler {
	return &SlackEventsHandler{bot: bot}
}

// Receive handles POST /slack/events.
func (h *SlackEventsHandler) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad request"})
		return
	}

	event, err := slackevents.ParseEvent(body, slackevents.OptionNoVerifyToken())
	if err != nil {
		slog.Debug("unparseable slack event", "err", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad event"})
		return
	}

	switch event.Type {
	case slackevents.URLVerification:
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad challenge"})
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(challenge.Challenge))

	case slackevents.CallbackEvent:
		if mention, ok := event.InnerEvent.Data.(*slackevents.AppMentionEvent); ok {
			// Answer in the background: Slack retries events that take
			// longer than 3 seconds to acknowledge.
			go h.bot.HandleMention(context.WithoutCancel(r.Context()), mention.Channel, mention.Text)
		}
		w.WriteHeader(http.StatusOK)

	default:
		w.WriteHeader(http.StatusOK)
	}
}
