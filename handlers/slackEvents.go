package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"rebeca/models"
	"rebeca/utils"

	"github.com/gin-gonic/gin"
	"github.com/slack-go/slack/slackevents"
	"go.uber.org/zap"
)

// SlackEventsHandler serves the Events API endpoint.
type SlackEventsHandler struct {
	pool   *EventPool
	dedup  EventDeduper
	logger *zap.Logger
}

func NewSlackEventsHandler(pool *EventPool, dedup EventDeduper, logger *zap.Logger) *SlackEventsHandler {
	return &SlackEventsHandler{pool: pool, dedup: dedup, logger: logger}
}

// HandleEvents answers URL verification challenges and acknowledges event
// callbacks immediately, handing messages to the pool.
func (h *SlackEventsHandler) HandleEvents(c *gin.Context) {
	logger := getLogger(c)

	body, err := rawBody(c)
	if err != nil {
		utils.JSONError(c, logger, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}

	event, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		utils.JSONError(c, logger, http.StatusBadRequest, "Invalid Slack event", err.Error())
		return
	}

	switch event.Type {
	case slackevents.URLVerification:
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			utils.JSONError(c, logger, http.StatusBadRequest, "Invalid challenge", err.Error())
			return
		}
		c.String(http.StatusOK, challenge.Challenge)

	case slackevents.CallbackEvent:
		var envelope slackevents.EventsAPICallbackEvent
		if err := json.Unmarshal(body, &envelope); err != nil {
			utils.JSONError(c, logger, http.StatusBadRequest, "Invalid event envelope", err.Error())
			return
		}

		if envelope.EventID != "" && h.dedup != nil {
			first, err := h.dedup.FirstSeen(c.Request.Context(), envelope.EventID)
			if err != nil {
				// Without Redis, prefer a possible duplicate reply over dropping the message.
				logger.Warn("event de-duplication unavailable", zap.Error(err))
			} else if !first {
				logger.Debug("duplicate slack event ignored", zap.String("eventId", envelope.EventID),
					zap.String("retry", c.GetHeader("X-Slack-Retry-Num")))
				c.Status(http.StatusOK)
				return
			}
		}

		if msg, ok := InboundFromEvent(event.InnerEvent); ok {
			h.pool.Submit(msg)
		}
		c.Status(http.StatusOK)

	default:
		c.Status(http.StatusOK)
	}
}

func rawBody(c *gin.Context) ([]byte, error) {
	if raw, ok := c.Get("rawBody"); ok {
		if b, ok := raw.([]byte); ok {
			return b, nil
		}
	}
	return io.ReadAll(c.Request.Body)
}

// InboundFromEvent converts the message-bearing inner events into an
// InboundMessage. Channel messages are only taken as app_mention so each
// mention is handled once.
func InboundFromEvent(inner slackevents.EventsAPIInnerEvent) (models.InboundMessage, bool) {
	switch ev := inner.Data.(type) {
	case *slackevents.MessageEvent:
		if ev.ChannelType != "im" {
			return models.InboundMessage{}, false
		}
		return models.InboundMessage{
			UserID:      ev.User,
			ChannelID:   ev.Channel,
			ChannelType: ev.ChannelType,
			Text:        ev.Text,
			Timestamp:   ev.TimeStamp,
			ThreadTS:    ev.ThreadTimeStamp,
			BotID:       ev.BotID,
			SubType:     ev.SubType,
		}, true
	case *slackevents.AppMentionEvent:
		return models.InboundMessage{
			UserID:    ev.User,
			ChannelID: ev.Channel,
			Text:      ev.Text,
			Timestamp: ev.TimeStamp,
			ThreadTS:  ev.ThreadTimeStamp,
			BotID:     ev.BotID,
			Mention:   true,
		}, true
	default:
		return models.InboundMessage{}, false
	}
}
