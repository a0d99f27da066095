package controller

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/physical-ai/textbook-rag/models"
	"github.com/physical-ai/textbook-rag/services"
)

// DoneSentinel is the payload of the terminating SSE event.
const DoneSentinel = "[DONE]"

// ChatStreamer is what the controller needs from the orchestration: one call
// per turn, typed events back over a channel.
type ChatStreamer interface {
	ChatStream(ctx context.Context, turn services.ChatTurn) <-chan models.StreamEvent
}

// ChatController handles POST /api/chat, translating stream events to SSE.
type ChatController struct {
	agent ChatStreamer
	log   *logrus.Logger
}

// NewChatController injects the orchestration dependency.
func NewChatController(agent ChatStreamer, log *logrus.Logger) *ChatController {
	return &ChatController{agent: agent, log: log}
}

// Chat validates the request, parses the caller context from headers once,
// and streams the turn as Server-Sent Events terminated by a done sentinel.
func (c *ChatController) Chat(ctx *gin.Context) {
	var req models.ChatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	turn := services.ChatTurn{
		Message:      req.Message,
		History:      req.History,
		SelectedText: req.SelectedText,
		Context: models.RequestContext{
			UserID:      ctx.GetHeader("X-User-ID"),
			CurrentPage: ctx.GetHeader("X-Current-Page"),
		},
	}

	ctx.Header("Content-Type", "text/event-stream")
	ctx.Header("Cache-Control", "no-cache")
	ctx.Header("Connection", "keep-alive")
	ctx.Header("X-Accel-Buffering", "no")

	events := c.agent.ChatStream(ctx.Request.Context(), turn)
	ctx.Stream(func(w io.Writer) bool {
		event, ok := <-events
		if !ok {
			return false
		}
		switch event.Type {
		case models.EventTokenDelta:
			ctx.SSEvent("message", event.Text)
		case models.EventErrorNote:
			ctx.SSEvent("error", event.Text)
		case models.EventDone:
			ctx.SSEvent("done", DoneSentinel)
			return false
		}
		return true
	})
}
