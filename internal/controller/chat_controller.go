package controller

import (
	"bufio"

	"chat-relay-be/internal/dto"
	"chat-relay-be/pkg/relay"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	Completions(ctx *fiber.Ctx) error
}

type chatController struct {
	relay *relay.Relay
}

func NewChatController(relay *relay.Relay) IChatController {
	return &chatController{relay: relay}
}

func (c *chatController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/chat", auth)
	h.Post("/completions", c.Completions)
}

// Completions proxies the chat payload upstream and streams the response
// back. Once streaming starts the outward status is always 200; failures are
// reported as inline error frames in the stream body.
func (c *chatController) Completions(ctx *fiber.Ctx) error {
	var req dto.ChatCompletionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	// Boundary check, before any upstream contact.
	if len(req.Messages) == 0 {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "the request must include at least one message"})
	}

	ctx.Set(fiber.HeaderContentType, "text/event-stream")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set("Connection", "keep-alive")

	// The fiber.Ctx must not be touched from inside the stream writer; it is
	// recycled once this handler returns. The fasthttp request context stays
	// valid for the lifetime of the response stream and carries cancellation
	// to the upstream request.
	reqCtx := ctx.Context()
	payload := req

	reqCtx.SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		_ = c.relay.Stream(reqCtx, &payload, w)
	}))

	return nil
}
