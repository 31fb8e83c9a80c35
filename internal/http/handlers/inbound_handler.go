// Inbound gateway handler.
//
// This file exposes the single POST endpoint every external caller hits:
//   - the admin surface (dispatch requests),
//   - the messaging gateway (webhook deliveries),
//   - the membership front-end (premium-access checks).
//
// The three request kinds share one route and are discriminated by body
// shape: an explicit action string, a dispatch selection, or a sender
// object. Handlers are transport-thin: they decode, call application
// services, and translate results into the `{ok: ...}` envelope.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/qnahub/dispatch-bot/internal/domain"
	"github.com/qnahub/dispatch-bot/internal/services"
)

//
// Service contracts (context-aware)
//

// Dispatcher creates lots from admin selections and announces them.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type Dispatcher interface {
	// Dispatch snapshots the selection, persists a PENDING lot, and
	// broadcasts the rendered messages. Returns the lot and message count.
	Dispatch(ctx context.Context, dest domain.Destination, questions []services.IncomingQuestion) (*domain.Lot, int, error)
}

// Bot processes operator commands arriving through the messaging webhook.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type Bot interface {
	// HandleUpdate runs one webhook event end to end (dedup, allow-list,
	// parse, transition, replies).
	HandleUpdate(ctx context.Context, up services.Update) (services.Outcome, error)
}

// AccessChecker answers whether an email holds premium access.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type AccessChecker interface {
	// Check validates the email, resolves membership, and records a lead.
	Check(ctx context.Context, email string) (allowed bool, source string, err error)
}

//
// Handler wiring
//

// Handlers groups the inbound gateway endpoint and the admin lot listing.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	dispatcher Dispatcher
	bot        Bot
	access     AccessChecker
	lots       LotStore
}

// New constructs and returns a Handlers instance bound to the given services.
func New(dispatcher Dispatcher, bot Bot, access AccessChecker, lots LotStore) *Handlers {
	return &Handlers{dispatcher: dispatcher, bot: bot, access: access, lots: lots}
}

//
// DTOs
//

// flexString decodes a JSON string or number into a string. Gateways are
// inconsistent about numeric ids (Telegram sends update_id and chat ids as
// numbers; relays often re-encode them as strings).
type flexString string

// UnmarshalJSON implements json.Unmarshaler for flexString.
func (f *flexString) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// inboundSender is the author object of a webhook delivery.
type inboundSender struct {
	// ID is the chat id of the author (number or string on the wire).
	ID flexString `json:"id"`
}

// inboundReplyContext carries the quoted message of a threaded reply.
type inboundReplyContext struct {
	Text string `json:"text"`
}

// InboundRequest is the union body of the inbound gateway endpoint. Exactly
// one request kind is expected per call; kind detection checks, in order:
// Action == "CHECK_ACCESS", then a dispatch selection (destination or
// questions present), then a webhook delivery (sender present).
type InboundRequest struct {
	// Action discriminates non-default request kinds ("CHECK_ACCESS").
	Action string `json:"action,omitempty" example:"CHECK_ACCESS"`
	// Email is the address to check (access requests only).
	Email string `json:"email,omitempty" example:"maria@example.com"`

	// Destination is the dispatch target track.
	Destination string `json:"destination,omitempty" example:"LIVE_GRATUITA"`
	// Questions is the admin's selection (dispatch requests only).
	Questions []services.IncomingQuestion `json:"questions,omitempty"`

	// DeliveryID is the provider-assigned id used for dedup.
	DeliveryID flexString `json:"deliveryId,omitempty" swaggertype:"string" example:"882190456"`
	// Sender is the author of a webhook delivery.
	Sender *inboundSender `json:"sender,omitempty"`
	// Text is the message text of a webhook delivery.
	Text string `json:"text,omitempty" example:"/live https://youtu.be/abc12345678"`
	// ReplyContext is the quoted message when the delivery is a reply.
	ReplyContext *inboundReplyContext `json:"replyContext,omitempty"`
}

// DispatchResponse is returned for dispatch requests.
type DispatchResponse struct {
	OK           bool   `json:"ok" example:"true"`
	LotCode      string `json:"lot_code" example:"250829-1432-7F3K"`
	Destination  string `json:"destination" example:"LIVE_GRATUITA"`
	MessageCount int    `json:"message_count" example:"2"`
}

// WebhookResponse is returned for webhook deliveries.
type WebhookResponse struct {
	OK        bool   `json:"ok" example:"true"`
	Ignored   bool   `json:"ignored,omitempty" example:"false"`
	Duplicate bool   `json:"duplicate,omitempty" example:"false"`
	Result    string `json:"result,omitempty" example:"applied"`
	LotCode   string `json:"lot_code,omitempty" example:"250829-1432-7F3K"`
}

// AccessResponse is returned for premium-access checks.
type AccessResponse struct {
	OK      bool   `json:"ok" example:"true"`
	Allowed bool   `json:"allowed" example:"true"`
	Source  string `json:"source" example:"list"`
}

//
// Handlers
//

// Inbound godoc
// @ID          inbound
// @Summary     Inbound gateway (dispatch, webhook, access check)
// @Description Single entry point for admin dispatch requests, messaging-gateway webhook deliveries, and premium-access checks. The request kind is derived from the body shape; every response carries an `ok` boolean.
// @Tags        Gateway
// @Accept      json
// @Produce     json
//
// @Param       X-Telegram-Bot-Api-Secret-Token  header  string  false  "Webhook shared secret (when configured)"
// @Param       body  body  handlers.InboundRequest  true  "Union request body"
//
// @Success     200  {object}  handlers.WebhookResponse
// @Success     201  {object}  handlers.DispatchResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Invalid gateway secret"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      / [post]
func (h *Handlers) Inbound(c *gin.Context) {
	var req InboundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	switch {
	case strings.EqualFold(strings.TrimSpace(req.Action), "CHECK_ACCESS"):
		h.checkAccess(c, req)
	case req.Destination != "" || len(req.Questions) > 0:
		h.dispatch(c, req)
	case req.Sender != nil:
		h.webhook(c, req)
	default:
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unrecognized request body")
	}
}

// dispatch runs an admin dispatch request.
func (h *Handlers) dispatch(c *gin.Context, req InboundRequest) {
	dest := domain.Destination(strings.ToUpper(strings.TrimSpace(req.Destination)))

	lot, msgCount, err := h.dispatcher.Dispatch(c.Request.Context(), dest, req.Questions)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUnknownDestination):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "destination must be LIVE_GRATUITA or DESPERTOS")
		case errors.Is(err, services.ErrNoQuestions):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "questions must not be empty")
		case errors.Is(err, services.ErrInvalidQuestion),
			errors.Is(err, services.ErrQuestionNotFound):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeDispatchFailed, err.Error())
		}
		return
	}

	ok(c, http.StatusCreated, DispatchResponse{
		OK:           true,
		LotCode:      lot.Code,
		Destination:  string(lot.Destination),
		MessageCount: msgCount,
	})
}

// webhook runs one messaging-gateway delivery. Ignored and duplicate
// deliveries are acknowledged with 200 so the provider stops retrying.
func (h *Handlers) webhook(c *gin.Context, req InboundRequest) {
	up := services.Update{
		DeliveryID: string(req.DeliveryID),
		SenderID:   string(req.Sender.ID),
		Text:       req.Text,
	}
	if req.ReplyContext != nil {
		up.ReplyText = req.ReplyContext.Text
	}

	out, err := h.bot.HandleUpdate(c.Request.Context(), up)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeWebhookFailed, err.Error())
		return
	}

	ok(c, http.StatusOK, WebhookResponse{
		OK:        true,
		Ignored:   out.Ignored,
		Duplicate: out.Duplicate,
		Result:    out.Result,
		LotCode:   out.LotCode,
	})
}

// checkAccess runs a premium-access check.
func (h *Handlers) checkAccess(c *gin.Context, req InboundRequest) {
	allowed, source, err := h.access.Check(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, services.ErrInvalidEmail) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email is not a valid address")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeAccessFailed, err.Error())
		return
	}

	ok(c, http.StatusOK, AccessResponse{OK: true, Allowed: allowed, Source: source})
}
