// Package services – BotService
//
// This file implements the inbound webhook flow: deduplicate the delivery,
// gate on the operator allow-list, classify the text into a command, resolve
// the target lot, run the lifecycle transition, and send the operator reply
// plus the notification fan-out.
package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/qnahub/dispatch-bot/internal/command"
	"github.com/qnahub/dispatch-bot/internal/domain"
	"github.com/qnahub/dispatch-bot/internal/repo"
	"github.com/qnahub/dispatch-bot/internal/telegram"
)

// Update is one inbound webhook event, already decoded from the transport.
type Update struct {
	// DeliveryID is the provider-assigned id used for dedup; may be empty.
	DeliveryID string
	// SenderID identifies the author (chat id on Telegram).
	SenderID string
	// Text is the raw message text.
	Text string
	// ReplyText is the quoted message when the update is a threaded reply.
	ReplyText string
}

// Outcome summarizes how an update was handled, for the HTTP response.
type Outcome struct {
	// Ignored is true for empty text and non-operator senders.
	Ignored bool
	// Duplicate is true when the delivery id was already processed.
	Duplicate bool
	// Result names what happened: "applied", "reverted", "rejected",
	// "not_found", "help". Empty for ignored/duplicate outcomes.
	Result string
	// LotCode is set when a lot was involved.
	LotCode string
}

// BotService processes operator commands arriving through the messaging
// webhook.
type BotService struct {
	// DB is the GORM handle used for dedup bookkeeping and lot lookups.
	DB *gorm.DB
	// Lifecycle runs the lot state machine.
	Lifecycle *LifecycleService
	// Sender delivers replies and notifications.
	Sender telegram.Sender
	// Operators is the allow-list of senders permitted to issue commands.
	Operators []string
	// Notify is the recipient list for apply/undo notices.
	Notify []string
	// DefaultDest is the destination the bare-URL shorthand binds to.
	DefaultDest domain.Destination
}

// HandleUpdate processes one webhook event end to end. Errors are returned
// only for infrastructure failures (store or gateway); every expected
// condition (duplicate, unknown sender, bad command, lot in the wrong
// state) is answered through the Outcome and, where appropriate, a chat
// reply to the acting operator.
func (s *BotService) HandleUpdate(ctx context.Context, up Update) (Outcome, error) {
	if up.SenderID == "" || up.Text == "" {
		return Outcome{Ignored: true}, nil
	}

	fresh, err := repo.MarkProcessed(ctx, s.DB, up.DeliveryID)
	if err != nil {
		return Outcome{}, fmt.Errorf("dedup delivery %s: %w", up.DeliveryID, err)
	}
	if !fresh {
		return Outcome{Duplicate: true}, nil
	}

	// Anything from a non-operator sender is silently ignored, not an
	// error: the webhook is acknowledged and no reply goes out.
	if !s.isOperator(up.SenderID) {
		return Outcome{Ignored: true}, nil
	}

	cmd := command.Parse(up.Text, s.DefaultDest)
	switch cmd.Kind {
	case command.KindApply:
		return s.handleApply(ctx, up, cmd)
	case command.KindUndo:
		return s.handleUndo(ctx, up, cmd)
	default:
		return s.replyHelp(ctx, up.SenderID, cmd.Reason)
	}
}

// handleApply resolves the target lot (explicit code, then latest pending
// for the destination, then the lot quoted in the reply context) and runs
// the apply transition.
func (s *BotService) handleApply(ctx context.Context, up Update, cmd command.Command) (Outcome, error) {
	lot, out, err := s.resolveApplyTarget(ctx, up, cmd)
	if lot == nil {
		return out, err
	}

	if err := s.Lifecycle.Apply(ctx, lot, cmd.URL, up.SenderID); err != nil {
		return s.transitionFailed(ctx, up.SenderID, lot.Code, err)
	}

	text := fmt.Sprintf("Lote %s aplicado: %d pergunta(s) de %s marcadas como %s.\n%s",
		lot.Code, len(lot.Items), lot.Destination.Label(), lot.Destination.TargetStatus(), cmd.URL)
	if err := s.replyAndNotify(ctx, up.SenderID, text); err != nil {
		return Outcome{}, err
	}
	return Outcome{Result: "applied", LotCode: lot.Code}, nil
}

// handleUndo reverts the latest applied lot of the destination named in the
// command (the parser already rejected destination-less undos).
func (s *BotService) handleUndo(ctx context.Context, up Update, cmd command.Command) (Outcome, error) {
	lot, err := s.Lifecycle.LatestApplied(ctx, cmd.Destination)
	if err != nil {
		if errors.Is(err, ErrNoAppliedLot) {
			return s.replyOutcome(ctx, up.SenderID, "not_found", "",
				fmt.Sprintf("Nenhum lote aplicado para %s.", cmd.Destination.Label()))
		}
		return Outcome{}, err
	}

	if err := s.Lifecycle.Undo(ctx, lot, up.SenderID); err != nil {
		return s.transitionFailed(ctx, up.SenderID, lot.Code, err)
	}

	text := fmt.Sprintf("Lote %s desfeito: %d pergunta(s) de %s restauradas ao estado anterior.",
		lot.Code, len(lot.Items), lot.Destination.Label())
	if err := s.replyAndNotify(ctx, up.SenderID, text); err != nil {
		return Outcome{}, err
	}
	return Outcome{Result: "reverted", LotCode: lot.Code}, nil
}

// resolveApplyTarget picks the lot an apply command addresses. Precedence:
// explicit lot code, then destination-scoped latest pending, then the lot
// code quoted in the reply context. Explicit addressing always wins over
// anything inferred. When nothing resolves, the operator gets a corrective
// reply and the returned lot is nil.
func (s *BotService) resolveApplyTarget(ctx context.Context, up Update, cmd command.Command) (*domain.Lot, Outcome, error) {
	if cmd.LotCode != "" {
		lot, err := s.Lifecycle.Get(ctx, cmd.LotCode)
		if err != nil {
			if errors.Is(err, ErrLotNotFound) {
				out, rerr := s.replyOutcome(ctx, up.SenderID, "not_found", "",
					fmt.Sprintf("Lote %s não encontrado.", cmd.LotCode))
				return nil, out, rerr
			}
			return nil, Outcome{}, err
		}
		return lot, Outcome{}, nil
	}

	lot, err := s.Lifecycle.LatestPending(ctx, cmd.Destination)
	if err == nil {
		return lot, Outcome{}, nil
	}
	if !errors.Is(err, ErrNoPendingLot) {
		return nil, Outcome{}, err
	}

	if code := command.LotCodeFromReply(up.ReplyText); code != "" {
		lot, gerr := s.Lifecycle.Get(ctx, code)
		if gerr == nil {
			return lot, Outcome{}, nil
		}
		if !errors.Is(gerr, ErrLotNotFound) {
			return nil, Outcome{}, gerr
		}
	}

	out, rerr := s.replyOutcome(ctx, up.SenderID, "not_found", "",
		fmt.Sprintf("Nenhum lote pendente para %s.", cmd.Destination.Label()))
	return nil, out, rerr
}

// transitionFailed reports an InvalidTransitionError back to the operator
// as plain text; any other lifecycle failure propagates as-is.
func (s *BotService) transitionFailed(ctx context.Context, actor, lotCode string, err error) (Outcome, error) {
	var ite *InvalidTransitionError
	if errors.As(err, &ite) {
		return s.replyOutcome(ctx, actor, "rejected", lotCode, ite.OperatorMessage())
	}
	return Outcome{}, err
}

// replyHelp sends the usage text, prefixed with the parser's hint when one
// exists. Unrecognized input is not an error.
func (s *BotService) replyHelp(ctx context.Context, actor, reason string) (Outcome, error) {
	text := command.HelpText
	if reason != "" {
		text = reason + "\n\n" + text
	}
	return s.replyOutcome(ctx, actor, "help", "", text)
}

// replyOutcome sends text to the actor and wraps the result string into an
// Outcome. A send failure terminates processing for this delivery; the
// operator sees no confirmation, which is the signal to retry manually.
func (s *BotService) replyOutcome(ctx context.Context, actor, result, lotCode, text string) (Outcome, error) {
	if err := s.Sender.SendMessage(ctx, actor, text); err != nil {
		return Outcome{}, err
	}
	return Outcome{Result: result, LotCode: lotCode}, nil
}

// replyAndNotify confirms to the actor and fans the same notice out to the
// notification list.
func (s *BotService) replyAndNotify(ctx context.Context, actor, text string) error {
	if err := s.Sender.SendMessage(ctx, actor, text); err != nil {
		return err
	}
	return telegram.Broadcast(ctx, s.Sender, s.noticeRecipients(actor), text)
}

// noticeRecipients filters the notification list for one notice: the actor
// never gets an echo, and when the actor is an operator, recipients that
// are themselves operators are dropped too (they watch the same channel the
// command was issued in).
func (s *BotService) noticeRecipients(actor string) []string {
	actorIsOperator := s.isOperator(actor)
	var out []string
	for _, r := range s.Notify {
		if r == actor {
			continue
		}
		if actorIsOperator && s.isOperator(r) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (s *BotService) isOperator(id string) bool {
	for _, op := range s.Operators {
		if op == id {
			return true
		}
	}
	return false
}
