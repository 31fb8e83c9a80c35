// Package services – DispatchService
//
// This file implements the admin-facing dispatch flow: validate the
// selection, snapshot the affected questions, persist a new PENDING lot,
// render it into size-bounded messages, and broadcast them to the operator
// channel.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qnahub/dispatch-bot/internal/domain"
	"github.com/qnahub/dispatch-bot/internal/format"
	"github.com/qnahub/dispatch-bot/internal/repo"
	"github.com/qnahub/dispatch-bot/internal/telegram"
)

// lotCodeAttempts bounds the regenerate-and-retry loop on code collisions.
const lotCodeAttempts = 3

// IncomingQuestion is one selected question as submitted by the admin
// surface.
type IncomingQuestion struct {
	ID     int64  `json:"id"`
	Author string `json:"author"`
	Text   string `json:"text"`
}

// DispatchService creates lots from admin selections and announces them to
// the operators.
type DispatchService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Sender delivers outbound messages.
	Sender telegram.Sender
	// Operators is the list of chat ids the dispatch is broadcast to.
	Operators []string
	// MaxMessageLen caps each outbound message; <= 0 uses format.DefaultMaxLen.
	MaxMessageLen int
	// Location is the timezone the header date is rendered in (UTC if nil).
	Location *time.Location

	// now is a seam for tests; defaults to time.Now.
	now func() time.Time
}

// Dispatch validates the request, snapshots the selected questions, creates
// a PENDING lot, and broadcasts the rendered messages to every operator.
// It returns the created lot and the number of messages sent.
//
// The lot is persisted before the broadcast: a send failure leaves a valid
// PENDING lot behind (the error tells the admin the announcement did not go
// out; re-dispatching the same selection creates a fresh lot).
func (s *DispatchService) Dispatch(ctx context.Context, dest domain.Destination, questions []IncomingQuestion) (*domain.Lot, int, error) {
	if !domain.KnownDestination(dest) {
		return nil, 0, ErrUnknownDestination
	}
	if len(questions) == 0 {
		return nil, 0, ErrNoQuestions
	}
	ids := make([]int64, 0, len(questions))
	for _, q := range questions {
		if strings.TrimSpace(q.Text) == "" {
			return nil, 0, fmt.Errorf("%w: question %d has no text", ErrInvalidQuestion, q.ID)
		}
		ids = append(ids, q.ID)
	}

	live, missing, err := repo.GetQuestions(ctx, s.DB, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("dispatch: load questions: %w", err)
	}
	if len(missing) > 0 {
		return nil, 0, fmt.Errorf("%w: ids %v", ErrQuestionNotFound, missing)
	}

	items := make([]domain.LotItem, 0, len(live))
	for i, q := range live {
		// Snapshot from the live record; the payload only fills fields the
		// record left blank (imports can lag behind the form).
		author := q.Author
		if strings.TrimSpace(author) == "" {
			author = questions[i].Author
		}
		text := q.Text
		if strings.TrimSpace(text) == "" {
			text = questions[i].Text
		}
		items = append(items, domain.LotItem{
			Position:     i,
			QuestionID:   q.ID,
			Author:       author,
			Text:         text,
			PrevStatus:   q.Status,
			PrevVideoURL: q.VideoURL,
			PrevAnswer:   q.Answer,
		})
	}

	lot, err := s.createWithFreshCode(ctx, dest, items)
	if err != nil {
		return nil, 0, err
	}

	header := format.Header(dest, lot.Code, len(items), s.clock()(), s.Location)
	messages := format.Split(header, format.Lines(lot.Items), s.MaxMessageLen)
	for _, msg := range messages {
		if err := telegram.Broadcast(ctx, s.Sender, s.Operators, msg); err != nil {
			return lot, 0, fmt.Errorf("dispatch lot %s: %w", lot.Code, err)
		}
	}
	return lot, len(messages), nil
}

// createWithFreshCode persists the lot, regenerating the code on the rare
// collision (ErrDuplicate is retryable by contract).
func (s *DispatchService) createWithFreshCode(ctx context.Context, dest domain.Destination, items []domain.LotItem) (*domain.Lot, error) {
	var lastErr error
	for attempt := 0; attempt < lotCodeAttempts; attempt++ {
		lot := &domain.Lot{
			Code:        s.newLotCode(),
			Destination: dest,
			Status:      domain.LotPending,
			Items:       items,
		}
		err := repo.CreateLot(ctx, s.DB, lot)
		if err == nil {
			return lot, nil
		}
		if err != repo.ErrDuplicate {
			return nil, fmt.Errorf("dispatch: create lot: %w", err)
		}
		lastErr = err
	}
	return nil, fmt.Errorf("dispatch: create lot: %w", lastErr)
}

// newLotCode generates a human-typeable lot code: local date and time plus
// a random suffix, e.g. "250829-1432-7F3K". Uniqueness is enforced by the
// primary key; collisions surface as ErrDuplicate and are retried.
func (s *DispatchService) newLotCode() string {
	now := s.clock()()
	if s.Location != nil {
		now = now.In(s.Location)
	}
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:4]
	return now.Format("060102-1504") + "-" + suffix
}

func (s *DispatchService) clock() func() time.Time {
	if s.now != nil {
		return s.now
	}
	return time.Now
}
