// Package services – LifecycleService
//
// This file implements the lot state machine. States are strictly
// monotonic: PENDING → APPLIED → REVERTED; no other transition is legal.
//
//   - Apply updates every affected live question (single bulk update, atomic
//     at the storage layer) and only then persists the lot as APPLIED.
//   - Undo restores the snapshot pre-image per item (no bulk primitive
//     exists for per-row values) and then persists the lot as REVERTED.
//
// Service-level errors (ErrLotNotFound, ErrNoPendingLot, ErrNoAppliedLot,
// *InvalidTransitionError) are returned for predictable cases so the bot
// can translate them into operator replies.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/qnahub/dispatch-bot/internal/domain"
	"github.com/qnahub/dispatch-bot/internal/repo"
)

// LifecycleService applies and reverts lots against the live question
// records, using lot snapshots for rollback.
type LifecycleService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
}

// Apply transitions a PENDING lot to APPLIED: every snapshotted question
// receives the destination's target status and videoURL in one bulk update,
// then the lot row is persisted with the audit fields set.
//
// If the bulk update succeeds but the lot persist fails, the system is left
// inconsistent-but-detectable (questions already updated, lot still
// PENDING). That state is logged loudly for manual reconciliation and the
// error is returned; there is no automatic compensation.
func (s *LifecycleService) Apply(ctx context.Context, lot *domain.Lot, videoURL, actor string) error {
	if lot.Status != domain.LotPending {
		return &InvalidTransitionError{LotCode: lot.Code, Current: lot.Status, Want: domain.LotPending}
	}

	ids := make([]int64, 0, len(lot.Items))
	for _, it := range lot.Items {
		ids = append(ids, it.QuestionID)
	}

	if err := repo.ApplyToQuestions(ctx, s.DB, ids, lot.Destination.TargetStatus(), videoURL); err != nil {
		return fmt.Errorf("apply lot %s: update questions: %w", lot.Code, err)
	}

	now := time.Now().UTC()
	lot.Status = domain.LotApplied
	lot.VideoURL = videoURL
	lot.AppliedAt = &now
	lot.AppliedBy = actor
	if err := repo.SaveLot(ctx, s.DB, lot); err != nil {
		log.Error().
			Str("lot_code", lot.Code).
			Ints64("question_ids", ids).
			Str("video_url", videoURL).
			Err(err).
			Msg("questions updated but lot persist failed; lot left PENDING, reconcile manually")
		return fmt.Errorf("apply lot %s: persist lot: %w", lot.Code, err)
	}
	return nil
}

// Undo transitions an APPLIED lot to REVERTED, restoring each question's
// status, video_url, and answer to the snapshot pre-image.
//
// The per-item restore is not transactional across items: a failure midway
// stops immediately and the returned error reports how many items were
// restored so the remainder can be reconciled by hand. It is never retried
// here with different semantics.
func (s *LifecycleService) Undo(ctx context.Context, lot *domain.Lot, actor string) error {
	if lot.Status != domain.LotApplied {
		return &InvalidTransitionError{LotCode: lot.Code, Current: lot.Status, Want: domain.LotApplied}
	}

	for i, item := range lot.Items {
		if err := repo.RestoreQuestion(ctx, s.DB, item); err != nil {
			log.Error().
				Str("lot_code", lot.Code).
				Int64("question_id", item.QuestionID).
				Int("restored", i).
				Int("total", len(lot.Items)).
				Err(err).
				Msg("partial undo; remaining items not restored")
			return fmt.Errorf("undo lot %s: restored %d of %d items, failed at question %d: %w",
				lot.Code, i, len(lot.Items), item.QuestionID, err)
		}
	}

	now := time.Now().UTC()
	lot.Status = domain.LotReverted
	lot.RevertedAt = &now
	lot.RevertedBy = actor
	if err := repo.SaveLot(ctx, s.DB, lot); err != nil {
		return fmt.Errorf("undo lot %s: persist lot: %w", lot.Code, err)
	}
	return nil
}

// LatestPending returns the most recently created PENDING lot for the
// destination, items included, or ErrNoPendingLot.
func (s *LifecycleService) LatestPending(ctx context.Context, dest domain.Destination) (*domain.Lot, error) {
	return s.latestByStatus(ctx, dest, domain.LotPending, ErrNoPendingLot)
}

// LatestApplied returns the most recently applied lot for the destination,
// items included, or ErrNoAppliedLot.
func (s *LifecycleService) LatestApplied(ctx context.Context, dest domain.Destination) (*domain.Lot, error) {
	return s.latestByStatus(ctx, dest, domain.LotApplied, ErrNoAppliedLot)
}

// Get loads a lot by code with its items, mapping missing codes to
// ErrLotNotFound.
func (s *LifecycleService) Get(ctx context.Context, code string) (*domain.Lot, error) {
	lot, err := repo.GetLot(ctx, s.DB, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLotNotFound
		}
		return nil, err
	}
	return lot, nil
}

// latestByStatus is a pure function over the full listing: filter by
// destination and status, pick the greatest relevant timestamp (creation
// time for PENDING, apply time for APPLIED). Timestamps carry sub-second
// resolution so ties do not occur in practice; if they did, the listing's
// store order is the tiebreak.
func (s *LifecycleService) latestByStatus(ctx context.Context, dest domain.Destination, status domain.LotStatus, missing error) (*domain.Lot, error) {
	lots, err := repo.ListLots(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	var best *domain.Lot
	for i := range lots {
		l := &lots[i]
		if l.Destination != dest || l.Status != status {
			continue
		}
		if best == nil || relevantTime(l, status).After(relevantTime(best, status)) {
			best = l
		}
	}
	if best == nil {
		return nil, missing
	}
	return repo.GetLot(ctx, s.DB, best.Code)
}

// relevantTime returns the timestamp "latest" is measured by for a status.
func relevantTime(l *domain.Lot, status domain.LotStatus) time.Time {
	if status == domain.LotApplied && l.AppliedAt != nil {
		return *l.AppliedAt
	}
	return l.CreatedAt
}
