// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the live
// Question records the bot mutates on apply/undo.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/qnahub/dispatch-bot/internal/domain"
)

// GetQuestions loads the questions with the given ids and returns them in
// the order the ids were requested (selection order, not table order).
// The second return value lists ids that do not exist in the store.
func GetQuestions(ctx context.Context, db *gorm.DB, ids []int64) ([]domain.Question, []int64, error) {
	var rows []domain.Question
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	byID := make(map[int64]domain.Question, len(rows))
	for _, q := range rows {
		byID[q.ID] = q
	}

	out := make([]domain.Question, 0, len(ids))
	var missing []int64
	for _, id := range ids {
		q, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		out = append(out, q)
	}
	return out, missing, nil
}

// ApplyToQuestions sets status and video_url on every question in ids with
// a single bulk UPDATE. The statement is atomic at the storage layer, which
// is what makes the apply transition all-or-nothing on the live records.
func ApplyToQuestions(ctx context.Context, db *gorm.DB, ids []int64, status domain.QuestionStatus, videoURL string) error {
	return db.WithContext(ctx).
		Model(&domain.Question{}).
		Where("id IN ?", ids).
		Updates(map[string]any{
			"status":    status,
			"video_url": videoURL,
		}).Error
}

// RestoreQuestion rewrites one question's status, video_url, and answer to
// the given pre-image values. Undo calls this per snapshot item because the
// restored values differ per question; there is no bulk primitive for it.
// Returns ErrNotFound when the question no longer exists.
func RestoreQuestion(ctx context.Context, db *gorm.DB, item domain.LotItem) error {
	res := db.WithContext(ctx).
		Model(&domain.Question{}).
		Where("id = ?", item.QuestionID).
		Updates(map[string]any{
			"status":    item.PrevStatus,
			"video_url": item.PrevVideoURL,
			"answer":    item.PrevAnswer,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
