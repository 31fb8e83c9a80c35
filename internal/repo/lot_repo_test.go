package repo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/qnahub/dispatch-bot/internal/domain"
)

func newRepoDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Ensure the file handle is released before TempDir cleanup (Windows needs this).
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func sampleLot(code string, dest domain.Destination) *domain.Lot {
	return &domain.Lot{
		Code:        code,
		Destination: dest,
		Status:      domain.LotPending,
		Items: []domain.LotItem{
			{Position: 0, QuestionID: 10, Author: "Ana", Text: "primeira", PrevStatus: domain.QuestionPending},
			{Position: 1, QuestionID: 11, Author: "", Text: "segunda", PrevStatus: domain.QuestionPending},
		},
	}
}

func TestCreateLot_PersistsItemsAndSetsCreatedAt(t *testing.T) {
	db := newRepoDB(t, &domain.Lot{}, &domain.LotItem{})

	start := time.Now().UTC().Add(-time.Minute)
	lot := sampleLot("250829-1000-AAAA", domain.DestLiveGratuita)
	if err := CreateLot(context.Background(), db, lot); err != nil {
		t.Fatalf("CreateLot: %v", err)
	}
	if lot.CreatedAt.Before(start) {
		t.Fatalf("CreatedAt seems unset: %v", lot.CreatedAt)
	}

	got, err := GetLot(context.Background(), db, lot.Code)
	if err != nil {
		t.Fatalf("GetLot: %v", err)
	}
	if len(got.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(got.Items))
	}
	if got.Items[0].QuestionID != 10 || got.Items[1].QuestionID != 11 {
		t.Fatalf("items out of position order: %+v", got.Items)
	}
}

func TestCreateLot_DuplicateCode_ReturnsErrDuplicate(t *testing.T) {
	db := newRepoDB(t, &domain.Lot{}, &domain.LotItem{})

	if err := CreateLot(context.Background(), db, sampleLot("250829-1000-AAAA", domain.DestLiveGratuita)); err != nil {
		t.Fatalf("first CreateLot: %v", err)
	}
	err := CreateLot(context.Background(), db, sampleLot("250829-1000-AAAA", domain.DestDespertos))
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestGetLot_NotFound(t *testing.T) {
	db := newRepoDB(t, &domain.Lot{}, &domain.LotItem{})

	_, err := GetLot(context.Background(), db, "000000-0000-XXXX")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListLots_NewestFirst(t *testing.T) {
	db := newRepoDB(t, &domain.Lot{}, &domain.LotItem{})

	t1 := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)
	for i, code := range []string{"250801-1000-AAAA", "250801-1100-BBBB", "250801-1200-CCCC"} {
		lot := &domain.Lot{Code: code, Destination: domain.DestLiveGratuita, Status: domain.LotPending}
		if err := db.Create(lot).Error; err != nil {
			t.Fatalf("seed %s: %v", code, err)
		}
		if err := db.Model(lot).Update("created_at", t1.Add(time.Duration(i)*time.Hour)).Error; err != nil {
			t.Fatalf("stamp %s: %v", code, err)
		}
	}

	lots, err := ListLots(context.Background(), db)
	if err != nil {
		t.Fatalf("ListLots: %v", err)
	}
	if len(lots) != 3 {
		t.Fatalf("expected 3 lots, got %d", len(lots))
	}
	if lots[0].Code != "250801-1200-CCCC" || lots[2].Code != "250801-1000-AAAA" {
		t.Fatalf("unexpected order: %s, %s, %s", lots[0].Code, lots[1].Code, lots[2].Code)
	}
}

func TestCountLots_And_ListLotsPage(t *testing.T) {
	db := newRepoDB(t, &domain.Lot{}, &domain.LotItem{})

	for i := 0; i < 5; i++ {
		lot := sampleLot(fmt.Sprintf("250829-100%d-AAA%d", i, i), domain.DestLiveGratuita)
		if err := CreateLot(context.Background(), db, lot); err != nil {
			t.Fatalf("seed lot %d: %v", i, err)
		}
	}

	total, err := CountLots(context.Background(), db)
	if err != nil || total != 5 {
		t.Fatalf("CountLots = %d, %v; want 5, nil", total, err)
	}

	page, err := ListLotsPage(context.Background(), db, 0, 2)
	if err != nil {
		t.Fatalf("ListLotsPage: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected page of 2, got %d", len(page))
	}
	if len(page[0].Items) != 2 {
		t.Fatalf("page lots should include items, got %d", len(page[0].Items))
	}
}

func TestSaveLot_TransitionPersistsAndKeepsItems(t *testing.T) {
	db := newRepoDB(t, &domain.Lot{}, &domain.LotItem{})

	lot := sampleLot("250829-1000-AAAA", domain.DestLiveGratuita)
	if err := CreateLot(context.Background(), db, lot); err != nil {
		t.Fatalf("CreateLot: %v", err)
	}

	now := time.Now().UTC()
	lot.Status = domain.LotApplied
	lot.VideoURL = "https://youtu.be/abc12345678"
	lot.AppliedAt = &now
	lot.AppliedBy = "op-1"
	if err := SaveLot(context.Background(), db, lot); err != nil {
		t.Fatalf("SaveLot: %v", err)
	}

	got, err := GetLot(context.Background(), db, lot.Code)
	if err != nil {
		t.Fatalf("GetLot: %v", err)
	}
	if got.Status != domain.LotApplied || got.VideoURL != "https://youtu.be/abc12345678" || got.AppliedBy != "op-1" {
		t.Fatalf("transition not persisted: %+v", got)
	}
	if len(got.Items) != 2 {
		t.Fatalf("items must survive SaveLot untouched, got %d", len(got.Items))
	}
}
