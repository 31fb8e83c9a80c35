package repo

import (
	"context"
	"testing"

	"github.com/qnahub/dispatch-bot/internal/domain"
)

func TestCreateLead_PersistsFields(t *testing.T) {
	db := newRepoDB(t, &domain.Lead{})

	lead, err := CreateLead(context.Background(), db, "maria@example.com", true, "list")
	if err != nil {
		t.Fatalf("CreateLead: %v", err)
	}
	if lead.ID == "" {
		t.Fatal("lead ID must be set")
	}

	var got domain.Lead
	if err := db.First(&got, "id = ?", lead.ID).Error; err != nil {
		t.Fatalf("load lead: %v", err)
	}
	if got.Email != "maria@example.com" || !got.Allowed || got.Source != "list" {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
}

func TestCreateLead_DuplicateEmailsKept(t *testing.T) {
	db := newRepoDB(t, &domain.Lead{})

	for i := 0; i < 2; i++ {
		if _, err := CreateLead(context.Background(), db, "maria@example.com", false, "default"); err != nil {
			t.Fatalf("CreateLead %d: %v", i, err)
		}
	}
	var n int64
	if err := db.Model(&domain.Lead{}).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 lead rows, got %d", n)
	}
}
