// Package domain defines the persistence models for questions, dispatch
// lots, and their snapshot items. These types are mapped with GORM and form
// the core data layer of the dispatch bot.
package domain

import "time"

// QuestionStatus enumerates the lifecycle states of a live question record.
type QuestionStatus string

const (
	// QuestionPending marks a question that has not been answered yet.
	QuestionPending QuestionStatus = "PENDING"
	// QuestionAnswered marks a question answered publicly (free live track).
	QuestionAnswered QuestionStatus = "ANSWERED"
	// QuestionPremium marks a question answered in the members-only track.
	QuestionPremium QuestionStatus = "PREMIUM"
)

// Destination names the track a lot is dispatched for. The destination
// determines which status the affected questions receive on apply.
type Destination string

const (
	// DestLiveGratuita is the free public live track.
	DestLiveGratuita Destination = "LIVE_GRATUITA"
	// DestDespertos is the premium members track.
	DestDespertos Destination = "DESPERTOS"
)

// KnownDestination reports whether d is one of the supported destinations.
func KnownDestination(d Destination) bool {
	return d == DestLiveGratuita || d == DestDespertos
}

// Label returns the human-readable (pt-BR) name of the destination, as
// rendered in outbound messages.
func (d Destination) Label() string {
	switch d {
	case DestLiveGratuita:
		return "Live Gratuita"
	case DestDespertos:
		return "Despertos"
	}
	return string(d)
}

// TargetStatus returns the question status applied to every item of a lot
// dispatched for this destination.
func (d Destination) TargetStatus() QuestionStatus {
	if d == DestDespertos {
		return QuestionPremium
	}
	return QuestionAnswered
}

// LotStatus enumerates the lifecycle states of a lot. Transitions are
// strictly monotonic: PENDING → APPLIED → REVERTED; nothing else is legal.
type LotStatus string

const (
	LotPending  LotStatus = "PENDING"
	LotApplied  LotStatus = "APPLIED"
	LotReverted LotStatus = "REVERTED"
)

// Question is a live Q&A record owned by the web front-end. The bot only
// mutates status, answer, and video_url; everything else is CRUD glue
// handled elsewhere.
//
// Fields:
//   - ID: integer identifier assigned by the submission form.
//   - Author: display name of the asker (blank renders as "Anônimo").
//   - Text: the question body.
//   - Status: PENDING, ANSWERED, or PREMIUM.
//   - Answer: optional written answer.
//   - VideoURL: optional link to the recorded answer.
type Question struct {
	ID        int64          `json:"id"         gorm:"primaryKey;autoIncrement:false"`
	Author    string         `json:"author"     gorm:"type:varchar(120)"`
	Text      string         `json:"text"       gorm:"type:text;not null"`
	Status    QuestionStatus `json:"status"     gorm:"type:varchar(16);not null;default:'PENDING';index"`
	Answer    string         `json:"answer,omitempty"    gorm:"type:text"`
	VideoURL  string         `json:"video_url,omitempty" gorm:"type:varchar(512)"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// TableName returns the database table name for Question.
func (Question) TableName() string { return "questions" }

// Lot is an immutable-membership group of questions dispatched together.
// Rows are append-only history: lots are never deleted, only transitioned
// PENDING → APPLIED → REVERTED by the lifecycle service.
//
// VideoURL is set exactly once, at apply time. It is retained after a revert
// for audit purposes; the restored state of the underlying questions is what
// matters operationally.
type Lot struct {
	Code        string      `json:"code"        gorm:"type:varchar(32);primaryKey"`
	Destination Destination `json:"destination" gorm:"type:varchar(24);not null;index:idx_lot_dest_status,priority:1"`
	Status      LotStatus   `json:"status"      gorm:"type:varchar(16);not null;default:'PENDING';index:idx_lot_dest_status,priority:2"`
	VideoURL    string      `json:"video_url,omitempty" gorm:"type:varchar(512)"`
	AppliedAt   *time.Time  `json:"applied_at,omitempty"`
	AppliedBy   string      `json:"applied_by,omitempty"  gorm:"type:varchar(64)"`
	RevertedAt  *time.Time  `json:"reverted_at,omitempty"`
	RevertedBy  string      `json:"reverted_by,omitempty" gorm:"type:varchar(64)"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`

	// Items are the frozen pre-images captured at creation, ordered by
	// Position (selection order). The set never changes after creation.
	Items []LotItem `json:"items" gorm:"foreignKey:LotCode;references:Code;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Lot.
func (Lot) TableName() string { return "lots" }

// LotItem is the snapshot of one question at lot-creation time. Author and
// Text feed outbound message rendering; the Prev* fields are the rollback
// targets used by undo.
type LotItem struct {
	ID           uint           `json:"-"           gorm:"primaryKey;autoIncrement"`
	LotCode      string         `json:"-"           gorm:"type:varchar(32);not null;index:idx_item_lot_pos,priority:1"`
	Position     int            `json:"position"    gorm:"not null;index:idx_item_lot_pos,priority:2"`
	QuestionID   int64          `json:"question_id" gorm:"not null"`
	Author       string         `json:"author"      gorm:"type:varchar(120)"`
	Text         string         `json:"text"        gorm:"type:text;not null"`
	PrevStatus   QuestionStatus `json:"prev_status"    gorm:"type:varchar(16);not null"`
	PrevVideoURL string         `json:"prev_video_url" gorm:"type:varchar(512)"`
	PrevAnswer   string         `json:"prev_answer"    gorm:"type:text"`
}

// TableName returns the database table name for LotItem.
func (LotItem) TableName() string { return "lot_items" }

// Lead records one premium-access check, regardless of outcome. Kept for
// follow-up by the sales side of the product.
type Lead struct {
	ID        string    `json:"id"      gorm:"type:char(36);primaryKey"`
	Email     string    `json:"email"   gorm:"type:varchar(254);not null;index"`
	Allowed   bool      `json:"allowed" gorm:"not null"`
	Source    string    `json:"source"  gorm:"type:varchar(24);not null"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Lead.
func (Lead) TableName() string { return "leads" }
