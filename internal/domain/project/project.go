package project

import (
	"strings"
	"time"

	"github.com/eco-fund-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Project is a fundraising target. CurrentAmount only ever grows, and only through
// the ledger store's atomic increment.
type Project struct {
	ID            string               `json:"id"`
	Title         string               `json:"title"`
	Description   string               `json:"description"`
	TargetAmount  int64                `json:"target_amount"`
	CurrentAmount int64                `json:"current_amount"`
	Status        shared.ProjectStatus `json:"status"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// NewProject validates and builds a project with zero raised funds.
// An empty id is replaced with a generated one; an empty status means active.
func NewProject(id, title, description string, targetAmount int64, status shared.ProjectStatus) (*Project, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		id = uuid.NewString()
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, shared.ValidationError{Field: "title", Reason: "is required"}
	}
	if targetAmount <= 0 {
		return nil, shared.ValidationError{Field: "targetAmount", Reason: "must be positive"}
	}
	if status == "" {
		status = shared.ProjectStatusActive
	}
	status, err := ParseStatus(string(status))
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Project{
		ID:           id,
		Title:        title,
		Description:  description,
		TargetAmount: targetAmount,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ParseStatus converts user input into a known project status
func ParseStatus(s string) (shared.ProjectStatus, error) {
	switch status := shared.ProjectStatus(strings.ToLower(strings.TrimSpace(s))); status {
	case shared.ProjectStatusActive, shared.ProjectStatusVoting, shared.ProjectStatusCompleted:
		return status, nil
	default:
		return "", shared.ValidationError{Field: "status", Reason: "must be one of active, voting, completed"}
	}
}

// IsActive reports whether the project takes part in distribution
func (p *Project) IsActive() bool {
	return p.Status == shared.ProjectStatusActive
}

// FundedPercent is CurrentAmount as a percentage of TargetAmount, rounded to two places
func (p *Project) FundedPercent() decimal.Decimal {
	if p.TargetAmount <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(p.CurrentAmount).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(p.TargetAmount), 2)
}

// Remaining is how much is still needed to reach the target
func (p *Project) Remaining() int64 {
	return max(p.TargetAmount-p.CurrentAmount, 0)
}
