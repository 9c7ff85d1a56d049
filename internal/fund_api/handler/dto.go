package handler

// CreateDonationRequest is the body of POST /api/donations. Amount is in minor units.
type CreateDonationRequest struct {
	UserID         string `json:"userId" binding:"required"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency,omitempty"`
	Status         string `json:"status,omitempty"`
	IdempotencyKey string `json:"idempotencyKey,omitempty"`
}

// DistributeRequest re-drives the distribution of one of the donor's donations.
// Without donationId the donor's newest unfinished donation, of donationAmount if given, is used.
type DistributeRequest struct {
	DonationID     string   `json:"donationId,omitempty"`
	DonationAmount int64    `json:"donationAmount,omitempty"`
	ProjectIDs     []string `json:"projectIds,omitempty"`
}

// DonationResponse represents a donation in API responses
type DonationResponse struct {
	ID             string `json:"id"`
	UserID         string `json:"userId"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Status         string `json:"status"`
	IdempotencyKey string `json:"idempotencyKey,omitempty"`
	CreatedAt      string `json:"createdAt"`
}

// AllocationResponse is one project's share of a donation
type AllocationResponse struct {
	ProjectID string `json:"projectId"`
	Amount    int64  `json:"amount"`
	Applied   bool   `json:"applied"`
}

// DistributionResponse represents a distribution plan and its progress
type DistributionResponse struct {
	DonationID  string               `json:"donationId"`
	State       string               `json:"state"`
	Attempts    int                  `json:"attempts"`
	Allocations []AllocationResponse `json:"allocations"`
}

// DonorResponse is the donor summary the UI reads back
type DonorResponse struct {
	UserID               string           `json:"userId"`
	IsContributor        bool             `json:"isContributor"`
	TotalDonated         int64            `json:"totalDonated"`
	Unallocated          int64            `json:"unallocated"`
	ProjectContributions map[string]int64 `json:"projectContributions"`
	LastDonationAt       string           `json:"lastDonationAt,omitempty"`
}

// DonationResultResponse is returned by the record and distribute endpoints
type DonationResultResponse struct {
	Donation         DonationResponse      `json:"donation"`
	Donor            *DonorResponse        `json:"donor,omitempty"`
	Distribution     *DistributionResponse `json:"distribution,omitempty"`
	Replayed         bool                  `json:"replayed,omitempty"`
	FailedProjectIDs []string              `json:"failedProjectIds,omitempty"`
	Retryable        bool                  `json:"retryable,omitempty"`
}

// DonationDetailsResponse is the authoritative view of a donation
type DonationDetailsResponse struct {
	Donation     DonationResponse      `json:"donation"`
	Distribution *DistributionResponse `json:"distribution,omitempty"`
}

// AuditResponse compares a donor account with the donation history
type AuditResponse struct {
	UserID          string `json:"userId"`
	DonationCount   int    `json:"donationCount"`
	HistoricalTotal int64  `json:"historicalTotal"`
	RecordedTotal   int64  `json:"recordedTotal"`
	Allocated       int64  `json:"allocated"`
	Unallocated     int64  `json:"unallocated"`
	Drift           int64  `json:"drift"`
	Consistent      bool   `json:"consistent"`
}

// JournalEntryResponse represents a donation from the history read model
type JournalEntryResponse struct {
	DonationID    string `json:"donationId"`
	UserID        string `json:"userId"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	Status        string `json:"status"`
	CorrelationID string `json:"correlationId,omitempty"`
	CreatedAt     string `json:"createdAt"`
}

// CreateProjectRequest represents a request to create a project
type CreateProjectRequest struct {
	ID           string `json:"id,omitempty"`
	Title        string `json:"title" binding:"required"`
	Description  string `json:"description,omitempty"`
	TargetAmount int64  `json:"targetAmount" binding:"required,gt=0"`
	Status       string `json:"status,omitempty"`
}

// UpdateProjectRequest is the body of PATCH /api/projects/:id. CurrentAmount is only
// decoded so that a client trying to set it can be refused.
type UpdateProjectRequest struct {
	Title         *string `json:"title,omitempty"`
	Description   *string `json:"description,omitempty"`
	Status        *string `json:"status,omitempty"`
	CurrentAmount *int64  `json:"currentAmount,omitempty"`
}

// ProjectResponse represents a project in API responses
type ProjectResponse struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	TargetAmount  int64  `json:"targetAmount"`
	CurrentAmount int64  `json:"currentAmount"`
	FundedPercent string `json:"fundedPercent"`
	Status        string `json:"status"`
	CreatedAt     string `json:"createdAt"`
	UpdatedAt     string `json:"updatedAt"`
}

// StatsResponse is the fund-wide snapshot
type StatsResponse struct {
	TotalDonations int64 `json:"totalDonations"`
	TotalDonors    int64 `json:"totalDonors"`
	TotalProjects  int64 `json:"totalProjects"`
	ActiveProjects int64 `json:"activeProjects"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	UserID  string `form:"userId"`
	Page    int    `form:"page,default=1" binding:"min=1"`
	PerPage int    `form:"per_page,default=10" binding:"min=1,max=100"`
}
