package shared

// DefaultCurrency is applied when a donation arrives without a currency code
const DefaultCurrency = "UZS"

// DonationStatus is recorded on a donation and never transitioned
type DonationStatus string

const (
	DonationStatusPending   DonationStatus = "pending"
	DonationStatusCompleted DonationStatus = "completed"
)

// ProjectStatus defines project lifecycle states
type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusVoting    ProjectStatus = "voting"
	ProjectStatusCompleted ProjectStatus = "completed"
)

// DistributionState tracks how far a donation's fan-out has progressed
type DistributionState string

const (
	DistributionStateCreated          DistributionState = "created"
	DistributionStateDistributing     DistributionState = "distributing"
	DistributionStateFullyApplied     DistributionState = "fully_applied"
	DistributionStatePartiallyApplied DistributionState = "partially_applied"
)

// Terminal reports whether no further legs remain to be applied
func (s DistributionState) Terminal() bool {
	return s == DistributionStateFullyApplied
}

// OutboxStatus defines message publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)

// EventType names the events relayed through the outbox
type EventType string

const (
	EventTypeDonationRecorded EventType = "donation.recorded"
)
