package audithook

// Action constants for audit events.
const (
	// Instance actions
	ActionInstanceDeployed = "instance.deployed"

	// Issuance actions
	ActionEditionsMinted = "editions.minted"
	ActionMintConflict   = "mint.conflict"
	ActionMintLaneFull   = "mint.lane_full"
	ActionMintExhausted  = "mint.exhausted"

	// Metadata actions
	ActionMetadataMutated = "metadata.mutated"
	ActionEditionBurned   = "edition.burned"

	// Payment actions
	ActionPaymentTableUpdated   = "payment_table.updated"
	ActionPaymentTableReclaimed = "payment_table.reclaimed"

	// Teardown actions
	ActionLanesReclaimed = "lanes.reclaimed"
)

// Resource constants for audit events.
const (
	ResourceInstance     = "instance"
	ResourceEdition      = "edition"
	ResourceLane         = "lane"
	ResourcePaymentTable = "payment_table"
)

// Category constants for audit events.
const (
	CategoryAdministration = "administration"
	CategoryIssuance       = "issuance"
	CategoryMetadata       = "metadata"
	CategoryPayment        = "payment"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
