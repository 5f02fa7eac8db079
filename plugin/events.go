package plugin

import (
	"time"

	"github.com/xraph/edition/id"
	"github.com/xraph/edition/lane"
	"github.com/xraph/edition/object"
	"github.com/xraph/edition/types"
)

// DeployEvent describes a committed deploy.
type DeployEvent struct {
	Operation   id.OperationID  `json:"operation"`
	Identity    string          `json:"identity"`
	Commit      object.CommitID `json:"commit"`
	Name        string          `json:"name"`
	Lanes       int             `json:"lanes"`
	TotalSupply int64           `json:"total_supply"`
}

// MintEvent describes a committed batch.
type MintEvent struct {
	Operation id.OperationID  `json:"operation"`
	Identity  string          `json:"identity"`
	Commit    object.CommitID `json:"commit"`
	Lane      int64           `json:"lane"`
	Range     lane.Range      `json:"range"`
	Unit      types.Unit      `json:"unit"`
	Paid      types.Value     `json:"paid"`
	Elapsed   time.Duration   `json:"elapsed"`
}

// RejectEvent describes an operation that did not commit.
type RejectEvent struct {
	Operation id.OperationID `json:"operation"`
	Identity  string         `json:"identity"`
	Action    string         `json:"action"`
	Err       error          `json:"-"`
}

// MetadataEvent describes a metadata record replacement.
type MetadataEvent struct {
	Operation id.OperationID  `json:"operation"`
	Identity  string          `json:"identity"`
	Commit    object.CommitID `json:"commit"`
	EditionID int64           `json:"edition_id"`
	Version   int64           `json:"version"`
	Authority string          `json:"authority"`
}

// BurnEvent describes a burned edition.
type BurnEvent struct {
	Operation id.OperationID  `json:"operation"`
	Identity  string          `json:"identity"`
	Commit    object.CommitID `json:"commit"`
	EditionID int64           `json:"edition_id"`
}

// PaymentTableEvent describes a payment-table change.
type PaymentTableEvent struct {
	Operation id.OperationID  `json:"operation"`
	Identity  string          `json:"identity"`
	Commit    object.CommitID `json:"commit"`
	Version   int64           `json:"version"`
	Entries   int             `json:"entries"`
}

// ReclaimEvent describes a reclaimed batch of lanes.
type ReclaimEvent struct {
	Operation id.OperationID  `json:"operation"`
	Identity  string          `json:"identity"`
	Commit    object.CommitID `json:"commit"`
	Reclaimed int             `json:"reclaimed"`
	Remaining int             `json:"remaining"`
}
