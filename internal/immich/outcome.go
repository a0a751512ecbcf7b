package immich

import "fmt"

// OutcomeKind classifies the server's answer to an upload.
type OutcomeKind int

const (
	OutcomeFailed OutcomeKind = iota
	OutcomeCreated
	OutcomeDeduplicated
	OutcomeRejectedDuplicate
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeCreated:
		return "created"
	case OutcomeDeduplicated:
		return "deduplicated"
	case OutcomeRejectedDuplicate:
		return "rejected_duplicate"
	default:
		return "failed"
	}
}

// Outcome is the result of one upload attempt. Every kind except
// OutcomeFailed means the file is on the server and must not be sent
// again. The asset id is optional only for OutcomeRejectedDuplicate.
type Outcome struct {
	kind    OutcomeKind
	assetID string
}

// Created is a fresh upload.
func Created(assetID string) Outcome {
	return Outcome{kind: OutcomeCreated, assetID: assetID}
}

// Deduplicated means the server already had the asset and returned it.
func Deduplicated(assetID string) Outcome {
	return Outcome{kind: OutcomeDeduplicated, assetID: assetID}
}

// RejectedDuplicate means the server refused the upload as a duplicate
// and told us which asset it collides with.
func RejectedDuplicate(assetID string) Outcome {
	return Outcome{kind: OutcomeRejectedDuplicate, assetID: assetID}
}

// UnknownDuplicate means the server refused the upload as a duplicate
// without saying which asset it collides with.
func UnknownDuplicate() Outcome {
	return Outcome{kind: OutcomeRejectedDuplicate}
}

// Failed means the upload did not happen and may be retried later.
func Failed() Outcome {
	return Outcome{kind: OutcomeFailed}
}

// Kind returns the outcome's classification.
func (o Outcome) Kind() OutcomeKind {
	return o.kind
}

// AssetID returns the server-side asset id and whether it is known.
func (o Outcome) AssetID() (string, bool) {
	return o.assetID, o.assetID != ""
}

// Synced reports whether the file should be recorded as done.
func (o Outcome) Synced() bool {
	return o.kind != OutcomeFailed
}

func (o Outcome) String() string {
	if o.assetID == "" {
		if o.kind == OutcomeRejectedDuplicate {
			return o.kind.String() + "(unknown)"
		}

		return o.kind.String()
	}

	return fmt.Sprintf("%s(%s)", o.kind, o.assetID)
}
