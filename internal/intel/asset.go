package intel

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidTransition is returned when an asset is asked to leave a settled status.
var ErrInvalidTransition = errors.New("invalid status transition")

// AssetKind is the kind of scope asset under monitoring.
type AssetKind string

const (
	AssetDomain      AssetKind = "Domain"
	AssetIP          AssetKind = "IP"
	AssetKeyword     AssetKind = "Keyword"
	AssetEmailDomain AssetKind = "EmailDomain"
)

var AssetKinds = []AssetKind{AssetDomain, AssetIP, AssetKeyword, AssetEmailDomain}

func (k AssetKind) Valid() bool {
	for _, known := range AssetKinds {
		if k == known {
			return true
		}
	}
	return false
}

// AssetStatus is the verification state of a scope asset.
// Verifying is the only non-terminal state.
type AssetStatus string

const (
	AssetVerifying AssetStatus = "Verifying"
	AssetProtected AssetStatus = "Protected"
	AssetExposed   AssetStatus = "Exposed"
)

func (s AssetStatus) Valid() bool {
	switch s {
	case AssetVerifying, AssetProtected, AssetExposed:
		return true
	}
	return false
}

// ScopeAsset is an organisational asset nominated for exposure monitoring.
type ScopeAsset struct {
	ID          string      `json:"id"`
	Kind        AssetKind   `json:"kind"`
	Value       string      `json:"value"`
	Status      AssetStatus `json:"status"`
	LastChecked time.Time   `json:"lastChecked"`
	Tags        []string    `json:"tags"`
}

func (a ScopeAsset) Validate() error {
	if strings.TrimSpace(a.Value) == "" {
		return fmt.Errorf("value is required")
	}
	if !a.Kind.Valid() {
		return fmt.Errorf("unknown asset kind %q", a.Kind)
	}
	if !a.Status.Valid() {
		return fmt.Errorf("unknown asset status %q", a.Status)
	}
	return nil
}

// Settle moves a Verifying asset to a terminal status.
func (a *ScopeAsset) Settle(to AssetStatus, at time.Time) error {
	if a.Status != AssetVerifying {
		return fmt.Errorf("%w: asset %s is already %s", ErrInvalidTransition, a.ID, a.Status)
	}
	if to != AssetProtected && to != AssetExposed {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, to)
	}
	a.Status = to
	a.LastChecked = at
	return nil
}

func AssetSearchFields(a ScopeAsset) []string {
	return append([]string{a.Value}, a.Tags...)
}

// AssetPatch edits the descriptive fields of an asset. Status only moves
// through Settle.
type AssetPatch struct {
	Tags *[]string `json:"tags,omitempty"`
}

func (p AssetPatch) Apply(a *ScopeAsset) {
	if p.Tags != nil {
		a.Tags = append([]string(nil), (*p.Tags)...)
	}
}
