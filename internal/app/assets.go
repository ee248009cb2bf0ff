package app

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sloppy/threatone/internal/events"
	"github.com/sloppy/threatone/internal/intel"
	"github.com/sloppy/threatone/internal/logger"
)

// AssetDraft is the input for a new scope asset.
type AssetDraft struct {
	Kind  intel.AssetKind `json:"kind"`
	Value string          `json:"value"`
	Tags  []string        `json:"tags"`
}

// AddAsset stores a new asset as Verifying and schedules its verification.
func (d *Dashboard) AddAsset(draft AssetDraft) (intel.ScopeAsset, error) {
	tags := draft.Tags
	if tags == nil {
		tags = []string{}
	}
	asset, err := d.Assets.CreateWith(intel.ScopeAsset{
		Kind:        draft.Kind,
		Value:       strings.TrimSpace(draft.Value),
		Status:      intel.AssetVerifying,
		LastChecked: d.now().UTC(),
		Tags:        tags,
	}, d.db.CreateAsset)
	if err != nil {
		return intel.ScopeAsset{}, err
	}
	d.scheduleVerification(asset.ID)
	d.publish(events.AssetCreated, asset)
	logger.Info("Scope asset added", "id", asset.ID, "kind", asset.Kind, "value", asset.Value)
	return asset, nil
}

func (d *Dashboard) scheduleVerification(id string) {
	d.verify.After(d.timings.VerifyDelay, id, func() {
		if _, err := d.settleAsset(id, intel.AssetProtected); err != nil && !errors.Is(err, intel.ErrInvalidTransition) {
			logger.Warn("Scope asset verification failed", "id", id, "error", err)
		}
	})
}

// SetAssetStatus settles a Verifying asset by hand and drops its pending
// verification.
func (d *Dashboard) SetAssetStatus(id string, status intel.AssetStatus) (intel.ScopeAsset, error) {
	asset, err := d.settleAsset(id, status)
	if err != nil {
		return intel.ScopeAsset{}, err
	}
	d.verify.Cancel(id)
	return asset, nil
}

// settleAsset re-reads the asset under the collection lock. An asset that is
// gone or already settled is left alone.
func (d *Dashboard) settleAsset(id string, status intel.AssetStatus) (intel.ScopeAsset, error) {
	checkedAt := d.now().UTC()
	var settleErr error
	asset, err := d.Assets.UpdateWith(id,
		func(a *intel.ScopeAsset) { settleErr = a.Settle(status, checkedAt) },
		func(a intel.ScopeAsset) error {
			if settleErr != nil {
				return settleErr
			}
			return d.db.UpdateAssetStatus(a.ID, a.Status, a.LastChecked)
		},
	)
	if err != nil {
		return intel.ScopeAsset{}, err
	}
	d.publish(events.AssetVerified, asset)
	logger.Info("Scope asset settled", "id", id, "status", asset.Status)
	return asset, nil
}

// UpdateAsset applies a tag patch.
func (d *Dashboard) UpdateAsset(id string, patch intel.AssetPatch) (intel.ScopeAsset, error) {
	return d.Assets.UpdateWith(id, patch.Apply, func(a intel.ScopeAsset) error {
		return d.db.UpdateAssetTags(a.ID, a.Tags)
	})
}

// DeleteAsset removes an asset and cancels its pending verification. It
// reports whether the asset existed.
func (d *Dashboard) DeleteAsset(id string) (bool, error) {
	removed, err := d.Assets.DeleteWith(id, func(id string) error {
		if err := d.db.DeleteAsset(id); err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("delete asset: %w", err)
	}
	d.verify.Cancel(id)
	d.Selected.Asset.ClearIf(id)
	if removed {
		d.publish(events.AssetDeleted, map[string]string{"id": id})
	}
	return removed, nil
}
