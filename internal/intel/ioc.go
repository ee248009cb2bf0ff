package intel

import (
	"fmt"
	"strings"
)

// IOCKind classifies an indicator of compromise.
type IOCKind string

const (
	IOCIP     IOCKind = "IP"
	IOCDomain IOCKind = "DOMAIN"
	IOCHash   IOCKind = "HASH"
	IOCURL    IOCKind = "URL"
	IOCEmail  IOCKind = "EMAIL"
)

// IOCKinds lists every valid indicator kind in display order.
var IOCKinds = []IOCKind{IOCIP, IOCDomain, IOCHash, IOCURL, IOCEmail}

// Valid reports whether k is a known kind.
func (k IOCKind) Valid() bool {
	for _, known := range IOCKinds {
		if k == known {
			return true
		}
	}
	return false
}

// IOCStatus is the lifecycle label of an indicator.
type IOCStatus string

const (
	IOCActive   IOCStatus = "Active"
	IOCRevoked  IOCStatus = "Revoked"
	IOCInactive IOCStatus = "Inactive"
)

func (s IOCStatus) Valid() bool {
	switch s {
	case IOCActive, IOCRevoked, IOCInactive:
		return true
	}
	return false
}

// IOC is an indicator of compromise.
type IOC struct {
	ID              string    `json:"id"`
	Value           string    `json:"value"`
	Kind            IOCKind   `json:"kind"`
	Confidence      int       `json:"confidence"`
	Status          IOCStatus `json:"status"`
	LastSeen        string    `json:"lastSeen"`
	Tags            []string  `json:"tags"`
	Description     string    `json:"description,omitempty"`
	AssociatedActor string    `json:"associatedActor,omitempty"`
	Location        string    `json:"location,omitempty"`
}

// Validate checks the required fields and ranges of an indicator.
func (i IOC) Validate() error {
	if strings.TrimSpace(i.Value) == "" {
		return fmt.Errorf("value is required")
	}
	if !i.Kind.Valid() {
		return fmt.Errorf("unknown indicator kind %q", i.Kind)
	}
	if i.Confidence < 0 || i.Confidence > 100 {
		return fmt.Errorf("confidence %d out of range 0-100", i.Confidence)
	}
	if !i.Status.Valid() {
		return fmt.Errorf("unknown indicator status %q", i.Status)
	}
	return nil
}

// IOCPatch is a partial update; nil fields are left untouched.
type IOCPatch struct {
	Value       *string    `json:"value,omitempty"`
	Kind        *IOCKind   `json:"kind,omitempty"`
	Confidence  *int       `json:"confidence,omitempty"`
	Status      *IOCStatus `json:"status,omitempty"`
	Tags        *[]string  `json:"tags,omitempty"`
	Description *string    `json:"description,omitempty"`
}

// Apply merges the patch into i.
func (p IOCPatch) Apply(i *IOC) {
	if p.Value != nil {
		i.Value = strings.TrimSpace(*p.Value)
	}
	if p.Kind != nil {
		i.Kind = *p.Kind
	}
	if p.Confidence != nil {
		i.Confidence = *p.Confidence
	}
	if p.Status != nil {
		i.Status = *p.Status
	}
	if p.Tags != nil {
		i.Tags = append([]string(nil), (*p.Tags)...)
	}
	if p.Description != nil {
		i.Description = *p.Description
	}
}

// IOCSearchFields are the text fields the indicator search matches against.
func IOCSearchFields(i IOC) []string {
	return append([]string{i.Value}, i.Tags...)
}

// WithDefaults fills the fields a manually added indicator may omit.
func (i IOC) WithDefaults(now string) IOC {
	i.Value = strings.TrimSpace(i.Value)
	if i.Kind == "" {
		i.Kind = IOCIP
	}
	if i.Confidence == 0 {
		i.Confidence = 50
	}
	if i.Status == "" {
		i.Status = IOCActive
	}
	if i.LastSeen == "" {
		i.LastSeen = now
	}
	if i.Tags == nil {
		i.Tags = []string{}
	}
	if i.Description == "" {
		i.Description = "Manually added."
	}
	return i
}
