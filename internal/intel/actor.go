package intel

import (
	"fmt"
	"strings"
)

// Severity ranks actors, hits and playbooks.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// ParseSeverity accepts any casing ("High", "high", "HIGH").
func ParseSeverity(raw string) (Severity, error) {
	s := Severity(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown severity %q", raw)
	}
	return s, nil
}

// ThreatActor is a tracked adversary group.
type ThreatActor struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Origin      string   `json:"origin"`
	Motivation  string   `json:"motivation"`
	TTPs        []string `json:"ttps"`
	Severity    Severity `json:"severity"`
	LastActive  string   `json:"lastActive"`
	Description string   `json:"description"`
}

func (a ThreatActor) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if !a.Severity.Valid() {
		return fmt.Errorf("unknown severity %q", a.Severity)
	}
	return nil
}

// WithDefaults fills the blanks a new actor draft may leave.
func (a ThreatActor) WithDefaults(today string) ThreatActor {
	if strings.TrimSpace(a.Name) == "" {
		a.Name = "New APT Group"
	}
	if a.Origin == "" {
		a.Origin = "Unknown"
	}
	if a.Motivation == "" {
		a.Motivation = "Espionage"
	}
	if len(a.TTPs) == 0 {
		a.TTPs = []string{"Pending Analysis"}
	}
	if a.Severity == "" {
		a.Severity = SeverityMedium
	}
	if a.LastActive == "" {
		a.LastActive = today
	}
	if a.Description == "" {
		a.Description = "No description provided."
	}
	return a
}

func ActorSearchFields(a ThreatActor) []string {
	return []string{a.Name, a.Origin, a.Motivation}
}
