package intel

import (
	"fmt"
	"strings"
	"unicode"
)

// Strength grades a leaked password.
type Strength string

const (
	StrengthHigh   Strength = "High"
	StrengthMedium Strength = "Medium"
	StrengthLow    Strength = "Low"
)

// LeakStatus tracks remediation of a leaked credential.
type LeakStatus string

const (
	LeakCritical  LeakStatus = "Critical"
	LeakPending   LeakStatus = "Pending"
	LeakValidated LeakStatus = "Validated"
	LeakMitigated LeakStatus = "Mitigated"
)

func (s LeakStatus) Valid() bool {
	switch s {
	case LeakCritical, LeakPending, LeakValidated, LeakMitigated:
		return true
	}
	return false
}

// LeakedCredential is a credential captured from an infostealer log or dump.
// Secret holds sealed ciphertext only; Masked is the display form.
type LeakedCredential struct {
	ID         string     `json:"id"`
	DetectedAt string     `json:"detectedAt"`
	TargetURL  string     `json:"targetUrl"`
	Username   string     `json:"username"`
	Secret     string     `json:"-"`
	Masked     string     `json:"secret"`
	Source     string     `json:"source"`
	Strength   Strength   `json:"strength"`
	Status     LeakStatus `json:"status"`
}

func (c LeakedCredential) Validate() error {
	if strings.TrimSpace(c.Username) == "" {
		return fmt.Errorf("username is required")
	}
	if c.Secret == "" {
		return fmt.Errorf("sealed secret is required")
	}
	if !c.Status.Valid() {
		return fmt.Errorf("unknown leak status %q", c.Status)
	}
	return nil
}

func LeakSearchFields(c LeakedCredential) []string {
	return []string{c.TargetURL, c.Username, c.Source}
}

// GradePassword scores a plaintext password by length and character classes.
func GradePassword(password string) Strength {
	var lower, upper, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}
	classes := 0
	for _, ok := range []bool{lower, upper, digit, symbol} {
		if ok {
			classes++
		}
	}
	n := len([]rune(password))
	switch {
	case n >= 12 && classes >= 3:
		return StrengthHigh
	case n >= 8 && classes >= 2:
		return StrengthMedium
	default:
		return StrengthLow
	}
}

// LeakDraft is a captured credential before its password is sealed.
type LeakDraft struct {
	DetectedAt string
	TargetURL  string
	Username   string
	Password   string
	Source     string
	Status     LeakStatus
}

// Credential builds the stored record from a draft and its sealed form.
func (d LeakDraft) Credential(sealed, masked string) LeakedCredential {
	status := d.Status
	if status == "" {
		status = LeakPending
	}
	return LeakedCredential{
		DetectedAt: d.DetectedAt,
		TargetURL:  d.TargetURL,
		Username:   d.Username,
		Secret:     sealed,
		Masked:     masked,
		Source:     d.Source,
		Strength:   GradePassword(d.Password),
		Status:     status,
	}
}

// LeakPatch changes the remediation status of a leak.
type LeakPatch struct {
	Status *LeakStatus `json:"status,omitempty"`
}

func (p LeakPatch) Apply(c *LeakedCredential) {
	if p.Status != nil {
		c.Status = *p.Status
	}
}
