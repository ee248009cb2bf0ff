package intel

import (
	"fmt"
	"regexp"
	"strings"
)

// RansomwareVictim is a listing scraped from an extortion group's leak site.
type RansomwareVictim struct {
	ID              string   `json:"id"`
	Group           string   `json:"group"`
	Target          string   `json:"target"`
	Sector          string   `json:"sector"`
	Country         string   `json:"country"`
	Disclosed       string   `json:"disclosed"`
	ExtortionStatus string   `json:"extortionStatus"`
	Description     string   `json:"description"`
	Demand          *string  `json:"demand"`
	DataCategories  []string `json:"dataCategories"`
}

func (v RansomwareVictim) Validate() error {
	if strings.TrimSpace(v.Target) == "" {
		return fmt.Errorf("target is required")
	}
	if strings.TrimSpace(v.Group) == "" {
		return fmt.Errorf("group is required")
	}
	return nil
}

func VictimSearchFields(v RansomwareVictim) []string {
	return []string{v.Target, v.Group}
}

var cvePattern = regexp.MustCompile(`^CVE-\d{4}-\d{4,}$`)

// Vulnerability is a CISA KEV catalog entry.
type Vulnerability struct {
	CVE            string  `json:"cve"`
	Vendor         string  `json:"vendor"`
	Product        string  `json:"product"`
	DateAdded      string  `json:"dateAdded"`
	DueDate        string  `json:"dueDate"`
	Score          float64 `json:"score"`
	Status         string  `json:"status"`
	Description    string  `json:"description"`
	RequiredAction string  `json:"requiredAction"`
	ReferenceURL   string  `json:"referenceUrl"`
}

func (v Vulnerability) Validate() error {
	if !cvePattern.MatchString(v.CVE) {
		return fmt.Errorf("malformed CVE id %q", v.CVE)
	}
	if v.Score < 0 || v.Score > 10 {
		return fmt.Errorf("cvss score %.1f out of range 0.0-10.0", v.Score)
	}
	return nil
}

func VulnSearchFields(v Vulnerability) []string {
	return []string{v.CVE, v.Vendor, v.Product}
}

// AuditQuestion is one entry of the supplier questionnaire.
type AuditQuestion struct {
	ID       int64  `json:"id"`
	Text     string `json:"text"`
	Category string `json:"category"`
}

func (q AuditQuestion) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("question text is required")
	}
	return nil
}

// QuestionPatch edits a question in place.
type QuestionPatch struct {
	Text     *string `json:"text,omitempty"`
	Category *string `json:"category,omitempty"`
}

func (p QuestionPatch) Apply(q *AuditQuestion) {
	if p.Text != nil {
		q.Text = strings.TrimSpace(*p.Text)
	}
	if p.Category != nil {
		q.Category = strings.TrimSpace(*p.Category)
	}
}

// DefaultQuestionCategory is used when a new question omits its category.
const DefaultQuestionCategory = "Maturity"

// ForumPost is an underground forum mention.
type ForumPost struct {
	ID      string `json:"id"`
	User    string `json:"user"`
	Forum   string `json:"forum"`
	Post    string `json:"post"`
	Date    string `json:"date"`
	URL     string `json:"url"`
	Details string `json:"details"`
}

// ChatSource is the messaging platform a chat message was captured from.
type ChatSource string

const (
	ChatTelegram ChatSource = "Telegram"
	ChatDiscord  ChatSource = "Discord"
	ChatWhatsApp ChatSource = "WhatsApp"
)

// ChatMessage is a captured message from a monitored group chat.
type ChatMessage struct {
	ID      string     `json:"id"`
	Date    string     `json:"date"`
	User    string     `json:"user"`
	Chat    string     `json:"chat"`
	Source  ChatSource `json:"source"`
	Message string     `json:"message"`
	URL     string     `json:"url"`
}
