package intel

// ThreatSource is where a correlation hit was observed.
type ThreatSource string

const (
	SourceKEV         ThreatSource = "CISA KEV"
	SourceRansomware  ThreatSource = "Ransomware Blog"
	SourceDarkweb     ThreatSource = "Darkweb"
	SourceInfostealer ThreatSource = "Infostealer"
	SourceThreatFeed  ThreatSource = "Threat Feed"
)

var ThreatSources = []ThreatSource{SourceKEV, SourceRansomware, SourceDarkweb, SourceInfostealer, SourceThreatFeed}

func (s ThreatSource) Valid() bool {
	for _, known := range ThreatSources {
		if s == known {
			return true
		}
	}
	return false
}

// CorrelationHit links a scope asset to an observed threat.
//
// AssetValue references the asset by its display value, not by id. Two assets
// sharing a value, or an edited value, make the reference ambiguous; hits are
// never persisted so no foreign key exists to fix it.
type CorrelationHit struct {
	ID          string       `json:"id"`
	AssetValue  string       `json:"assetValue"`
	ThreatTitle string       `json:"threatTitle"`
	Source      ThreatSource `json:"source"`
	Severity    Severity     `json:"severity"`
	Link        string       `json:"link"`
	Description string       `json:"description"`
	DetectedAt  string       `json:"detectedAt"`
	Remediation []string     `json:"remediation"`
}
