package intel

// Seed data loaded into a fresh dashboard. Ids are assigned by the store.

func SeedIOCs() []IOC {
	return []IOC{
		{
			Value:           "185.220.101.45",
			Kind:            IOCIP,
			Confidence:      98,
			Status:          IOCActive,
			LastSeen:        "2024-05-24 10:22",
			Tags:            []string{"APT28", "VPN"},
			AssociatedActor: "Fancy Bear",
			Location:        "Russia, Moscow",
			Description:     "Known C2 server for X-Agent implant communications.",
		},
		{
			Value:           "update-service-win.org",
			Kind:            IOCDomain,
			Confidence:      85,
			Status:          IOCActive,
			LastSeen:        "2024-05-23 15:45",
			Tags:            []string{"Phishing", "Malware"},
			AssociatedActor: "Lazarus Group",
			Location:        "Hosted on Cloudflare",
			Description:     "Malicious domain used for credential harvesting targeting financial sector.",
		},
	}
}

func SeedActors() []ThreatActor {
	return []ThreatActor{
		{Name: "Lazarus Group", Origin: "North Korea", Motivation: "Financial Gain", TTPs: []string{"Spear-phishing", "Custom Malware", "Exploit Kits"}, Severity: SeverityCritical, LastActive: "2024-05-12", Description: "North Korean state-sponsored cyber warfare group responsible for several high-profile attacks."},
		{Name: "Fancy Bear (APT28)", Origin: "Russia", Motivation: "Political Espionage", TTPs: []string{"Zero-day Exploits", "Credential Harvesting"}, Severity: SeverityHigh, LastActive: "2024-05-15", Description: "Russian cyber-espionage group associated with the GRU."},
		{Name: "LockBit", Origin: "Unknown", Motivation: "Ransomware", TTPs: []string{"RaaS", "Double Extortion"}, Severity: SeverityCritical, LastActive: "2024-05-20", Description: "Highly active ransomware-as-a-service (RaaS) operator."},
		{Name: "Wizard Spider", Origin: "Eastern Europe", Motivation: "Cybercrime", TTPs: []string{"Ryuk Ransomware", "Conti"}, Severity: SeverityHigh, LastActive: "2024-04-30", Description: "Sophisticated criminal group known for multi-stage ransomware attacks."},
	}
}

func SeedVulnerabilities() []Vulnerability {
	return []Vulnerability{
		{CVE: "CVE-2024-21410", Vendor: "Microsoft", Product: "Exchange Server", DateAdded: "2024-05-14", DueDate: "2024-06-04", Score: 9.8, Status: "Active",
			Description:    "Microsoft Exchange Server Elevation of Privilege Vulnerability. A remote attacker could exploit this vulnerability to gain elevated privileges on the affected system.",
			RequiredAction: "Apply updates per vendor instructions or mitigate using Extended Protection for Authentication.",
			ReferenceURL:   "https://nvd.nist.gov/vuln/detail/CVE-2024-21410"},
		{CVE: "CVE-2023-38831", Vendor: "RARLAB", Product: "WinRAR", DateAdded: "2024-05-10", DueDate: "2024-05-31", Score: 7.8, Status: "Active",
			Description:    "RARLAB WinRAR allows remote attackers to execute arbitrary code when a user attempts to view a benign file within a specially crafted ZIP archive.",
			RequiredAction: "Update to version 6.23 or later.",
			ReferenceURL:   "https://nvd.nist.gov/vuln/detail/CVE-2023-38831"},
		{CVE: "CVE-2024-3400", Vendor: "Palo Alto", Product: "PAN-OS", DateAdded: "2024-04-12", DueDate: "2024-05-03", Score: 10.0, Status: "Mitigated",
			Description:    "A command injection vulnerability in the GlobalProtect feature of Palo Alto Networks PAN-OS software for specific versions allows an unauthenticated attacker to execute arbitrary code with root privileges.",
			RequiredAction: "Apply relevant patches provided by Palo Alto Networks immediately.",
			ReferenceURL:   "https://security.paloaltonetworks.com/CVE-2024-3400"},
		{CVE: "CVE-2024-23113", Vendor: "Fortinet", Product: "FortiOS", DateAdded: "2024-03-20", DueDate: "2024-04-10", Score: 9.8, Status: "Active",
			Description:    "A format string vulnerability [CWE-134] in Fortinet FortiOS fgfm daemon may allow a remote unauthenticated attacker to execute arbitrary code or commands via specially crafted requests.",
			RequiredAction: "Update to the latest version as specified in the Fortinet security advisory.",
			ReferenceURL:   "https://www.fortiguard.com/psirt/FG-IR-24-029"},
		{CVE: "CVE-2024-21887", Vendor: "Ivanti", Product: "Connect Secure", DateAdded: "2024-02-15", DueDate: "2024-03-07", Score: 9.1, Status: "Active",
			Description:    "A command injection vulnerability in web components of Ivanti Connect Secure and Ivanti Policy Secure allows an authenticated administrator to send specially crafted requests and execute arbitrary commands.",
			RequiredAction: "Apply the mitigation XML or update to the patched version.",
			ReferenceURL:   "https://forums.ivanti.com/s/article/KB-CVE-2023-46805-Authentication-Bypass-CVE-2024-21887-Command-Injection-for-Ivanti-Connect-Secure-and-Ivanti-Policy-Secure-Gateways"},
	}
}

// SeedLeaks returns drafts; the caller seals the passwords.
func SeedLeaks() []LeakDraft {
	return []LeakDraft{
		{DetectedAt: "2024-05-24 14:12", TargetURL: "https://panel.client-company.com/admin", Username: "admin_master", Password: "Password123!", Source: "Redline Stealer", Status: LeakValidated},
		{DetectedAt: "2024-05-23 09:45", TargetURL: "https://outlook.office365.com/mail", Username: "m.ferreira@corp.com", Password: "123456", Source: "Vidar Logs", Status: LeakPending},
		{DetectedAt: "2024-05-22 18:22", TargetURL: "https://aws.amazon.com/console", Username: "cloud_architect_dev", Password: "Admin@2024!Complex", Source: "Raccoon v2", Status: LeakCritical},
		{DetectedAt: "2024-05-20 11:30", TargetURL: "https://vpn.client-company.com", Username: "sales_director", Password: "summer2023", Source: "Lumni Stealer", Status: LeakValidated},
	}
}

func demand(s string) *string { return &s }

func SeedVictims() []RansomwareVictim {
	return []RansomwareVictim{
		{Group: "LockBit 3.0", Target: "Global Logistics Corp", Sector: "Transportation", Country: "Germany", Disclosed: "2024-05-24", ExtortionStatus: "Data Published",
			Description:    "Mass attack through a legacy VPN vulnerability. Over 400GB of operational data and cargo manifests exfiltrated; after failed negotiation the full dump was published on the group's TOR blog.",
			Demand:         demand("$2,500,000"),
			DataCategories: []string{"Employee PII", "Financial Statements", "Route Logistics", "Client Contracts"}},
		{Group: "BlackCat (ALPHV)", Target: "Healthcare United", Sector: "Medical", Country: "USA", Disclosed: "2024-05-23", ExtortionStatus: "Negotiating",
			Description:    "Compromise through third-party credentials focused on medical records and social security numbers. Critical systems were encrypted; offline backups allowed partial recovery.",
			Demand:         demand("$5,000,000"),
			DataCategories: []string{"Patient Records", "Social Security Numbers", "Internal Emails"}},
		{Group: "Clop", Target: "Nordic Finance Group", Sector: "Banking", Country: "Sweden", Disclosed: "2024-05-23", ExtortionStatus: "Evidence Only",
			Description:    "Zero-day exploitation of file transfer software. The group has only posted proof-of-concept samples to force contact from the victim.",
			DataCategories: []string{"Database Backups (Partial)"}},
		{Group: "Play", Target: "Retail Solutions Ltd", Sector: "Retail", Country: "UK", Disclosed: "2024-05-22", ExtortionStatus: "Data Published",
			Description:    "Exposed RDP exploited. The attack leaked hashed card data and inventory records.",
			Demand:         demand("$800,000"),
			DataCategories: []string{"Customer Emails", "Inventory Logs", "Hashed Credentials"}},
		{Group: "Medusa", Target: "EduConnect Systems", Sector: "Education", Country: "Canada", Disclosed: "2024-05-21", ExtortionStatus: "Pending",
			Description:    "Threat to publish student data. Seven-day deadline before the data is auctioned on the darkweb.",
			Demand:         demand("$150,000"),
			DataCategories: []string{"Student IDs", "Academic Transcripts", "Admin Passwords"}},
		{Group: "BianLian", Target: "Constructo Max", Sector: "Construction", Country: "Brazil", Disclosed: "2024-05-20", ExtortionStatus: "Negotiating",
			Description:    "Silent three-month intrusion before detection. Exfiltration only, no file encryption.",
			Demand:         demand("$1,200,000"),
			DataCategories: []string{"Architectural Blueprints", "Corporate Taxes", "Project Bids"}},
	}
}

func SeedForumPosts() []ForumPost {
	return []ForumPost{
		{User: "MalwareTrader", Forum: "XSS.is", Post: "Data breach claim - screenshots - negotiating buyer access", Date: "14/02/2026 10:51", URL: "https://xss.is/threads/92831", Details: "Seller claims access to a Brazilian financial institution. Attached 3 PNGs showing internal systems."},
		{User: "GhostZero", Forum: "BreachForums", Post: "Selling 1.2M logs from E-commerce platform", Date: "14/02/2026 09:12", URL: "https://breached.vc/viewtopic.php?t=4821", Details: "Contains email, hashed password, and partial credit card info."},
		{User: "NullByte", Forum: "Exploit.in", Post: "Looking for partner for RDP access exploit", Date: "13/02/2026 23:45", URL: "https://exploit.in/topic/11202", Details: "Targeting US-based health sector."},
	}
}

func SeedChatMessages() []ChatMessage {
	return []ChatMessage{
		{Date: "14/02/2026 10:45", User: "ZeroDayDev", Chat: "DarkNet Intelligence", Source: ChatTelegram, Message: "Anyone has the new variant of the stealer? Paying top dollar.", URL: "https://t.me/darknet_intel/482"},
		{Date: "14/02/2026 10:30", User: "AdminOps", Chat: "Ops Brazil", Source: ChatDiscord, Message: "Server down. Moving to backup node at 10.5.2.1.", URL: "https://discord.com/channels/928374/102938"},
		{Date: "14/02/2026 08:22", User: "Unknown", Chat: "Private Leak Group", Source: ChatWhatsApp, Message: "Shared file: credentials_dump_v3.xlsx", URL: "https://wa.me/leak_group_artifact"},
	}
}

// SeedQuestions is the default supplier questionnaire, written to an empty
// questions table on first start.
func SeedQuestions() []AuditQuestion {
	return []AuditQuestion{
		{Text: "Does the supplier guarantee security incident notification within 24h of detection?", Category: "Governance"},
		{Text: "Does the supplier maintain an up-to-date Software Bill of Materials (SBOM) for its software components?", Category: "Technical"},
		{Text: "Does administrative access use PAM tooling with Just-In-Time (JIT) approval?", Category: "Access Control"},
		{Text: "Does the supplier support customer-managed encryption keys (BYOK)?", Category: "Protection"},
		{Text: "Does the supplier run continuous 24x7 security monitoring (SOC)?", Category: "Maturity"},
		{Text: "Is there a formal commitment to remediate critical vulnerabilities within 15 days?", Category: "Maturity"},
		{Text: "Do 100% of employee endpoints run EDR/XDR in blocking mode?", Category: "Protection"},
		{Text: "Was the Disaster Recovery Plan (DRP) successfully tested in the last 12 months?", Category: "Governance"},
		{Text: "Does the supplier formally audit the security of its own sub-processors (4th parties)?", Category: "Governance"},
		{Text: "Is customer data logically isolated from other customers at the database level?", Category: "Technical"},
	}
}

func SeedRepoExposures() []RepoExposure {
	return []RepoExposure{
		{Name: "internal-payment-api", Provider: ProviderGitHub, Organization: "AcmeFinancial", LeakType: "AWS Access Key", Risk: SeverityHigh, LastScan: "2024-05-24 10:15", URL: "https://github.com/AcmeFinancial/internal-payment-api"},
		{Name: "dev-config-secrets", Provider: ProviderGitLab, Organization: "InfraOps", LeakType: "Hardcoded Password", Risk: SeverityHigh, LastScan: "2024-05-23 18:42", URL: "https://gitlab.com/InfraOps/dev-config-secrets"},
		{Name: "legacy-website-v2", Provider: ProviderGitHub, Organization: "AcmeFinancial", LeakType: "PII in .env", Risk: SeverityMedium, LastScan: "2024-05-24 09:00", URL: "https://github.com/AcmeFinancial/legacy-website-v2"},
		{Name: "mobile-app-keys", Provider: ProviderBitbucket, Organization: "MobileSquad", LeakType: "Google API Key", Risk: SeverityLow, LastScan: "2024-05-22 14:10", URL: "https://bitbucket.org/MobileSquad/mobile-app-keys"},
		{Name: "shadow-hr-portal", Provider: ProviderGitHub, Organization: "Unknown/UserPersonal", LeakType: "Database Credentials", Risk: SeverityHigh, LastScan: "2024-05-24 11:55", URL: "https://github.com/ShadowUser/hr-portal"},
	}
}

func SeedThreatFeeds() []ThreatFeed {
	return []ThreatFeed{
		{Source: "CISA Automated Indicator Sharing", Category: "State Sponsored", LastUpdate: "2024-05-24 11:55", Reliability: "High",
			Description: "Technical indicators tied to active zero-day exploitation of edge firewalls.",
			SourceURL:   "https://www.cisa.gov/resources-tools/programs/automated-indicator-sharing-ais",
			Artifacts: []FeedArtifact{
				{Value: "194.26.135.212", Type: ArtifactIP, Severity: SeverityHigh},
				{Value: "system-update-fix.com", Type: ArtifactDomain, Severity: SeverityHigh},
				{Value: "64d26663f738f65e219", Type: ArtifactHash, Severity: SeverityMedium},
			}},
		{Source: "Abuse.ch Ransomware Tracker", Category: "CrimeWare", LastUpdate: "2024-05-24 11:48", Reliability: "High",
			Description: "New C2 servers identified for the IcedID botnet and LockBit support infrastructure.",
			SourceURL:   "https://ransomwaretracker.abuse.ch/",
			Artifacts: []FeedArtifact{
				{Value: "45.153.242.129", Type: ArtifactIP, Severity: SeverityHigh},
				{Value: "http://cdn.top-service.net/dl", Type: ArtifactURL, Severity: SeverityHigh},
			}},
		{Source: "FBI Flash Alert", Category: "Advisory", LastUpdate: "2024-05-24 11:00", Reliability: "High",
			Description: "Indicators of compromise from spear-phishing campaigns against the energy sector.",
			SourceURL:   "https://www.ic3.gov/",
			Artifacts: []FeedArtifact{
				{Value: "hr-portal-secure.com", Type: ArtifactDomain, Severity: SeverityHigh},
				{Value: "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Type: ArtifactHash, Severity: SeverityHigh},
				{Value: "103.212.94.11", Type: ArtifactIP, Severity: SeverityMedium},
			}},
	}
}
