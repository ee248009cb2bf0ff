// Package extract pulls security identifiers out of free text such as model
// answers, analyst notes and chat messages.
package extract

import (
	"net/netip"
	"regexp"
	"sort"
	"strings"

	"github.com/sloppy/threatone/internal/intel"
)

// CVEID is a CVE identifier in canonical upper case.
type CVEID string

var cveRe = regexp.MustCompile(`(?i)\bCVE-\d{4}-\d{4,7}\b`)

// CVEs returns the distinct CVE ids in text in first-seen order.
func CVEs(text string) []CVEID {
	out := []CVEID{}
	seen := map[CVEID]bool{}
	for _, m := range cveRe.FindAllString(text, -1) {
		id := CVEID(strings.ToUpper(m))
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// FirstCVE returns the first CVE id in text.
func FirstCVE(text string) (CVEID, bool) {
	m := cveRe.FindString(text)
	if m == "" {
		return "", false
	}
	return CVEID(strings.ToUpper(m)), true
}

// Indicator is an indicator candidate found in text.
type Indicator struct {
	Kind  intel.IOCKind `json:"kind"`
	Value string        `json:"value"`
}

var (
	urlRe    = regexp.MustCompile(`\bhttps?://[^\s"'<>()\[\]]+`)
	emailRe  = regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`)
	ipv4Re   = regexp.MustCompile(`\b\d{1,3}(?:\.\d{1,3}){3}\b`)
	hashRe   = regexp.MustCompile(`\b(?:[A-Fa-f0-9]{64}|[A-Fa-f0-9]{40}|[A-Fa-f0-9]{32})\b`)
	domainRe = regexp.MustCompile(`\b(?:[A-Za-z0-9](?:[A-Za-z0-9\-]{0,61}[A-Za-z0-9])?\.)+[A-Za-z]{2,24}\b`)
)

type match struct {
	start int
	ind   Indicator
}

// Indicators returns the distinct indicators in text in first-seen order.
// Text covered by a URL or e-mail is not reported again as a domain, and
// dotted quads must parse as IPv4 addresses.
func Indicators(text string) []Indicator {
	var found []match
	var covered [][2]int

	add := func(kind intel.IOCKind, locs [][]int, keep func(string) bool, cover bool) {
		for _, loc := range locs {
			if overlaps(covered, loc) {
				continue
			}
			value := strings.TrimRight(text[loc[0]:loc[1]], ".,;:")
			if keep != nil && !keep(value) {
				continue
			}
			found = append(found, match{start: loc[0], ind: Indicator{Kind: kind, Value: value}})
			if cover {
				covered = append(covered, [2]int{loc[0], loc[1]})
			}
		}
	}

	add(intel.IOCURL, urlRe.FindAllStringIndex(text, -1), nil, true)
	add(intel.IOCEmail, emailRe.FindAllStringIndex(text, -1), nil, true)
	add(intel.IOCIP, ipv4Re.FindAllStringIndex(text, -1), validIPv4, true)
	add(intel.IOCHash, hashRe.FindAllStringIndex(text, -1), nil, true)
	add(intel.IOCDomain, domainRe.FindAllStringIndex(text, -1), plausibleDomain, false)

	sort.SliceStable(found, func(i, j int) bool { return found[i].start < found[j].start })

	out := []Indicator{}
	seen := map[Indicator]bool{}
	for _, m := range found {
		key := Indicator{Kind: m.ind.Kind, Value: strings.ToLower(m.ind.Value)}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, m.ind)
	}
	return out
}

func validIPv4(s string) bool {
	addr, err := netip.ParseAddr(s)
	return err == nil && addr.Is4()
}

// plausibleDomain drops file names and version strings that look like domains.
func plausibleDomain(s string) bool {
	tld := strings.ToLower(s[strings.LastIndexByte(s, '.')+1:])
	switch tld {
	case "exe", "dll", "xlsx", "xls", "docx", "doc", "pdf", "zip", "rar", "png", "jpg", "txt", "js", "sh", "ps1", "bat":
		return false
	}
	return true
}

func overlaps(covered [][2]int, loc []int) bool {
	for _, c := range covered {
		if loc[0] < c[1] && c[0] < loc[1] {
			return true
		}
	}
	return false
}
