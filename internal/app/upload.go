package app

import (
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/sloppy/threatone/internal/intel"
)

// MaxUploadSize bounds a credential dump.
const MaxUploadSize = 4 << 20

// ParseLeakDump reads a stealer log or credential dump. Each line is either
// delimited ("url,username,password" with comma, semicolon or tab, or
// "username,password") or in the "url:username:password" form stealers
// emit. Blank lines, comments and header rows are skipped without counting;
// other unreadable lines are counted in skipped.
func ParseLeakDump(name string, data []byte, detectedAt string) (drafts []intel.LeakDraft, skipped int) {
	source := fmt.Sprintf("Manual Upload (%s)", name)
	for _, raw := range strings.Split(string(data), "\n") {
		line := strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		target, user, pass, ok := splitLeakLine(line)
		if isHeader(target, user) {
			continue
		}
		if !ok || user == "" || pass == "" {
			skipped++
			continue
		}
		drafts = append(drafts, intel.LeakDraft{
			DetectedAt: detectedAt,
			TargetURL:  target,
			Username:   user,
			Password:   pass,
			Source:     source,
			Status:     intel.LeakPending,
		})
	}
	return drafts, skipped
}

func splitLeakLine(line string) (target, user, pass string, ok bool) {
	if sep, delimited := delimiter(line); delimited {
		r := csv.NewReader(strings.NewReader(line))
		r.Comma = sep
		r.FieldsPerRecord = -1
		r.LazyQuotes = true
		fields, err := r.Read()
		if err != nil {
			return "", "", "", false
		}
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		switch len(fields) {
		case 2:
			return "", fields[0], fields[1], true
		case 3:
			return fields[0], fields[1], fields[2], true
		}
		return "", "", "", false
	}

	i := strings.LastIndexByte(line, ':')
	if i < 0 {
		return "", "", "", false
	}
	pass, rest := line[i+1:], line[:i]
	j := strings.LastIndexByte(rest, ':')
	if j < 0 {
		return "", strings.TrimSpace(rest), strings.TrimSpace(pass), true
	}
	// The only other colon is the URL scheme: there is no username.
	if scheme := strings.ToLower(rest[:j]); scheme == "http" || scheme == "https" {
		return "", "", "", false
	}
	return strings.TrimSpace(rest[:j]), strings.TrimSpace(rest[j+1:]), strings.TrimSpace(pass), true
}

func delimiter(line string) (rune, bool) {
	for _, sep := range []rune{'\t', ';', ','} {
		if strings.ContainsRune(line, sep) {
			return sep, true
		}
	}
	return 0, false
}

func isHeader(target, user string) bool {
	switch strings.ToLower(target) {
	case "url", "target", "host", "site":
		return true
	}
	switch strings.ToLower(user) {
	case "username", "user", "login", "email":
		return true
	}
	return false
}
