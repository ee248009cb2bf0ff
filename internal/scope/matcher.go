// Package scope decides whether an observed value (an address, host, URL,
// e-mail or free text) falls inside the monitored scope assets.
package scope

import (
	"net/netip"
	"net/url"
	"strings"

	"github.com/sloppy/threatone/internal/intel"
)

type rule struct {
	asset  intel.ScopeAsset
	value  string
	prefix netip.Prefix
	addr   netip.Addr
}

type Matcher struct {
	rules []rule
}

// NewMatcher compiles the assets into rules. IP assets may be single
// addresses or CIDR ranges; IP assets that parse as neither are skipped.
func NewMatcher(assets []intel.ScopeAsset) *Matcher {
	m := &Matcher{}
	for _, a := range assets {
		r := rule{asset: a, value: strings.ToLower(strings.TrimSpace(a.Value))}
		if r.value == "" {
			continue
		}
		if a.Kind == intel.AssetIP {
			if prefix, err := netip.ParsePrefix(r.value); err == nil {
				r.prefix = prefix.Masked()
			} else if addr, err := netip.ParseAddr(r.value); err == nil {
				r.addr = addr
			} else {
				continue
			}
		}
		if a.Kind == intel.AssetEmailDomain {
			r.value = strings.TrimPrefix(r.value, "@")
		}
		m.rules = append(m.rules, r)
	}
	return m
}

func (m *Matcher) Len() int { return len(m.rules) }

// Match returns the first asset covering value.
func (m *Matcher) Match(value string) (intel.ScopeAsset, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return intel.ScopeAsset{}, false
	}
	host := hostOf(value)
	addr, addrErr := netip.ParseAddr(host)
	lower := strings.ToLower(value)

	for _, r := range m.rules {
		switch r.asset.Kind {
		case intel.AssetIP:
			if addrErr != nil {
				continue
			}
			if r.prefix.IsValid() && r.prefix.Contains(addr) {
				return r.asset, true
			}
			if r.addr.IsValid() && r.addr == addr {
				return r.asset, true
			}
		case intel.AssetDomain:
			if host == r.value || strings.HasSuffix(host, "."+r.value) {
				return r.asset, true
			}
		case intel.AssetEmailDomain:
			if at := strings.LastIndexByte(lower, '@'); at >= 0 && lower[at+1:] == r.value {
				return r.asset, true
			}
		case intel.AssetKeyword:
			if strings.Contains(lower, r.value) {
				return r.asset, true
			}
		}
	}
	return intel.ScopeAsset{}, false
}

// hostOf reduces a URL, e-mail or host:port to its lower-case host.
func hostOf(value string) string {
	v := strings.ToLower(value)
	if strings.Contains(v, "://") {
		if u, err := url.Parse(v); err == nil && u.Hostname() != "" {
			return u.Hostname()
		}
	}
	if at := strings.LastIndexByte(v, '@'); at >= 0 {
		v = v[at+1:]
	}
	if i := strings.IndexAny(v, "/?#"); i >= 0 {
		v = v[:i]
	}
	if h, _, ok := strings.Cut(v, ":"); ok && strings.Count(v, ":") == 1 {
		v = h
	}
	return strings.TrimSuffix(v, ".")
}
