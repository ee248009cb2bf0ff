package scope

import (
	"testing"

	"github.com/sloppy/threatone/internal/intel"
)

func TestMatcherKinds(t *testing.T) {
	m := NewMatcher([]intel.ScopeAsset{
		{ID: "net", Kind: intel.AssetIP, Value: "10.0.0.0/24"},
		{ID: "gw", Kind: intel.AssetIP, Value: "2001:db8::1"},
		{ID: "bad", Kind: intel.AssetIP, Value: "not-an-ip"},
		{ID: "dom", Kind: intel.AssetDomain, Value: "Client-Company.com"},
		{ID: "mail", Kind: intel.AssetEmailDomain, Value: "@corp.com"},
		{ID: "kw", Kind: intel.AssetKeyword, Value: "Banco Exemplo"},
	})
	if m.Len() != 5 {
		t.Fatalf("expected 5 rules, got %d", m.Len())
	}

	cases := []struct {
		value string
		want  string
	}{
		{"10.0.0.1", "net"},
		{"10.0.1.1", ""},
		{"2001:db8::1", "gw"},
		{"2001:db8::2", ""},
		{"https://vpn.client-company.com/login", "dom"},
		{"panel.client-company.com:8443", "dom"},
		{"client-company.com", "dom"},
		{"notclient-company.com", ""},
		{"m.ferreira@corp.com", "mail"},
		{"someone@corp.com.br", ""},
		{"selling access to banco exemplo vpn", "kw"},
		{"   ", ""},
	}
	for _, tc := range cases {
		got, ok := m.Match(tc.value)
		if tc.want == "" {
			if ok {
				t.Fatalf("Match(%q) matched %s, want no match", tc.value, got.ID)
			}
			continue
		}
		if !ok || got.ID != tc.want {
			t.Fatalf("Match(%q) = %q, %v; want %q", tc.value, got.ID, ok, tc.want)
		}
	}
}

func TestEmptyMatcherMatchesNothing(t *testing.T) {
	m := NewMatcher(nil)
	if _, ok := m.Match("10.0.0.1"); ok {
		t.Fatalf("empty scope matched a value")
	}
}
