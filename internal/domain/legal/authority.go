package legal

import (
	"fmt"
	"sort"
	"strings"
)

const defaultAuthority = 0.5

// AuthorityTable maps content source hosts to static trust weights.
// Matching is substring containment against the lowercased URL, so an entry
// like "ciela.net" also covers "www.ciela.net" links and mirrors.
type AuthorityTable struct {
	hosts   []string
	weights map[string]float64
}

// DefaultAuthorityTable returns the built-in trust weights for Bulgarian
// legal sources.
func DefaultAuthorityTable() *AuthorityTable {
	t, _ := NewAuthorityTable(nil)
	return t
}

// NewAuthorityTable builds the table from the built-in weights with config
// overrides merged in. Override values outside [0,1] are a startup
// configuration error.
func NewAuthorityTable(overrides map[string]float64) (*AuthorityTable, error) {
	weights := map[string]float64{
		"ciela.net":             0.95,
		"apis.bg":               0.90,
		"justice.government.bg": 0.85,
		"vks.bg":                0.80,
		"vss.bg":                0.80,
		"lakorda.com":           0.75,
	}

	for host, w := range overrides {
		if w < 0 || w > 1 {
			return nil, fmt.Errorf("authority table: host %q weight %v outside [0,1]", host, w)
		}
		host = strings.ToLower(strings.TrimSpace(host))
		if host == "" {
			return nil, fmt.Errorf("authority table: blank host")
		}
		weights[host] = w
	}

	// Longest host first so "justice.government.bg" wins over a hypothetical
	// "government.bg" entry; lexical order after that keeps lookups stable.
	hosts := make([]string, 0, len(weights))
	for h := range weights {
		hosts = append(hosts, h)
	}
	sort.Slice(hosts, func(i, j int) bool {
		if len(hosts[i]) != len(hosts[j]) {
			return len(hosts[i]) > len(hosts[j])
		}
		return hosts[i] < hosts[j]
	})

	return &AuthorityTable{hosts: hosts, weights: weights}, nil
}

// Score returns the trust weight for the source behind a URL, 0.5 for
// anything not in the table.
func (t *AuthorityTable) Score(url string) float64 {
	lower := strings.ToLower(url)
	for _, h := range t.hosts {
		if strings.Contains(lower, h) {
			return t.weights[h]
		}
	}
	return defaultAuthority
}

// Hosts returns the known hosts ordered as matched.
func (t *AuthorityTable) Hosts() []string { return t.hosts }

// Weight returns the trust weight for a known host and whether it exists.
func (t *AuthorityTable) Weight(host string) (float64, bool) {
	w, ok := t.weights[strings.ToLower(host)]
	return w, ok
}
