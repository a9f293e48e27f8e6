// Package legal holds the Bulgarian legal practice area taxonomy and the
// analysis built on top of it: domain classification, source authority and
// citation extraction. Everything here is static reference data plus pure
// functions over it — loaded once at startup, immutable afterwards.
package legal

import (
	"fmt"
	"strings"
)

// Domain is one legal practice area in the closed taxonomy.
type Domain string

// The closed set of practice areas. Unknown is the zero classification, not
// a taxonomy member.
const (
	Civil          Domain = "civil_law"
	Criminal       Domain = "criminal_law"
	Administrative Domain = "administrative_law"
	Labor          Domain = "labor_law"
	Procedural     Domain = "procedural_law"
	Medical        Domain = "medical_law"
	Unknown        Domain = "unknown"
)

// Personal reports whether the domain concerns personal legal matters.
// Administrative and procedural content is usually institutional.
func (d Domain) Personal() bool {
	switch d {
	case Civil, Criminal, Labor, Medical:
		return true
	default:
		return false
	}
}

// Entry describes one practice area: the keywords that mark a text as
// belonging to it and an importance weight applied to keyword hits.
type Entry struct {
	Domain   Domain
	Weight   float64
	Keywords []string
}

// Taxonomy is the fixed, ordered set of practice areas. Order matters: the
// classifier breaks score ties by taking the earliest entry.
type Taxonomy struct {
	entries []Entry
}

// Override adjusts one taxonomy entry from configuration. Zero-valued fields
// keep the defaults.
type Override struct {
	Weight   float64
	Keywords []string
}

// DefaultTaxonomy returns the built-in Bulgarian practice area tables.
// Administrative law carries a reduced weight: its vocabulary overlaps with
// personal legal queries far more often than its content is relevant to them.
func DefaultTaxonomy() *Taxonomy {
	return &Taxonomy{entries: []Entry{
		{Civil, 1.0, []string{
			"обезщетение", "договор", "собственост", "наследство",
			"семейство", "развод", "алименти", "данъци",
		}},
		{Criminal, 1.0, []string{
			"престъпление", "наказание", "затвор", "глоба",
			"убийство", "кража", "измама", "дрога",
		}},
		{Administrative, 0.6, []string{
			"административен", "лиценз", "разрешение", "наредба",
			"постановление", "министерство", "регулация",
		}},
		{Labor, 1.0, []string{
			"работа", "трудов", "заплата", "отпуска",
			"уволнение", "договор", "осигуровка", "пенсия",
		}},
		{Procedural, 0.9, []string{
			"съд", "дело", "процес", "съдебен",
			"апелация", "касация", "решение", "призовка",
		}},
		{Medical, 1.0, []string{
			"медицински", "лечение", "болница", "лекар",
			"здравеопазване", "увреждане", "инвалидност",
		}},
	}}
}

// NewTaxonomy builds a taxonomy from the defaults with per-domain overrides
// applied. A malformed override is a startup configuration error.
func NewTaxonomy(overrides map[string]Override) (*Taxonomy, error) {
	tax := DefaultTaxonomy()
	if len(overrides) == 0 {
		return tax, nil
	}

	byName := make(map[Domain]int, len(tax.entries))
	for i, e := range tax.entries {
		byName[e.Domain] = i
	}

	for name, ov := range overrides {
		idx, ok := byName[Domain(name)]
		if !ok {
			return nil, fmt.Errorf("legal taxonomy: unknown domain %q", name)
		}
		if ov.Weight != 0 {
			if ov.Weight < 0 || ov.Weight > 1 {
				return nil, fmt.Errorf("legal taxonomy: domain %q weight %v outside (0,1]", name, ov.Weight)
			}
			tax.entries[idx].Weight = ov.Weight
		}
		if ov.Keywords != nil {
			if len(ov.Keywords) == 0 {
				return nil, fmt.Errorf("legal taxonomy: domain %q has an empty keyword list", name)
			}
			kws := make([]string, len(ov.Keywords))
			for i, kw := range ov.Keywords {
				kw = strings.ToLower(strings.TrimSpace(kw))
				if kw == "" {
					return nil, fmt.Errorf("legal taxonomy: domain %q has a blank keyword", name)
				}
				kws[i] = kw
			}
			tax.entries[idx].Keywords = kws
		}
	}
	return tax, nil
}

// Entries returns the ordered practice areas.
func (t *Taxonomy) Entries() []Entry { return t.entries }

// Keywords returns the deduplicated union of all practice area keywords,
// in taxonomy order. Used by the query preprocessor as its importance list.
func (t *Taxonomy) Keywords() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, e := range t.entries {
		for _, kw := range e.Keywords {
			if _, ok := seen[kw]; ok {
				continue
			}
			seen[kw] = struct{}{}
			out = append(out, kw)
		}
	}
	return out
}
