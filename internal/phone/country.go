package phone

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"
)

//go:embed countries.yaml
var countriesYAML []byte

// Country is one entry of the country dataset.
type Country struct {
	Name        string   `yaml:"name" json:"name"`
	ISO2        string   `yaml:"iso2" json:"iso2"`
	DialCode    string   `yaml:"dialCode" json:"dialCode"`
	Priority    int      `yaml:"priority" json:"priority"`
	AreaCodes   []string `yaml:"areaCodes,omitempty" json:"areaCodes,omitempty"`
	FlagClass   string   `yaml:"-" json:"flagClass"`
	Placeholder string   `yaml:"-" json:"placeholder"`
}

// Registry holds the known countries in dataset order.
// It is read-only after construction.
type Registry struct {
	countries []Country
	byISO2    map[string]int
}

var (
	defaultRegistry    *Registry
	defaultRegistryErr error
	defaultOnce        sync.Once
)

// LoadRegistry returns the registry built from the embedded dataset.
func LoadRegistry() (*Registry, error) {
	defaultOnce.Do(func() {
		defaultRegistry, defaultRegistryErr = ParseRegistry(countriesYAML)
	})
	return defaultRegistry, defaultRegistryErr
}

// ParseRegistry decodes a YAML list of countries.
func ParseRegistry(data []byte) (*Registry, error) {
	var countries []Country
	if err := yaml.Unmarshal(data, &countries); err != nil {
		return nil, fmt.Errorf("failed to decode country dataset: %w", err)
	}
	return NewRegistry(countries)
}

// NewRegistry builds a registry from an ordered country list.
// ISO2 codes are stored lowercase and must be unique.
func NewRegistry(countries []Country) (*Registry, error) {
	r := &Registry{
		countries: make([]Country, 0, len(countries)),
		byISO2:    make(map[string]int, len(countries)),
	}

	for _, c := range countries {
		c.ISO2 = strings.ToLower(strings.TrimSpace(c.ISO2))
		c.DialCode = strings.TrimPrefix(strings.TrimSpace(c.DialCode), "+")
		if c.ISO2 == "" || c.DialCode == "" {
			return nil, fmt.Errorf("country %q: iso2 and dial code are required", c.Name)
		}
		if _, dup := r.byISO2[c.ISO2]; dup {
			return nil, fmt.Errorf("duplicate country code %q", c.ISO2)
		}
		c.FlagClass = strings.ToUpper(c.ISO2)
		c.AreaCodes = append([]string(nil), c.AreaCodes...)

		r.byISO2[c.ISO2] = len(r.countries)
		r.countries = append(r.countries, c)
	}

	return r, nil
}

// All returns a copy of the countries in dataset order.
func (r *Registry) All() []Country {
	out := make([]Country, len(r.countries))
	copy(out, r.countries)
	return out
}

// Len returns the number of countries.
func (r *Registry) Len() int {
	return len(r.countries)
}

// FindByISO2 looks a country up by its two-letter code, case-insensitively.
func (r *Registry) FindByISO2(code string) (Country, bool) {
	i, ok := r.byISO2[strings.ToLower(strings.TrimSpace(code))]
	if !ok {
		return Country{}, false
	}
	return r.countries[i], true
}

// FindByDialCode finds the country whose dial code prefixes digits.
// The longest dial code wins; countries sharing it are separated by area
// code first and by priority second.
func (r *Registry) FindByDialCode(digits string) (Country, bool) {
	digits = strings.TrimPrefix(digits, "+")
	if digits == "" {
		return Country{}, false
	}

	var candidates []Country
	longest := 0
	for _, c := range r.countries {
		if !strings.HasPrefix(digits, c.DialCode) {
			continue
		}
		switch {
		case len(c.DialCode) > longest:
			longest = len(c.DialCode)
			candidates = []Country{c}
		case len(c.DialCode) == longest:
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return Country{}, false
	}

	rest := digits[longest:]
	for _, c := range candidates {
		for _, area := range c.AreaCodes {
			if strings.HasPrefix(rest, area) {
				return c, true
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Priority < candidates[j].Priority
	})
	return candidates[0], true
}

// Filter returns a registry holding only the listed countries, in dataset
// order. An empty list returns r unchanged.
func (r *Registry) Filter(iso2 []string) *Registry {
	if len(iso2) == 0 {
		return r
	}

	keep := make(map[string]bool, len(iso2))
	for _, code := range iso2 {
		keep[strings.ToLower(strings.TrimSpace(code))] = true
	}

	out := &Registry{byISO2: make(map[string]int, len(iso2))}
	for _, c := range r.countries {
		if keep[c.ISO2] {
			out.byISO2[c.ISO2] = len(out.countries)
			out.countries = append(out.countries, c)
		}
	}
	return out
}

// Pick returns the listed countries in the order given, skipping unknown codes.
func (r *Registry) Pick(iso2 []string) []Country {
	var out []Country
	for _, code := range iso2 {
		if c, ok := r.FindByISO2(code); ok {
			out = append(out, c)
		}
	}
	return out
}

// WithPlaceholders returns a copy of the registry with every country's
// placeholder derived by d.
func (r *Registry) WithPlaceholders(d *Deriver) *Registry {
	out := &Registry{
		countries: make([]Country, len(r.countries)),
		byISO2:    r.byISO2,
	}
	for i, c := range r.countries {
		c.Placeholder = d.Placeholder(c)
		out.countries[i] = c
	}
	return out
}
