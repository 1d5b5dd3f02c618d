// Package registry holds static per-source metadata and the independence predicate.
package registry

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Harshitk-cp/factline/internal/domain"
)

var (
	ErrNoSources        = errors.New("at least one source is required")
	ErrMissingSourceID  = errors.New("source id is required")
	ErrMissingOwner     = errors.New("source owner is required")
	ErrDuplicateSource  = errors.New("duplicate source id")
	ErrInvalidAccuracy  = errors.New("source accuracy must be within [0,10]")
	ErrInvalidBias      = errors.New("source bias must be within [-2,2]")
	ErrInvalidThreshold = errors.New("unrelated_rules.max_shared_top_holders must be at least 1")
)

// DefaultMaxSharedTopHolders is used when the sources file does not set a threshold.
const DefaultMaxSharedTopHolders = 3

type fileFormat struct {
	UnrelatedRules struct {
		MaxSharedTopHolders int `yaml:"max_shared_top_holders"`
	} `yaml:"unrelated_rules"`
	Sources []domain.Source `yaml:"sources"`
}

// Registry is keyed by source id. Iteration order follows the sources file.
type Registry struct {
	byID                map[string]domain.Source
	order               []string
	maxSharedTopHolders int
}

func New(sources []domain.Source, maxSharedTopHolders int) (*Registry, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}
	if maxSharedTopHolders == 0 {
		maxSharedTopHolders = DefaultMaxSharedTopHolders
	}
	if maxSharedTopHolders < 1 {
		return nil, ErrInvalidThreshold
	}

	r := &Registry{
		byID:                make(map[string]domain.Source, len(sources)),
		maxSharedTopHolders: maxSharedTopHolders,
	}
	for _, s := range sources {
		if err := validate(s); err != nil {
			return nil, fmt.Errorf("source %q: %w", s.ID, err)
		}
		if _, dup := r.byID[s.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSource, s.ID)
		}
		if s.Name == "" {
			s.Name = s.ID
		}
		r.byID[s.ID] = s
		r.order = append(r.order, s.ID)
	}
	return r, nil
}

// Load reads a YAML sources file.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Registry, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse sources file: %w", err)
	}
	return New(f.Sources, f.UnrelatedRules.MaxSharedTopHolders)
}

func validate(s domain.Source) error {
	switch {
	case strings.TrimSpace(s.ID) == "":
		return ErrMissingSourceID
	case strings.TrimSpace(s.Owner) == "":
		return ErrMissingOwner
	case s.Accuracy < 0 || s.Accuracy > 10:
		return ErrInvalidAccuracy
	case s.Bias < -2 || s.Bias > 2:
		return ErrInvalidBias
	}
	return nil
}

func (r *Registry) Get(id string) (domain.Source, bool) {
	s, ok := r.byID[id]
	return s, ok
}

// Baseline returns the editorial accuracy baseline, or the default for unknown ids.
func (r *Registry) Baseline(id string) float64 {
	if s, ok := r.byID[id]; ok {
		return s.Accuracy
	}
	return domain.DefaultBaselineRating
}

// Bias returns the configured bias in [-2,2]; unknown ids are neutral.
func (r *Registry) Bias(id string) float64 {
	return r.byID[id].Bias
}

// Sources returns all sources in file order.
func (r *Registry) Sources() []domain.Source {
	out := make([]domain.Source, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Enabled returns the sources that should be polled.
func (r *Registry) Enabled() []domain.Source {
	var out []domain.Source
	for _, id := range r.order {
		if s := r.byID[id]; !s.Disabled {
			out = append(out, s)
		}
	}
	return out
}

func (r *Registry) MaxSharedTopHolders() int {
	return r.maxSharedTopHolders
}

// SharedHolders returns the institutional holders two sources have in common.
func (r *Registry) SharedHolders(a, b string) []string {
	sa, okA := r.byID[a]
	sb, okB := r.byID[b]
	if !okA || !okB {
		return nil
	}
	names := make(map[string]struct{}, len(sa.Holders))
	for _, h := range sa.Holders {
		names[normalizeName(h.Name)] = struct{}{}
	}
	var shared []string
	for _, h := range sb.Holders {
		if _, ok := names[normalizeName(h.Name)]; ok {
			shared = append(shared, h.Name)
		}
	}
	return shared
}

// Unrelated reports whether two sources are structurally independent:
// both known, different owners, and fewer shared holders than the threshold.
// Unknown ids fail closed.
func (r *Registry) Unrelated(a, b string) bool {
	sa, okA := r.byID[a]
	sb, okB := r.byID[b]
	if !okA || !okB {
		return false
	}
	if a == b || normalizeName(sa.Owner) == normalizeName(sb.Owner) {
		return false
	}
	return len(r.SharedHolders(a, b)) < r.maxSharedTopHolders
}

func normalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
