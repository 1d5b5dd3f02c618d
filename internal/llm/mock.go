package llm

import (
	"context"
	"sync"

	"github.com/Harshitk-cp/factline/internal/domain"
)

// MockOracle is a configurable oracle for testing and offline runs.
// Set the response fields to control what each method returns, or the
// Func hooks when the answer depends on the input.
type MockOracle struct {
	mu sync.Mutex

	ExtractResponses    map[string]domain.ExtractedFact
	ExtractError        error
	SameEventFunc       func(fact string, candidates []string) []int
	SameEventError      error
	IsSameEventResponse bool
	IsSameEventError    error
	ContradictsFunc     func(fact string, others []string) domain.Contradiction
	ContradictsError    error
	DeltaResponse       string
	DeltaError          error

	// Call tracking for assertions
	ExtractCalls      []string
	SameEventCalls    []struct{ Fact string; Candidates []string }
	IsSameEventCalls  []struct{ Fact string; Published []string }
	ContradictsCalls  []struct{ Fact string; Others []string }
	ExtractDeltaCalls []struct{ NewFact, ExistingFact string }
}

var _ domain.Oracle = (*MockOracle)(nil)

func NewMockOracle() *MockOracle {
	return &MockOracle{ExtractResponses: make(map[string]domain.ExtractedFact)}
}

func (m *MockOracle) Extract(_ context.Context, headline string) (domain.ExtractedFact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ExtractCalls = append(m.ExtractCalls, headline)
	if m.ExtractError != nil {
		return domain.ExtractedFact{Fact: domain.SkipFact, Provenance: domain.ProvenanceDefault}, m.ExtractError
	}
	if f, ok := m.ExtractResponses[headline]; ok {
		if f.Provenance == "" {
			f.Provenance = domain.ProvenanceStrict
		}
		return f, nil
	}
	return domain.ExtractedFact{Fact: domain.SkipFact, Provenance: domain.ProvenanceDefault}, nil
}

func (m *MockOracle) SameEvent(_ context.Context, fact string, candidates []string) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SameEventCalls = append(m.SameEventCalls, struct {
		Fact       string
		Candidates []string
	}{fact, candidates})
	if m.SameEventError != nil {
		return nil, m.SameEventError
	}
	if m.SameEventFunc != nil {
		return m.SameEventFunc(fact, candidates), nil
	}
	return nil, nil
}

func (m *MockOracle) IsSameEvent(_ context.Context, fact string, published []string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.IsSameEventCalls = append(m.IsSameEventCalls, struct {
		Fact      string
		Published []string
	}{fact, published})
	return m.IsSameEventResponse, m.IsSameEventError
}

func (m *MockOracle) Contradicts(_ context.Context, fact string, others []string) (domain.Contradiction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ContradictsCalls = append(m.ContradictsCalls, struct {
		Fact   string
		Others []string
	}{fact, others})
	if m.ContradictsError != nil {
		return domain.Contradiction{Index: -1}, m.ContradictsError
	}
	if m.ContradictsFunc != nil {
		return m.ContradictsFunc(fact, others), nil
	}
	return domain.Contradiction{Index: -1, Provenance: domain.ProvenanceStrict}, nil
}

func (m *MockOracle) ExtractDelta(_ context.Context, newFact, existingFact string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ExtractDeltaCalls = append(m.ExtractDeltaCalls, struct{ NewFact, ExistingFact string }{newFact, existingFact})
	if m.DeltaError != nil {
		return "", false, m.DeltaError
	}
	return m.DeltaResponse, m.DeltaResponse != "", nil
}

// Reset clears call tracking.
func (m *MockOracle) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ExtractCalls = nil
	m.SameEventCalls = nil
	m.IsSameEventCalls = nil
	m.ContradictsCalls = nil
	m.ExtractDeltaCalls = nil
}
