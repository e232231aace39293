package services

import (
	"sort"

	"github.com/nulzo/model-orchestrator/internal/core/domain"
)

// Default scoring weights. Success history dominates speed; the preference
// bonus only nudges ties and near-ties, it never overrides a clearly better
// candidate.
const (
	DefaultSuccessWeight   = 0.6
	DefaultSpeedWeight     = 0.4
	DefaultPreferenceBonus = 0.15
)

// Selector ranks candidates by a deterministic, auditable heuristic.
type Selector struct {
	successWeight   float64
	speedWeight     float64
	preferenceBonus float64
}

func NewSelector(successWeight, speedWeight, preferenceBonus float64) *Selector {
	if successWeight <= 0 && speedWeight <= 0 {
		successWeight = DefaultSuccessWeight
		speedWeight = DefaultSpeedWeight
	}
	if preferenceBonus < 0 {
		preferenceBonus = DefaultPreferenceBonus
	}
	return &Selector{
		successWeight:   successWeight,
		speedWeight:     speedWeight,
		preferenceBonus: preferenceBonus,
	}
}

// Score computes the ranking score of one candidate. A candidate with no
// recorded attempts gets the midpoint of the score range so new backends are
// eligible without being favored or penalized.
func (s *Selector) Score(c Candidate, preferred string) float64 {
	var score float64
	if c.Record.Attempts == 0 {
		score = (s.successWeight + s.speedWeight) / 2
	} else {
		speed := 1 / (1 + c.Record.AvgLatencySeconds)
		score = s.successWeight*c.Record.SuccessRate + s.speedWeight*speed
	}

	if preferred != "" && c.Descriptor.Identity == preferred {
		score += s.preferenceBonus
	}

	return score
}

// Rank orders candidates by descending score, breaking ties by earliest
// registration so the ordering is reproducible.
func (s *Selector) Rank(capability domain.Capability, cands []Candidate, preferred string) ([]Candidate, error) {
	if len(cands) == 0 {
		return nil, domain.NoCandidateError(capability)
	}

	ranked := make([]Candidate, len(cands))
	copy(ranked, cands)

	scores := make(map[string]float64, len(ranked))
	for _, c := range ranked {
		scores[c.Descriptor.Identity] = s.Score(c, preferred)
	}

	sort.Slice(ranked, func(i, j int) bool {
		si := scores[ranked[i].Descriptor.Identity]
		sj := scores[ranked[j].Descriptor.Identity]
		if si != sj {
			return si > sj
		}
		return ranked[i].seq < ranked[j].seq
	})

	return ranked, nil
}
