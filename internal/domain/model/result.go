package model

import "github.com/okian/audiogram/internal/domain/severity"

// PerEar holds one value per ear channel.
type PerEar[T any] struct {
	RE T `json:"RE"`
	LE T `json:"LE"`
}

// Get returns the value for e.
func (p PerEar[T]) Get(e Ear) T {
	if e == LeftEar {
		return p.LE
	}
	return p.RE
}

// Set stores v for e.
func (p *PerEar[T]) Set(e Ear, v T) {
	if e == LeftEar {
		p.LE = v
		return
	}
	p.RE = v
}

// AnalysisResult is the outcome of analyzing one record. It is a value: a new
// analysis replaces the previous one, nothing is merged.
type AnalysisResult struct {
	ParticipantID int64                                     `json:"participant_id"`
	Freqs         [NumFrequencies]int                       `json:"freqs"`
	Air           CanonicalThresholds                       `json:"thresholds"`
	Bone          *CanonicalThresholds                      `json:"bone_conduction,omitempty"`
	Average       PerEar[float64]                           `json:"average"`
	PresentCount  PerEar[int]                               `json:"present_count"`
	Loss          PerEar[severity.Category]                 `json:"loss"`
	FrequencyLoss PerEar[[NumFrequencies]severity.Category] `json:"frequency_loss"`
	Custom        bool                                      `json:"custom"`
}

// HasBoneConduction reports whether the result carries at least one present
// bone-conduction value.
func (r AnalysisResult) HasBoneConduction() bool {
	return r.Bone != nil && r.Bone.AnyPresent()
}
