package scoring

import (
	"math"
	"strings"
)

// CreditEntry is one claimed activity in a PBAS credit list.
type CreditEntry struct {
	ActivityCode   string  `json:"activity_code,omitempty"`
	Activity       string  `json:"activity,omitempty"`
	Semester       string  `json:"semester,omitempty"`
	EnclosureNo    string  `json:"enclosure_no,omitempty"`
	CreditsClaimed float64 `json:"credits_claimed"`
}

// CreditRule holds the per-entry caps and the category ceiling of one credit list.
type CreditRule struct {
	Category    Category
	PerEntryCap float64
	CodeCaps    map[string]float64
	Ceiling     float64
}

var (
	departmentalRule = CreditRule{
		Category:    CategoryDepartmental,
		PerEntryCap: 3,
		Ceiling:     20,
	}
	instituteRule = CreditRule{
		Category:    CategoryInstitute,
		PerEntryCap: 4,
		CodeCaps: map[string]float64{
			"HOD_DEAN":                     4,
			"COORDINATOR_APPOINTED_BY_HOI": 2,
			"ORGANIZED_CONFERENCE":         2,
			"FDP_CONFERENCE_COORDINATOR":   1,
		},
		Ceiling: 10,
	}
	societyRule = CreditRule{
		Category:    CategorySociety,
		PerEntryCap: 5,
		Ceiling:     10,
	}
)

// CreditRuleFor returns the rule of a credit-list category.
func CreditRuleFor(category Category) (CreditRule, bool) {
	switch category {
	case CategoryDepartmental:
		return departmentalRule, true
	case CategoryInstitute:
		return instituteRule, true
	case CategorySociety:
		return societyRule, true
	default:
		return CreditRule{}, false
	}
}

// CapFor returns the per-entry cap for an activity code.
func (r CreditRule) CapFor(code string) float64 {
	if limit, ok := r.CodeCaps[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return limit
	}
	return r.PerEntryCap
}

// Validate rejects any entry claiming less than zero or more than its cap.
func (r CreditRule) Validate(entries []CreditEntry) error {
	for i, entry := range entries {
		if math.IsNaN(entry.CreditsClaimed) || math.IsInf(entry.CreditsClaimed, 0) {
			return entryError(r.Category, i, "credits_claimed", "must be a finite number")
		}
		if entry.CreditsClaimed < 0 {
			return entryError(r.Category, i, "credits_claimed", "must not be negative")
		}
		if limit := r.CapFor(entry.ActivityCode); entry.CreditsClaimed > limit {
			return entryError(r.Category, i, "credits_claimed", "exceeds the per-activity cap of "+formatPoints(limit))
		}
	}
	return nil
}

// CreditResult is the calculator output for a credit list.
type CreditResult struct {
	Entries      int     `json:"entries"`
	TotalClaimed float64 `json:"total_claimed"`
	TotalAwarded float64 `json:"total_awarded"`
	Ceiling      float64 `json:"ceiling"`
}

// Score validates the entries and awards the claimed total up to the ceiling.
func (r CreditRule) Score(entries []CreditEntry) (CreditResult, error) {
	if err := r.Validate(entries); err != nil {
		return CreditResult{}, err
	}

	var claimed float64
	for _, entry := range entries {
		claimed += entry.CreditsClaimed
	}
	claimed = round2(claimed)

	return CreditResult{
		Entries:      len(entries),
		TotalClaimed: claimed,
		TotalAwarded: math.Min(claimed, r.Ceiling),
		Ceiling:      r.Ceiling,
	}, nil
}

// ScoreDepartmental scores the departmental activity list.
func ScoreDepartmental(entries []CreditEntry) (CreditResult, error) {
	return departmentalRule.Score(entries)
}

// ScoreInstitute scores the institute activity list.
func ScoreInstitute(entries []CreditEntry) (CreditResult, error) {
	return instituteRule.Score(entries)
}

// ScoreSociety scores the contribution-to-society list.
func ScoreSociety(entries []CreditEntry) (CreditResult, error) {
	return societyRule.Score(entries)
}
