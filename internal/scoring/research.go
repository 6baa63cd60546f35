package scoring

import (
	"sort"
	"strconv"
	"strings"
)

var researchPoints = map[string]float64{
	"journal_papers": 8,

	"book_international":        12,
	"book_national":             10,
	"edited_book_chapter":       5,
	"editor_book_international": 10,
	"editor_book_national":      8,

	"translation_chapter_or_paper": 3,
	"translation_book":             8,

	"innovative_pedagogy": 5,
	"new_curriculum":      2,
	"new_course":          2,

	"mooc_complete_4_quadrant": 20,
	"mooc_module":              5,
	"mooc_content_writer":      2,
	"mooc_course_coordinator":  8,

	"econtent_complete_course": 12,
	"econtent_module":          5,
	"econtent_contribution":    2,
	"econtent_editor":          10,

	"phd_awarded":             10,
	"mphil_submitted":         5,
	"pg_dissertation_awarded": 2,

	"project_completed_gt_10_lakhs": 10,
	"project_completed_lt_10_lakhs": 5,
	"project_ongoing_gt_10_lakhs":   5,
	"project_ongoing_lt_10_lakhs":   2,
	"consultancy":                   3,

	"patent_international": 10,
	"patent_national":      7,

	"policy_international": 10,
	"policy_national":      7,
	"policy_state":         4,

	"award_international": 7,
	"award_national":      5,

	"invited_lecture_international_abroad": 7,
	"invited_lecture_international_india":  5,
	"invited_lecture_national":             3,
	"invited_lecture_state_university":     2,
}

// researchTypeAliases maps the verified-score keys and older names onto point-table types.
var researchTypeAliases = map[string]string{
	"peer_reviewed_journals":             "journal_papers",
	"journal_paper":                      "journal_papers",
	"books_international":                "book_international",
	"books_national":                     "book_national",
	"chapter_edited_book":                "edited_book_chapter",
	"translation_chapter":                "translation_chapter_or_paper",
	"pedagogy_development":               "innovative_pedagogy",
	"curriculum_design":                  "new_curriculum",
	"moocs_4quadrant":                    "mooc_complete_4_quadrant",
	"moocs_single_lecture":               "mooc_module",
	"moocs_content_writer":               "mooc_content_writer",
	"moocs_coordinator":                  "mooc_course_coordinator",
	"econtent_4quadrant_complete":        "econtent_complete_course",
	"econtent_4quadrant_per_module":      "econtent_module",
	"econtent_module_contribution":       "econtent_contribution",
	"phd_submitted":                      "mphil_submitted",
	"mphil_pg_dissertation":              "pg_dissertation_awarded",
	"research_project_above_10l":         "project_completed_gt_10_lakhs",
	"research_project_below_10l":         "project_completed_lt_10_lakhs",
	"research_project_ongoing_above_10l": "project_ongoing_gt_10_lakhs",
	"research_project_ongoing_below_10l": "project_ongoing_lt_10_lakhs",
	"conference_international_abroad":    "invited_lecture_international_abroad",
	"conference_international_country":   "invited_lecture_international_india",
	"conference_national":                "invited_lecture_national",
	"conference_state_university":        "invited_lecture_state_university",
}

// ResearchEntry is one declared research output.
type ResearchEntry struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
	Title string `json:"title,omitempty"`
}

// ResearchLine aggregates all entries of one type.
type ResearchLine struct {
	Type          string  `json:"type"`
	Count         int     `json:"count"`
	PointsPerUnit float64 `json:"points_per_unit"`
	Score         float64 `json:"score"`
}

// ResearchResult is the calculator output for the research tally.
type ResearchResult struct {
	Lines []ResearchLine `json:"breakdown"`
	Total float64        `json:"total"`
}

// ResearchPoints returns the per-unit points of a research type after alias resolution.
func ResearchPoints(researchType string) (float64, bool) {
	points, ok := researchPoints[CanonicalResearchType(researchType)]
	return points, ok
}

// CanonicalResearchType lower-cases the type and resolves known aliases.
func CanonicalResearchType(researchType string) string {
	key := strings.ToLower(strings.TrimSpace(researchType))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	if alias, ok := researchTypeAliases[key]; ok {
		return alias
	}
	return key
}

// ResearchTypes lists the known research types in lexical order.
func ResearchTypes() []string {
	types := make([]string, 0, len(researchPoints))
	for researchType := range researchPoints {
		types = append(types, researchType)
	}
	sort.Strings(types)
	return types
}

// ValidateResearch rejects entries with a missing or unknown type.
func ValidateResearch(entries []ResearchEntry) error {
	for i, entry := range entries {
		if strings.TrimSpace(entry.Type) == "" {
			return entryError(CategoryResearch, i, "type", "is required")
		}
		if _, ok := ResearchPoints(entry.Type); !ok {
			return entryError(CategoryResearch, i, "type", "is not a recognised research type: "+entry.Type)
		}
	}
	return nil
}

// ScoreResearch multiplies count by points per type. Lines keep the order in
// which each type first appears; entries with a non-positive count add nothing.
func ScoreResearch(entries []ResearchEntry) (ResearchResult, error) {
	if err := ValidateResearch(entries); err != nil {
		return ResearchResult{}, err
	}

	result := ResearchResult{Lines: []ResearchLine{}}
	positions := make(map[string]int)

	for _, entry := range entries {
		if entry.Count <= 0 {
			continue
		}
		researchType := CanonicalResearchType(entry.Type)
		idx, seen := positions[researchType]
		if !seen {
			idx = len(result.Lines)
			positions[researchType] = idx
			result.Lines = append(result.Lines, ResearchLine{
				Type:          researchType,
				PointsPerUnit: researchPoints[researchType],
			})
		}
		result.Lines[idx].Count += entry.Count
	}

	for i := range result.Lines {
		line := &result.Lines[i]
		line.Score = float64(line.Count) * line.PointsPerUnit
		result.Total += line.Score
	}
	result.Total = round2(result.Total)

	return result, nil
}

func formatPoints(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
