package scoring

// ActivityItem is one of the seven yes/no checklist entries.
type ActivityItem string

const (
	ItemAdministrative   ActivityItem = "administrative"
	ItemExamDuties       ActivityItem = "exam_duties"
	ItemStudentRelated   ActivityItem = "student_related"
	ItemOrganizingEvents ActivityItem = "organizing_events"
	ItemPhDGuidance      ActivityItem = "phd_guidance"
	ItemResearchProject  ActivityItem = "research_project"
	ItemSponsoredProject ActivityItem = "sponsored_project"
)

var checklistItems = []ActivityItem{
	ItemAdministrative,
	ItemExamDuties,
	ItemStudentRelated,
	ItemOrganizingEvents,
	ItemPhDGuidance,
	ItemResearchProject,
	ItemSponsoredProject,
}

// ChecklistItems returns the fixed checklist in display order.
func ChecklistItems() []ActivityItem {
	return append([]ActivityItem(nil), checklistItems...)
}

// ActivityChecklist records which checklist items were answered yes.
type ActivityChecklist map[ActivityItem]bool

// ChecklistResult is the calculator output for the activity checklist.
type ChecklistResult struct {
	YesCount int                   `json:"yes_count"`
	Items    map[ActivityItem]bool `json:"items"`
	Grade    Grade                 `json:"grade"`
	Score    float64               `json:"score"`
	MaxScore float64               `json:"max_score"`
}

// ScoreChecklist counts yes answers among the fixed items; other keys are ignored.
func ScoreChecklist(checklist ActivityChecklist) ChecklistResult {
	result := ChecklistResult{
		Items:    make(map[ActivityItem]bool, len(checklistItems)),
		MaxScore: 10,
	}

	for _, item := range checklistItems {
		yes := checklist[item]
		result.Items[item] = yes
		if yes {
			result.YesCount++
		}
	}

	switch {
	case result.YesCount >= 3:
		result.Grade, result.Score = GradeGood, 10
	case result.YesCount >= 1:
		result.Grade, result.Score = GradeSatisfactory, 5
	default:
		result.Grade, result.Score = GradeNotSatisfactory, 0
	}

	return result
}
