package scoring

import "strings"

// Scope is the PBAS credit list a catalogued activity feeds.
type Scope string

const (
	ScopeDepartmental Scope = "departmental"
	ScopeInstitute    Scope = "institute"
	ScopeSociety      Scope = "society"
)

// CatalogActivity is a named activity a faculty member can select.
type CatalogActivity struct {
	Label string `json:"label"`
	Scope Scope  `json:"scope"`
}

// CatalogSection groups catalogued activities under a checklist item.
type CatalogSection struct {
	Key        string            `json:"section_key"`
	Item       ActivityItem      `json:"item"`
	Label      string            `json:"label"`
	Activities []CatalogActivity `json:"activities"`
}

var activityCatalog = []CatalogSection{
	{
		Key:   "a_administrative",
		Item:  ItemAdministrative,
		Label: "Administrative responsibilities (HOD / Dean / Coordinator etc.)",
		Activities: []CatalogActivity{
			{Label: "Lab In charge", Scope: ScopeDepartmental},
			{Label: "Departmental Library in charge", Scope: ScopeDepartmental},
			{Label: "Cleanliness in charge", Scope: ScopeDepartmental},
			{Label: "Departmental store/Purchase in-charge", Scope: ScopeDepartmental},
			{Label: "Student Feedback in charge", Scope: ScopeDepartmental},
			{Label: "In-charge/Member of AICTE/State Govt./University statutory committee", Scope: ScopeInstitute},
			{Label: "NBA/NACC coordinator", Scope: ScopeInstitute},
			{Label: "Rector/Warden/Canteen", Scope: ScopeInstitute},
			{Label: "Scholarship in-charge", Scope: ScopeInstitute},
			{Label: "Any other administrative activity", Scope: ScopeInstitute},
		},
	},
	{
		Key:   "b_exam_duties",
		Item:  ItemExamDuties,
		Label: "Examination & evaluation duties",
		Activities: []CatalogActivity{
			{Label: "Practical/Exam timetable in charge", Scope: ScopeDepartmental},
			{Label: "Internal/External academic monitoring coordinator", Scope: ScopeInstitute},
			{Label: "Exam activities/duties", Scope: ScopeInstitute},
			{Label: "Any other examination/evaluation duty", Scope: ScopeInstitute},
		},
	},
	{
		Key:   "c_student_related",
		Item:  ItemStudentRelated,
		Label: "Student related co-curricular / extension activities",
		Activities: []CatalogActivity{
			{Label: "Student Association (Chapter co-coordinator)", Scope: ScopeDepartmental},
			{Label: "Project mentoring for project competition", Scope: ScopeDepartmental},
			{Label: "Student counseling", Scope: ScopeDepartmental},
			{Label: "Sports in charge and co-coordinator", Scope: ScopeInstitute},
			{Label: "PRO/Gymkhana/Gathering/Publicity/student club activity", Scope: ScopeInstitute},
			{Label: "Blood donation activity organization", Scope: ScopeSociety},
			{Label: "Yoga classes", Scope: ScopeSociety},
			{Label: "Medical camp/health camp organization", Scope: ScopeSociety},
			{Label: "Literacy camp organization", Scope: ScopeSociety},
			{Label: "Environmental awareness camp", Scope: ScopeSociety},
			{Label: "Swachh Bharat mission / NCC / NSS activity", Scope: ScopeSociety},
			{Label: "Any other student-related activity", Scope: ScopeSociety},
		},
	},
	{
		Key:   "d_organizing_events",
		Item:  ItemOrganizingEvents,
		Label: "Organizing seminars / workshops / conferences",
		Activities: []CatalogActivity{
			{Label: "Initiative for CEP/STTP/testing consultancy", Scope: ScopeInstitute},
			{Label: "Organization of MOOCS/NPTEL/spoken tutorials/webinars", Scope: ScopeInstitute},
			{Label: "Organization of FDP/Conference/Training/Workshop", Scope: ScopeInstitute},
			{Label: "Induction program in charge", Scope: ScopeInstitute},
			{Label: "Any other event organization activity", Scope: ScopeInstitute},
		},
	},
	{
		Key:   "e_phd_guidance",
		Item:  ItemPhDGuidance,
		Label: "Guiding PhD students",
		Activities: []CatalogActivity{
			{Label: "Evidence of activity involved in guiding PhD students", Scope: ScopeDepartmental},
			{Label: "Any other PhD guidance activity", Scope: ScopeDepartmental},
		},
	},
	{
		Key:   "f_research_project",
		Item:  ItemResearchProject,
		Label: "Conducting minor / major research projects",
		Activities: []CatalogActivity{
			{Label: "Conducting minor research project", Scope: ScopeInstitute},
			{Label: "Conducting major research project", Scope: ScopeInstitute},
			{Label: "Any other research project activity", Scope: ScopeInstitute},
		},
	},
	{
		Key:   "g_sponsored_project",
		Item:  ItemSponsoredProject,
		Label: "Sponsored projects (national/international agencies)",
		Activities: []CatalogActivity{
			{Label: "Sponsored project funded by national agency", Scope: ScopeInstitute},
			{Label: "Sponsored project funded by international agency", Scope: ScopeSociety},
			{Label: "Any other sponsored project activity", Scope: ScopeSociety},
		},
	},
}

// sectionAliases maps every historical spelling of a section onto its checklist item.
var sectionAliases = map[string]ActivityItem{
	"a":                             ItemAdministrative,
	"administrative":                ItemAdministrative,
	"administrative_responsibility": ItemAdministrative,
	"administrativeresponsibility":  ItemAdministrative,
	"a_administrative":              ItemAdministrative,
	"b":                             ItemExamDuties,
	"exam":                          ItemExamDuties,
	"exam_duties":                   ItemExamDuties,
	"examination_duties":            ItemExamDuties,
	"b_exam_duties":                 ItemExamDuties,
	"c":                             ItemStudentRelated,
	"student_related":               ItemStudentRelated,
	"student_related_activities":    ItemStudentRelated,
	"c_student_related":             ItemStudentRelated,
	"d":                             ItemOrganizingEvents,
	"organizing_events":             ItemOrganizingEvents,
	"organizing_seminars":           ItemOrganizingEvents,
	"d_organizing_events":           ItemOrganizingEvents,
	"e":                             ItemPhDGuidance,
	"phd_guidance":                  ItemPhDGuidance,
	"guiding_phd_students":          ItemPhDGuidance,
	"e_phd_guidance":                ItemPhDGuidance,
	"f":                             ItemResearchProject,
	"research_project":              ItemResearchProject,
	"conducting_research_projects":  ItemResearchProject,
	"f_research_project":            ItemResearchProject,
	"g":                             ItemSponsoredProject,
	"sponsored_project":             ItemSponsoredProject,
	"sponsored_projects":            ItemSponsoredProject,
	"publication_in_ugc":            ItemSponsoredProject,
	"publication":                   ItemSponsoredProject,
	"g_sponsored_project":           ItemSponsoredProject,
}

// activityLabelAliases maps older label spellings onto catalogue labels (both normalised).
var activityLabelAliases = map[string]string{
	normalizeLabel("Departmental store / Purchase in charge"):                normalizeLabel("Departmental store/Purchase in-charge"),
	normalizeLabel("Practical / Exam Time table in charge"):                  normalizeLabel("Practical/Exam timetable in charge"),
	normalizeLabel("Internal / External Academic Monitoring Co-coordinator"): normalizeLabel("Internal/External academic monitoring coordinator"),
	normalizeLabel("Organization of FDP / Conference / Training / Workshop"): normalizeLabel("Organization of FDP/Conference/Training/Workshop"),
}

type catalogEntry struct {
	item     ActivityItem
	activity CatalogActivity
}

var catalogIndex = buildCatalogIndex()

func buildCatalogIndex() map[string]catalogEntry {
	index := make(map[string]catalogEntry)
	for _, section := range activityCatalog {
		for _, activity := range section.Activities {
			index[normalizeLabel(activity.Label)] = catalogEntry{item: section.Item, activity: activity}
		}
	}
	return index
}

func normalizeLabel(value string) string {
	text := strings.ToLower(strings.TrimSpace(value))
	text = strings.ReplaceAll(text, "&", "and")
	return strings.Join(strings.Fields(text), " ")
}

// Catalog returns a copy of the activity catalogue.
func Catalog() []CatalogSection {
	sections := make([]CatalogSection, len(activityCatalog))
	for i, section := range activityCatalog {
		section.Activities = append([]CatalogActivity(nil), section.Activities...)
		sections[i] = section
	}
	return sections
}

// LookupActivity resolves a catalogue label, tolerating case, spacing and old spellings.
func LookupActivity(label string) (ActivityItem, CatalogActivity, bool) {
	key := normalizeLabel(label)
	if alias, ok := activityLabelAliases[key]; ok {
		key = alias
	}
	entry, ok := catalogIndex[key]
	return entry.item, entry.activity, ok
}

// ResolveSection maps a section key, legacy flag or single letter onto a checklist item.
func ResolveSection(key string) (ActivityItem, bool) {
	normalized := strings.ToLower(strings.TrimSpace(key))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	item, ok := sectionAliases[normalized]
	return item, ok
}

// ParseScope accepts the scope spellings used in stored selections.
func ParseScope(value string) (Scope, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "department", "departmental":
		return ScopeDepartmental, true
	case "institute", "institution", "institutional":
		return ScopeInstitute, true
	case "society":
		return ScopeSociety, true
	default:
		return "", false
	}
}
