package scoring

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
)

var (
	scheduledKeys = []string{"scheduled", "total_classes_assigned", "scheduled_classes", "classes_scheduled", "total_scheduled"}
	heldKeys      = []string{"held", "classes_taught", "held_classes", "classes_held", "total_held"}
	courseKeys    = []string{"courses", "course_list", "classes"}

	selectionKeys    = []string{"selected_activities", "selectedActivities", "activity_selections", "activitySelections", "selected_entries", "entries", "selections"}
	selectionSection = []string{"section_key", "section", "category_key", "category", "bucket"}
	activityNameKeys = []string{"activity", "activity_name", "label", "name", "title", "selected_activity"}

	creditKeys   = []string{"credits_claimed", "credit_point", "credits"}
	feedbackKeys = []string{"feedback_score", "score"}

	researchTypeKeys  = []string{"type", "activity_type", "category"}
	researchCountKeys = []string{"count", "quantity", "number"}
)

type creditList struct {
	category Category
	scope    Scope
	keys     []string
}

var creditLists = []creditList{
	{category: CategoryDepartmental, scope: ScopeDepartmental, keys: []string{"departmental_activities", "department_activities", "departmental"}},
	{category: CategoryInstitute, scope: ScopeInstitute, keys: []string{"institute_activities", "institutional_activities", "institute"}},
	{category: CategorySociety, scope: ScopeSociety, keys: []string{"society_activities", "contribution_to_society", "society"}},
}

type selection struct {
	scope Scope
	entry CreditEntry
}

// Normalize converts a stored form_data document into FormData, resolving the
// field aliases accumulated by older clients. Malformed values are reported as
// ValidationErrors; missing sections are simply empty.
func Normalize(raw map[string]any) (FormData, error) {
	data := FormData{
		General:    map[string]string{},
		Activities: ActivityChecklist{},
	}
	if len(raw) == 0 {
		return data, nil
	}

	for key, value := range asMap(raw["general"]) {
		data.General[key] = stringValue(value)
	}

	pbas := asMap(raw["pbas"])

	teaching, err := normalizeTeaching(raw["teaching"])
	if err != nil {
		return FormData{}, err
	}
	if teaching == (TeachingInput{}) {
		if process, ok := lookup(pbas, "teaching_process", "teaching"); ok {
			if teaching, err = normalizeTeaching(process); err != nil {
				return FormData{}, err
			}
		}
	}
	data.Teaching = teaching

	checklist, selections, err := normalizeActivities(asMap(raw["activities"]))
	if err != nil {
		return FormData{}, err
	}
	data.Activities = checklist

	if data.Research, err = normalizeResearch(raw["research"]); err != nil {
		return FormData{}, err
	}

	if data.Feedback, err = normalizeFeedback(pbas); err != nil {
		return FormData{}, err
	}

	for _, list := range creditLists {
		entries, err := normalizeCreditList(list, pbas, selections)
		if err != nil {
			return FormData{}, err
		}
		switch list.category {
		case CategoryDepartmental:
			data.Departmental = entries
		case CategoryInstitute:
			data.Institute = entries
		case CategorySociety:
			data.Society = entries
		}
	}

	acr, ok := lookup(pbas, "acr", "acr_grade")
	if !ok {
		acr, ok = lookup(raw, "acr", "acr_grade")
	}
	if ok {
		data.ACR = normalizeACR(acr)
	}

	return data, nil
}

func normalizeTeaching(value any) (TeachingInput, error) {
	if items, ok := value.([]any); ok {
		return sumCourses(items)
	}

	section := asMap(value)
	if len(section) == 0 {
		return TeachingInput{}, nil
	}

	if courses, ok := lookup(section, courseKeys...); ok {
		if items, ok := courses.([]any); ok && len(items) > 0 {
			return sumCourses(items)
		}
	}

	scheduled, err := intField(section, CategoryTeaching, -1, "scheduled", scheduledKeys)
	if err != nil {
		return TeachingInput{}, err
	}
	held, err := intField(section, CategoryTeaching, -1, "held", heldKeys)
	if err != nil {
		return TeachingInput{}, err
	}
	return TeachingInput{Scheduled: scheduled, Held: held}, nil
}

func sumCourses(items []any) (TeachingInput, error) {
	var total TeachingInput
	for i, item := range items {
		course := asMap(item)
		scheduled, err := intField(course, CategoryTeaching, i, "scheduled", scheduledKeys)
		if err != nil {
			return TeachingInput{}, err
		}
		held, err := intField(course, CategoryTeaching, i, "held", heldKeys)
		if err != nil {
			return TeachingInput{}, err
		}
		total.Scheduled += scheduled
		total.Held += held
	}
	return total, nil
}

func normalizeActivities(section map[string]any) (ActivityChecklist, []selection, error) {
	checklist := ActivityChecklist{}
	for key, value := range section {
		if item, ok := ResolveSection(key); ok && boolValue(value) {
			checklist[item] = true
		}
	}

	var items []any
	for _, key := range selectionKeys {
		if list, ok := section[key].([]any); ok {
			items = list
			break
		}
	}

	selections := make([]selection, 0, len(items))
	for i, raw := range items {
		item, sel, err := normalizeSelection(i, raw)
		if err != nil {
			return nil, nil, err
		}
		checklist[item] = true
		if sel != nil {
			selections = append(selections, *sel)
		}
	}

	return checklist, selections, nil
}

// normalizeSelection returns a nil selection for bare section keys, which tick
// the checklist without naming an activity.
func normalizeSelection(index int, raw any) (ActivityItem, *selection, error) {
	switch value := raw.(type) {
	case string:
		if item, activity, ok := LookupActivity(value); ok {
			return item, &selection{scope: activity.Scope, entry: CreditEntry{Activity: activity.Label}}, nil
		}
		if item, ok := ResolveSection(value); ok {
			return item, nil, nil
		}
		return "", nil, entryError(CategoryActivities, index, "activity", "does not match a known activity or section")
	case map[string]any:
		name := firstString(value, activityNameKeys...)
		var (
			item     ActivityItem
			resolved bool
			scope    Scope
		)
		if key, ok := lookup(value, selectionSection...); ok {
			item, resolved = ResolveSection(stringValue(key))
		}
		if rawScope, ok := lookup(value, "scope", "pbas_scope"); ok {
			scope, _ = ParseScope(stringValue(rawScope))
		}
		if name != "" {
			if catalogItem, activity, ok := LookupActivity(name); ok {
				if !resolved {
					item, resolved = catalogItem, true
				}
				if scope == "" {
					scope = activity.Scope
				}
			}
		}
		if !resolved {
			return "", nil, entryError(CategoryActivities, index, "section_key", "does not match a known activity section")
		}
		if scope == "" {
			scope = ScopeInstitute
		}
		if name == "" {
			name = string(item)
		}

		credits := 0.0
		if rawCredits, ok := lookup(value, creditKeys...); ok {
			parsed, ok := floatValue(rawCredits)
			if !ok {
				return "", nil, entryError(CategoryActivities, index, "credits_claimed", "must be a number")
			}
			credits = parsed
		}

		return item, &selection{
			scope: scope,
			entry: CreditEntry{
				ActivityCode:   firstString(value, "activity_code", "code"),
				Activity:       name,
				Semester:       firstString(value, "semester", "term"),
				EnclosureNo:    firstString(value, "enclosure_no", "enclosure"),
				CreditsClaimed: credits,
			},
		}, nil
	default:
		return "", nil, entryError(CategoryActivities, index, "activity", "must be a string or an object")
	}
}

func normalizeCreditList(list creditList, pbas map[string]any, selections []selection) ([]CreditEntry, error) {
	if value, ok := lookup(pbas, list.keys...); ok {
		if items, ok := value.([]any); ok {
			entries := make([]CreditEntry, 0, len(items))
			for i, raw := range items {
				entry, err := normalizeCreditEntry(list.category, i, raw)
				if err != nil {
					return nil, err
				}
				entries = append(entries, entry)
			}
			return entries, nil
		}
	}

	var derived []CreditEntry
	for _, sel := range selections {
		if sel.scope == list.scope {
			derived = append(derived, sel.entry)
		}
	}
	return derived, nil
}

func normalizeCreditEntry(category Category, index int, raw any) (CreditEntry, error) {
	item, ok := raw.(map[string]any)
	if !ok {
		return CreditEntry{}, entryError(category, index, "entry", "must be an object")
	}

	rawCredits, ok := lookup(item, creditKeys...)
	if !ok {
		return CreditEntry{}, entryError(category, index, "credits_claimed", "is required")
	}
	credits, ok := floatValue(rawCredits)
	if !ok {
		return CreditEntry{}, entryError(category, index, "credits_claimed", "must be a number")
	}

	return CreditEntry{
		ActivityCode:   strings.ToUpper(firstString(item, "activity_code", "code")),
		Activity:       firstString(item, activityNameKeys...),
		Semester:       firstString(item, "semester", "term"),
		EnclosureNo:    firstString(item, "enclosure_no", "enclosure"),
		CreditsClaimed: credits,
	}, nil
}

func normalizeFeedback(pbas map[string]any) ([]FeedbackEntry, error) {
	value, ok := lookup(pbas, "student_feedback", "feedback", "feedback_scores")
	if !ok {
		return nil, nil
	}
	items, ok := value.([]any)
	if !ok {
		return nil, nil
	}

	entries := make([]FeedbackEntry, 0, len(items))
	for i, raw := range items {
		var (
			entry    FeedbackEntry
			rawScore any
		)
		if item, isMap := raw.(map[string]any); isMap {
			entry.Course = firstString(item, "course", "course_name", "subject")
			score, found := lookup(item, feedbackKeys...)
			if !found {
				return nil, entryError(CategoryFeedback, i, "feedback_score", "is required")
			}
			rawScore = score
		} else {
			rawScore = raw
		}

		score, ok := floatValue(rawScore)
		if !ok {
			return nil, entryError(CategoryFeedback, i, "feedback_score", "must be a number")
		}
		entry.Score = score
		entries = append(entries, entry)
	}
	return entries, nil
}

func normalizeResearch(value any) ([]ResearchEntry, error) {
	var items []any
	switch section := value.(type) {
	case []any:
		items = section
	case map[string]any:
		if list, ok := section["entries"].([]any); ok {
			items = list
			break
		}
		// Older documents stored a type-to-count map.
		keys := make([]string, 0, len(section))
		for key := range section {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		entries := make([]ResearchEntry, 0, len(keys))
		for i, key := range keys {
			count, ok := intValue(section[key])
			if !ok {
				return nil, entryError(CategoryResearch, i, "count", "must be a whole number")
			}
			entries = append(entries, ResearchEntry{Type: key, Count: count})
		}
		return entries, nil
	default:
		return nil, nil
	}

	entries := make([]ResearchEntry, 0, len(items))
	for i, raw := range items {
		switch item := raw.(type) {
		case string:
			entries = append(entries, ResearchEntry{Type: item, Count: 1})
		case map[string]any:
			entry := ResearchEntry{
				Type:  firstString(item, researchTypeKeys...),
				Title: firstString(item, "title"),
				Count: 1,
			}
			if rawCount, ok := lookup(item, researchCountKeys...); ok {
				count, ok := intValue(rawCount)
				if !ok {
					return nil, entryError(CategoryResearch, i, "count", "must be a whole number")
				}
				entry.Count = count
			}
			entries = append(entries, entry)
		default:
			return nil, entryError(CategoryResearch, i, "entry", "must be a string or an object")
		}
	}
	return entries, nil
}

func normalizeACR(value any) ACRInput {
	if section, ok := value.(map[string]any); ok {
		value, _ = lookup(section, "grade", "acr_grade", "value")
	}
	return ACRInput{Raw: stringValue(value)}
}

func intField(section map[string]any, category Category, index int, field string, keys []string) (int, error) {
	value, ok := lookup(section, keys...)
	if !ok {
		return 0, nil
	}
	n, ok := intValue(value)
	if !ok {
		if index >= 0 {
			return 0, entryError(category, index, field, "must be a whole number")
		}
		return 0, fieldError(category, field, "must be a whole number")
	}
	return n, nil
}

func asMap(value any) map[string]any {
	if m, ok := value.(map[string]any); ok {
		return m
	}
	return nil
}

// lookup returns the first non-nil value stored under any of keys.
func lookup(m map[string]any, keys ...string) (any, bool) {
	for _, key := range keys {
		if value, ok := m[key]; ok && value != nil {
			if s, isString := value.(string); isString && strings.TrimSpace(s) == "" {
				continue
			}
			return value, true
		}
	}
	return nil, false
}

func firstString(m map[string]any, keys ...string) string {
	value, ok := lookup(m, keys...)
	if !ok {
		return ""
	}
	return stringValue(value)
}

func stringValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case float64:
		return formatPoints(v)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(encoded)
	}
}

func floatValue(value any) (float64, bool) {
	var (
		f   float64
		err error
	)
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		f, err = v.Float64()
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(v), 64)
	default:
		return 0, false
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func intValue(value any) (int, bool) {
	f, ok := floatValue(value)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

func boolValue(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "y", "1", "on":
			return true
		}
		return false
	case nil:
		return false
	default:
		f, ok := floatValue(v)
		return ok && f != 0
	}
}
