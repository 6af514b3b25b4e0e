package corpus

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain/story"
)

// record is the canonical on-disk schema after alias resolution.
type record struct {
	ID           string `validate:"max=256"`
	Title        string `validate:"required,max=300"`
	Client       string `validate:"max=200"`
	Employer     string
	Division     string
	Role         string
	Industry     string
	Category     string
	SubCategory  string
	Theme        string
	Solution     string
	UseCases     []string
	Competencies []string
	Situation    []string
	Task         []string
	Action       []string
	Result       []string
	Person       string
	Place        string
	Purpose      string
	Performance  []string
	Process      []string
	Summary      string
	Tags         []string `validate:"max=64"`
	Personas     []string `validate:"max=32"`
	StartDate    string
	EndDate      string
}

// Accepted spellings per canonical field, in lookup order. Exports went through
// several spreadsheet iterations, so the same field shows up under several keys.
var (
	stringAliases = map[string][]string{
		"id":          {"id", "ID", "story_id"},
		"title":       {"Title", "title"},
		"client":      {"Client", "client"},
		"employer":    {"Employer", "employer"},
		"division":    {"Division", "division"},
		"role":        {"Role", "role"},
		"industry":    {"Industry", "industry"},
		"category":    {"Category", "category"},
		"subcategory": {"Sub-category", "sub-category", "sub_category", "subcategory", "Sub_category"},
		"theme":       {"Theme", "theme"},
		"solution":    {"Solution / Offering", "solution", "Solution"},
		"person":      {"Person", "person"},
		"place":       {"Place", "place"},
		"purpose":     {"Purpose", "purpose"},
		"summary":     {"5PSummary", "5p_summary", "summary"},
		"start":       {"Start_Date", "start_date", "StartDate"},
		"end":         {"End_Date", "end_date", "EndDate"},
	}
	listAliases = map[string][]string{
		"use_cases":    {"Use Case(s)", "use_cases", "UseCases"},
		"competencies": {"Competencies", "competencies"},
		"situation":    {"Situation", "situation"},
		"task":         {"Task", "task"},
		"action":       {"Action", "action"},
		"result":       {"Result", "result"},
		"performance":  {"Performance", "performance"},
		"process":      {"Process", "process"},
		"tags":         {"public_tags", "Public_Tags", "tags"},
		"personas":     {"personas", "Personas"},
	}
	// commaLists are list fields whose single-string form is comma separated.
	commaLists = map[string]bool{"tags": true, "personas": true}
)

// decodeRecord parses one JSONL line and conforms it to the canonical schema.
func decodeRecord(line []byte) (record, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(line, &raw); err != nil {
		return record{}, fmt.Errorf("invalid json: %w", err)
	}

	str := func(field string) (string, error) {
		key, val, ok := lookup(raw, stringAliases[field])
		if !ok {
			return "", nil
		}
		s, err := asString(val)
		if err != nil {
			return "", fmt.Errorf("field %q: %w", key, err)
		}
		return s, nil
	}
	list := func(field string) ([]string, error) {
		key, val, ok := lookup(raw, listAliases[field])
		if !ok {
			return nil, nil
		}
		l, err := asList(val, commaLists[field])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
		return l, nil
	}

	var (
		r   record
		err error
	)
	strTargets := []struct {
		field string
		dst   *string
	}{
		{"id", &r.ID}, {"title", &r.Title}, {"client", &r.Client}, {"employer", &r.Employer},
		{"division", &r.Division}, {"role", &r.Role}, {"industry", &r.Industry},
		{"category", &r.Category}, {"subcategory", &r.SubCategory}, {"theme", &r.Theme},
		{"solution", &r.Solution}, {"person", &r.Person}, {"place", &r.Place},
		{"purpose", &r.Purpose}, {"summary", &r.Summary}, {"start", &r.StartDate}, {"end", &r.EndDate},
	}
	for _, t := range strTargets {
		if *t.dst, err = str(t.field); err != nil {
			return record{}, err
		}
	}
	listTargets := []struct {
		field string
		dst   *[]string
	}{
		{"use_cases", &r.UseCases}, {"competencies", &r.Competencies}, {"situation", &r.Situation},
		{"task", &r.Task}, {"action", &r.Action}, {"result", &r.Result},
		{"performance", &r.Performance}, {"process", &r.Process}, {"tags", &r.Tags}, {"personas", &r.Personas},
	}
	for _, t := range listTargets {
		if *t.dst, err = list(t.field); err != nil {
			return record{}, err
		}
	}
	r.Title = strings.TrimSpace(r.Title)
	return r, nil
}

func (r *record) toFields() story.Fields {
	return story.Fields{
		ID:           r.ID,
		Title:        r.Title,
		Client:       r.Client,
		Employer:     r.Employer,
		Division:     r.Division,
		Role:         r.Role,
		Industry:     r.Industry,
		Category:     r.Category,
		SubCategory:  r.SubCategory,
		Theme:        r.Theme,
		Solution:     r.Solution,
		UseCases:     r.UseCases,
		Competencies: r.Competencies,
		Situation:    r.Situation,
		Task:         r.Task,
		Action:       r.Action,
		Result:       r.Result,
		FiveP: story.FiveP{
			Person:      r.Person,
			Place:       r.Place,
			Purpose:     r.Purpose,
			Performance: r.Performance,
			Process:     r.Process,
			Summary:     r.Summary,
		},
		Tags:      r.Tags,
		Personas:  r.Personas,
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
	}
}

func lookup(raw map[string]json.RawMessage, keys []string) (string, json.RawMessage, bool) {
	for _, k := range keys {
		if v, ok := raw[k]; ok {
			return k, v, true
		}
	}
	return "", nil, false
}

func asString(val json.RawMessage) (string, error) {
	var v any
	if err := json.Unmarshal(val, &v); err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

// asList accepts an array of strings or a single string. Anything else is malformed.
func asList(val json.RawMessage, commaSeparated bool) ([]string, error) {
	var v any
	if err := json.Unmarshal(val, &v); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		if commaSeparated {
			return strings.Split(x, ","), nil
		}
		return []string{x}, nil
	case []any:
		out := make([]string, 0, len(x))
		for i, item := range x {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("malformed list: element %d is %T, want string", i, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("malformed list: got %T, want array of strings", v)
	}
}
