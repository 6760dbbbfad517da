package roadmap

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/alexanderramin/studymap/internal/domain"
	"github.com/mitchellh/mapstructure"
)

// rawNode mirrors every field spelling a roadmap topic has been seen with.
type rawNode struct {
	ID                   string   `mapstructure:"id"`
	Topic                string   `mapstructure:"topic"`
	Title                string   `mapstructure:"title"`
	EstimatedTimeHours   float64  `mapstructure:"estimated_time_hours"`
	TimeHours            float64  `mapstructure:"time_hours"`
	EstimatedTimeMinutes float64  `mapstructure:"estimated_time_minutes"`
	Prerequisites        []string `mapstructure:"prerequisites"`
	Subtopics            any      `mapstructure:"subtopics"`
}

// rawPlan mirrors the remote plan shape plus the older local field names.
type rawPlan struct {
	ID            string  `mapstructure:"id"`
	MainTopic     string  `mapstructure:"main_topic"`
	Topic         string  `mapstructure:"topic"`
	AvailableTime float64 `mapstructure:"available_time"`
	StudyHours    float64 `mapstructure:"studyHours"`
	Purpose       string  `mapstructure:"purpose_of_study"`
	CreatedAt     string  `mapstructure:"created_at"`
	Roadmap       any     `mapstructure:"roadmap"`
	Roadmaps      any     `mapstructure:"roadmaps"`
	Source        string  `mapstructure:"source"`
}

// FieldIssue is a field whose value could not be coerced. The field is left
// at its zero value and decoding continues.
type FieldIssue struct {
	Path    string
	Message string
}

type decoder struct {
	issues []FieldIssue
}

// weak decodes loosely typed JSON values into out. Numbers become strings,
// single values become slices.
func (d *decoder) weak(path string, in any, out any) {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		d.issues = append(d.issues, FieldIssue{Path: path, Message: err.Error()})
		return
	}
	err = dec.Decode(in)
	if err == nil {
		return
	}
	var merr *mapstructure.Error
	if !errors.As(err, &merr) {
		d.issues = append(d.issues, FieldIssue{Path: path, Message: err.Error()})
		return
	}
	for _, msg := range merr.Errors {
		d.issues = append(d.issues, FieldIssue{Path: path, Message: msg})
	}
}

// Decode parses roadmap JSON. It accepts a bare array of topics or an object
// carrying the array under "roadmap".
func Decode(data []byte) ([]domain.RoadmapNode, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decoding roadmap: %w", err)
	}
	return DecodeValue(v), nil
}

// DecodeValue converts an already unmarshalled JSON value into roadmap nodes.
// Anything that is not an array of objects (or an object wrapping one) yields
// an empty roadmap. Non-array subtopics are ignored.
func DecodeValue(v any) []domain.RoadmapNode {
	nodes, _ := DecodeValueWithReport(v)
	return nodes
}

// DecodeValueWithReport is DecodeValue that also reports fields that could
// not be coerced.
func DecodeValueWithReport(v any) ([]domain.RoadmapNode, []FieldIssue) {
	var d decoder
	nodes := d.value(v, "roadmap")
	return nodes, d.issues
}

func (d *decoder) value(v any, path string) []domain.RoadmapNode {
	switch t := v.(type) {
	case []any:
		nodes := make([]domain.RoadmapNode, 0, len(t))
		for i, item := range t {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			nodes = append(nodes, d.node(m, fmt.Sprintf("%s[%d]", path, i)))
		}
		return nodes
	case map[string]any:
		if inner, ok := t["roadmap"]; ok {
			return d.value(inner, path)
		}
	}
	return nil
}

func (d *decoder) node(m map[string]any, path string) domain.RoadmapNode {
	var rn rawNode
	d.weak(path, m, &rn)
// DecodePlan normalises one plan record into the canonical StudyPlan shape.
// index is the record's position in its list; it supplies the id (index+1)
// when the record has none. now supplies the creation date when absent.
func DecodePlan(record map[string]any, index int, now time.Time) domain.StudyPlan {
	plan, _ := DecodePlanWithReport(record, index, now)
	return plan
}

// DecodePlanWithReport is DecodePlan that also reports fields that could not
// be coerced.
func DecodePlanWithReport(record map[string]any, index int, now time.Time) (domain.StudyPlan, []FieldIssue) {
	var d decoder
	plan := d.plan(record, index, now)
	return plan, d.issues
}

func (d *decoder) plan(record map[string]any, index int, now time.Time) domain.StudyPlan {
	var rp rawPlan
	path := fmt.Sprintf("plans[%d]", index)
	d.weak(path, record, &rp)

	plan := domain.StudyPlan{
		ID:             strings.TrimSpace(rp.ID),
		MainTopic:      domain.CoalesceStr(rp.MainTopic, rp.Topic, "Unknown Topic"),
		AvailableHours: domain.CoalesceFloat(rp.AvailableTime, rp.StudyHours),
		Purpose:        domain.Purpose(rp.Purpose),
		CreatedAt:      parseCreatedAt(rp.CreatedAt, now),
		Source:         domain.PlanSource(rp.Source),
	}
	if plan.ID == "" {
		plan.ID = fmt.Sprintf("%d", index+1)
	}
	if plan.AvailableHours < 0 {
		plan.AvailableHours = 0
	}

	plan.Roadmap = d.value(rp.Roadmap, path+".roadmap")
	if len(plan.Roadmap) == 0 {
		plan.Roadmap = d.value(rp.Roadmaps, path+".roadmaps")
	}
	if plan.Roadmap == nil {
		plan.Roadmap = []domain.RoadmapNode{}
	}
	return plan
}

// DecodePlans decodes a JSON array of plan records. Entries that are not
// objects are skipped; a payload that is not an array yields no plans.
func DecodePlans(data []byte, now time.Time) ([]domain.StudyPlan, error) {
	plans, _, err := DecodePlansWithReport(data, now)
	return plans, err
}

// DecodePlansWithReport is DecodePlans that also reports fields that could
// not be coerced.
func DecodePlansWithReport(data []byte, now time.Time) ([]domain.StudyPlan, []FieldIssue, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, nil, fmt.Errorf("decoding plans: %w", err)
	}
	var d decoder
	items, _ := v.([]any)
	plans := make([]domain.StudyPlan, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		plans = append(plans, d.plan(m, i, now))
	}
	return plans, d.issues, nil
}

func parseCreatedAt(s string, now time.Time) time.Time {
	s = strings.TrimSpace(s)
	if s != "" {
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC()
			}
		}
	}
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
