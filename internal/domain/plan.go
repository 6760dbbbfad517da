package domain

import (
	"time"
)

// PlanSource records where a study plan was first obtained.
type PlanSource string

const (
	SourceRemote PlanSource = "remote"
	SourceLocal  PlanSource = "local"
)

// Purpose is the reason a learner is studying a topic. The backend accepts
// exactly these values and defaults to PurposePersonalInterest.
type Purpose string

const (
	PurposeAcademics        Purpose = "academics"
	PurposeCompetitiveExam  Purpose = "competitive_exam"
	PurposeSkillDevelopment Purpose = "skill_development"
	PurposeCareerChange     Purpose = "career_change"
	PurposePersonalInterest Purpose = "personal_interest"
	PurposeCertification    Purpose = "professional_certification"
	PurposeInterviewPrep    Purpose = "interview_preparation"
	PurposeTeachingPrep     Purpose = "teaching_preparation"
	PurposeResearch         Purpose = "research"
	PurposeOther            Purpose = "other"
)

// Purposes lists every accepted purpose in display order.
var Purposes = []Purpose{
	PurposeAcademics,
	PurposeCompetitiveExam,
	PurposeSkillDevelopment,
	PurposeCareerChange,
	PurposePersonalInterest,
	PurposeCertification,
	PurposeInterviewPrep,
	PurposeTeachingPrep,
	PurposeResearch,
	PurposeOther,
}

// ValidPurpose reports whether p is an accepted purpose value.
func ValidPurpose(p Purpose) bool {
	for _, v := range Purposes {
		if v == p {
			return true
		}
	}
	return false
}

// StudyPlan is one topic a user is studying together with its generated roadmap.
type StudyPlan struct {
	ID             string        `json:"id"`
	MainTopic      string        `json:"main_topic"`
	AvailableHours float64       `json:"available_time"`
	Purpose        Purpose       `json:"purpose_of_study,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	Roadmap        []RoadmapNode `json:"roadmap"`
	Source         PlanSource    `json:"source,omitempty"`
}

// RoadmapNode is one topic of a roadmap tree. Topic and Title are both kept
// because identifier derivation only considers Topic while labels accept either.
type RoadmapNode struct {
	ID               string        `json:"id,omitempty"`
	Topic            string        `json:"topic,omitempty"`
	Title            string        `json:"title,omitempty"`
	EstimatedHours   float64       `json:"estimated_time_hours"`
	EstimatedMinutes int           `json:"estimated_time_minutes,omitempty"`
	Prerequisites    []string      `json:"prerequisites"`
	Subtopics        []RoadmapNode `json:"subtopics,omitempty"`
}
