// Package models defines the core data structures for the transformator bot.
//
// It includes the question catalog types, the per-chat session record, and the
// analysis shapes shared across modules.
package models

import (
	"errors"
	"time"
)

// Error variables for better error handling and testability
var (
	ErrQuestionNotFound = errors.New("question not found in catalog")
	ErrOptionNotFound   = errors.New("option not found for question")
	ErrEmptyChatID      = errors.New("chat id cannot be zero")
)

// Option is a selectable answer for a choice question.
type Option struct {
	Key              string `json:"key"`  // unique within the parent question
	Text             string `json:"text"` // button label shown to the user
	RequiresFreeText bool   `json:"requires_free_text,omitempty"`
}

// Question is one immutable entry of the diagnostic catalog.
type Question struct {
	ID          string   `json:"id"`
	Text        string   `json:"text"`    // display prompt, may embed markdown
	Section     string   `json:"section"` // "business" or "readiness"
	Options     []Option `json:"options,omitempty"`
	MultiSelect bool     `json:"multi_select,omitempty"`
	ExpectsText bool     `json:"expects_text,omitempty"`
}

// QAPair is one exported question/answer row with markdown stripped from the
// question text.
type QAPair struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Analysis is the fixed-shape recommendation record produced by the analysis
// collaborator. Every field is always present; a failed analysis yields the
// all-empty default from EmptyAnalysis.
type Analysis struct {
	BusinessSummary   string   `json:"business_summary"`
	PriorityProcesses []string `json:"priority_processes"`
	AIOpportunities   []string `json:"ai_opportunities"`
	QuickWins         []string `json:"quick_wins"`
	LongTerm          []string `json:"long_term"`
	NextSteps         []string `json:"next_steps"`
	RecommendedTools  []string `json:"recommended_tools"`
	GPTPrompts        []string `json:"gpt_prompts"`
}

// EmptyAnalysis returns a structurally complete analysis with all fields empty.
func EmptyAnalysis() *Analysis {
	return &Analysis{
		PriorityProcesses: []string{},
		AIOpportunities:   []string{},
		QuickWins:         []string{},
		LongTerm:          []string{},
		NextSteps:         []string{},
		RecommendedTools:  []string{},
		GPTPrompts:        []string{},
	}
}

// AnalysisPayload is the structured input handed to the analysis collaborator.
type AnalysisPayload struct {
	SkillLevel    string            `json:"skill_level"`
	SkillLevelKey string            `json:"skill_level_key"`
	Answers       []QAPair          `json:"answers"`
	AnswersByID   map[string]string `json:"answers_by_id"`
}

// UserMetadata identifies the requesting user for report and export rows.
type UserMetadata struct {
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	Timestamp time.Time `json:"timestamp"`
}
