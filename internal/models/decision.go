package models

import "time"

// Evaluation states for a decision.
const (
	EvaluationPending   = "pending"
	EvaluationEvaluated = "evaluated"
)

// DecisionAudio holds capture metadata for an optional audio recording of
// one decision. The service stores only the reference, never audio content.
type DecisionAudio struct {
	Ref             string    `bson:"ref" json:"ref"`
	DurationSeconds float64   `bson:"duration_seconds" json:"duration_seconds"`
	CapturedAt      time.Time `bson:"captured_at" json:"captured_at"`
	Processed       bool      `bson:"processed" json:"processed"`
}

// DecisionEvaluation is the instructor review block. The only part of a
// decision that remains mutable after recording.
type DecisionEvaluation struct {
	Status          string    `bson:"status" json:"status"`
	Grade           int       `bson:"grade" json:"grade"`
	InstructorNotes string    `bson:"instructor_notes,omitempty" json:"instructor_notes,omitempty"`
	Justification   string    `bson:"justification,omitempty" json:"justification,omitempty"`
	Feedback        string    `bson:"feedback,omitempty" json:"feedback,omitempty"`
	EvaluatorUserID string    `bson:"evaluator_user_id,omitempty" json:"evaluator_user_id,omitempty"`
	EvaluatedAt     time.Time `bson:"evaluated_at,omitempty" json:"evaluated_at,omitempty"`
}

// Decision is the immutable audit record of one choice at one node in one
// session. The response text is snapshotted so history survives later edits
// to the response itself.
type Decision struct {
	ID                  string              `bson:"_id,omitempty" json:"id"`
	SessionID           string              `bson:"session_id" json:"session_id"`
	NodeID              string              `bson:"node_id" json:"node_id"`
	ResponseID          string              `bson:"response_id,omitempty" json:"response_id,omitempty"`
	UserID              string              `bson:"user_id,omitempty" json:"user_id,omitempty"`
	RoleID              string              `bson:"role_id,omitempty" json:"role_id,omitempty"`
	ResponseText        string              `bson:"response_text" json:"response_text"`
	Score               int                 `bson:"score" json:"score"`
	ResponseTimeSeconds float64             `bson:"response_time_seconds" json:"response_time_seconds"`
	IsAutomatic         bool                `bson:"is_automatic" json:"is_automatic"`
	WasDefaultOption    bool                `bson:"was_default_option" json:"was_default_option"`
	IsRegisteredUser    bool                `bson:"is_registered_user" json:"is_registered_user"`
	Audio               *DecisionAudio      `bson:"audio,omitempty" json:"audio,omitempty"`
	Evaluation          DecisionEvaluation  `bson:"evaluation" json:"evaluation"`
	RecordedAt          time.Time           `bson:"recorded_at" json:"recorded_at"`
}
