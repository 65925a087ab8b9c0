package models

import "time"

// Traversal session lifecycle states.
const (
	SessionCreated  = "created"
	SessionRunning  = "running"
	SessionPaused   = "paused"
	SessionFinished = "finished"
)

// DialogueSession binds one dialogue graph to one simulation run. Mutated
// only through the traversal engine; immutable once finished.
type DialogueSession struct {
	ID             string           `bson:"_id,omitempty" json:"id"`
	SimulationID   string           `bson:"simulation_id" json:"simulation_id"`
	DialogueID     string           `bson:"dialogue_id" json:"dialogue_id"`
	CurrentNodeID  string           `bson:"current_node_id,omitempty" json:"current_node_id,omitempty"`
	Status         string           `bson:"status" json:"status"`
	Variables      map[string]Value `bson:"variables,omitempty" json:"variables,omitempty"`
	VisitedNodeIDs []string         `bson:"visited_node_ids" json:"visited_node_ids"`
	AudioRef       string           `bson:"audio_ref,omitempty" json:"audio_ref,omitempty"`
	AudioEnabled   bool             `bson:"audio_enabled" json:"audio_enabled"`
	StartedAt      time.Time        `bson:"started_at,omitempty" json:"started_at,omitempty"`
	FinishedAt     time.Time        `bson:"finished_at,omitempty" json:"finished_at,omitempty"`
	CreatedAt      time.Time        `bson:"created_at" json:"created_at"`
}

// History returns the ordered sequence of visited node ids. Consecutive
// duplicates appear only when a response targets its own origin.
func (s *DialogueSession) History() []string {
	out := make([]string, len(s.VisitedNodeIDs))
	copy(out, s.VisitedNodeIDs)
	return out
}

// VisitedSet returns the deduplicated set of visited node ids.
func (s *DialogueSession) VisitedSet() map[string]bool {
	set := make(map[string]bool, len(s.VisitedNodeIDs))
	for _, id := range s.VisitedNodeIDs {
		set[id] = true
	}
	return set
}
