package models

import "time"

// Dialogue lifecycle states.
const (
	DialogueDraft    = "draft"
	DialogueActive   = "active"
	DialogueArchived = "archived"
)

// Node kinds.
const (
	NodeStart    = "start"
	NodeNPCTurn  = "npc-turn"
	NodeDecision = "decision"
	NodeEnd      = "end"
	NodeGroup    = "group"
)

// Dialogue is a named, versioned branching-conversation graph definition.
// Structure is editable while in draft; activation freezes it.
type Dialogue struct {
	ID             string         `bson:"_id,omitempty" json:"id"`
	Name           string         `bson:"name" json:"name"`
	Description    string         `bson:"description" json:"description"`
	OwnerID        string         `bson:"owner_id" json:"owner_id"`
	Public         bool           `bson:"public" json:"public"`
	Status         string         `bson:"status" json:"status"`
	Version        string         `bson:"version" json:"version"`
	Configuration  map[string]any `bson:"configuration,omitempty" json:"configuration,omitempty"`
	ClientMetadata map[string]any `bson:"client_metadata,omitempty" json:"client_metadata,omitempty"`
	CreatedAt      time.Time      `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `bson:"updated_at" json:"updated_at"`
}

// Node is one beat of dialogue or a decision point within a dialogue graph.
type Node struct {
	ID           string         `bson:"_id,omitempty" json:"id"`
	DialogueID   string         `bson:"dialogue_id" json:"dialogue_id"`
	Title        string         `bson:"title" json:"title"`
	Body         string         `bson:"body" json:"body"`
	Kind         string         `bson:"kind" json:"kind"`
	MenuText     string         `bson:"menu_text,omitempty" json:"menu_text,omitempty"`
	SpeakerRole  string         `bson:"speaker_role,omitempty" json:"speaker_role,omitempty"`
	ConversantID string         `bson:"conversant_id,omitempty" json:"conversant_id,omitempty"`
	PositionX    int            `bson:"position_x" json:"position_x"`
	PositionY    int            `bson:"position_y" json:"position_y"`
	IsStart      bool           `bson:"is_start" json:"is_start"`
	IsFinal      bool           `bson:"is_final" json:"is_final"`
	IsActive     bool           `bson:"is_active" json:"is_active"`
	Conditions   []Condition    `bson:"conditions,omitempty" json:"conditions,omitempty"`
	Consequences []Consequence  `bson:"consequences,omitempty" json:"consequences,omitempty"`
	Metadata     map[string]any `bson:"metadata,omitempty" json:"metadata,omitempty"`
}

// Response is a directed edge from one node to another, selectable by a
// participant. DisplayOrder sorts choices; ties keep insertion order.
type Response struct {
	ID                     string         `bson:"_id,omitempty" json:"id"`
	DialogueID             string         `bson:"dialogue_id" json:"dialogue_id"`
	OriginNodeID           string         `bson:"origin_node_id" json:"origin_node_id"`
	TargetNodeID           string         `bson:"target_node_id" json:"target_node_id"`
	Text                   string         `bson:"text" json:"text"`
	DisplayOrder           int            `bson:"display_order" json:"display_order"`
	Color                  string         `bson:"color,omitempty" json:"color,omitempty"`
	Score                  int            `bson:"score" json:"score"`
	RequiresRegisteredUser bool           `bson:"requires_registered_user" json:"requires_registered_user"`
	RequiredRole           string         `bson:"required_role,omitempty" json:"required_role,omitempty"`
	IsDefaultOption        bool           `bson:"is_default_option" json:"is_default_option"`
	Conditions             []Condition    `bson:"conditions,omitempty" json:"conditions,omitempty"`
	Consequences           []Consequence  `bson:"consequences,omitempty" json:"consequences,omitempty"`
	Metadata               map[string]any `bson:"metadata,omitempty" json:"metadata,omitempty"`
}
