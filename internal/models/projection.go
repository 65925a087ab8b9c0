package models

// NodeView is the per-turn node snapshot sent to clients. Internal-only
// fields (conditions, consequences, editor position) are deliberately absent.
type NodeView struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	SpeakerRole string `json:"speaker_role,omitempty"`
	IsFinal     bool   `json:"is_final"`
}

// ResponseView is one selectable choice as presented to clients.
type ResponseView struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Color string `json:"color,omitempty"`
	Score int    `json:"score"`
}

// TurnView is the full projection for one turn: the current node plus the
// responses eligible for the requesting participant.
type TurnView struct {
	SessionID string         `json:"session_id"`
	Node      NodeView       `json:"node"`
	Responses []ResponseView `json:"responses"`
}

// ProjectNode builds the client snapshot of a node.
func ProjectNode(n *Node) NodeView {
	return NodeView{
		ID:          n.ID,
		Title:       n.Title,
		Body:        n.Body,
		SpeakerRole: n.SpeakerRole,
		IsFinal:     n.IsFinal,
	}
}

// ProjectResponses builds the client view of an eligible response list,
// preserving order.
func ProjectResponses(responses []*Response) []ResponseView {
	views := make([]ResponseView, 0, len(responses))
	for _, r := range responses {
		views = append(views, ResponseView{
			ID:    r.ID,
			Text:  r.Text,
			Color: r.Color,
			Score: r.Score,
		})
	}
	return views
}
