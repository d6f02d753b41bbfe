package journal

// Broadcast statuses.
const (
	StatusPending = "pending"
	StatusOK      = "ok"
	StatusError   = "error"
)

// Commit sources.
const (
	ViaReducer  = "reducer"
	ViaSetState = "set_state"
)

// Broadcast is one journaled broadcast.
type Broadcast struct {
	ID             string `json:"id"`
	Seq            int64  `json:"seq"`
	ActionType     string `json:"action_type"`
	Payload        string `json:"payload"` // canonical JSON
	Status         string `json:"status"`
	Error          string `json:"error,omitempty"`
	EngineVersion  string `json:"engine_version"`
	JournalVersion string `json:"journal_version"`
}

// Commit is one journaled store commit. BroadcastID is empty for commits
// made with SetState outside a broadcast.
type Commit struct {
	BroadcastID string `json:"broadcast_id,omitempty"`
	Seq         int64  `json:"seq"`
	Store       string `json:"store"`
	State       string `json:"state"` // canonical JSON
	StateHash   string `json:"state_hash"`
	Via         string `json:"via"`
}
