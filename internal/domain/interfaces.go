package domain

// ─── Collaborator Interfaces ────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; the engine depends on them.

// StateStore persists the full engine record as one atomic unit.
// Save either lands the whole record or fails without partial effect;
// the engine treats any Save error as fatal for the current call.
type StateStore interface {
	// Load returns the stored record, or a fresh empty record if the
	// namespace has never been saved.
	Load() (*State, error)

	// Save replaces the stored record.
	Save(*State) error
}

// Notice is an achievement ping emitted by the engine after a successful
// append. Each kind fires at most once per account lifetime.
type Notice struct {
	Kind    string `json:"kind"` // NoticeFirstPoint or NoticeSignupBonus
	Message string `json:"message"`
	Balance int64  `json:"balance"`
}

// Notice kinds.
const (
	NoticeFirstPoint  = "first_point"
	NoticeSignupBonus = "signup_bonus"
)
