package domain

type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	CreatedAt    string `json:"created_at" format:"date-time"`
}

// Generation is one persisted audit record of a successful content
// transformation. Records are created and deleted, never updated.
type Generation struct {
	ID            string `json:"id"`
	UserID        string `json:"user_id"`
	InputContent  string `json:"input_content"`
	OutputContent string `json:"output_content"`
	Type          string `json:"type"`
	Tone          string `json:"tone"`
	CreatedAt     string `json:"created_at" format:"date-time"`
}

type Image struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Prompt    string `json:"prompt"`
	ImageURL  string `json:"image_url"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type APIKey struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"key_hash"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	UserID     string `json:"user_id"`
	Payload    string `json:"payload_json"`
}

// ResumeReport is the structured output of the resume-score action.
type ResumeReport struct {
	Score           int      `json:"score"`
	MatchPercentage int      `json:"match_percentage"`
	Strengths       []string `json:"strengths"`
	Weaknesses      []string `json:"weaknesses"`
	Improvements    []string `json:"improvements"`
	ATSTips         []string `json:"ats_tips"`
}
