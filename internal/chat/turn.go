package chat

import (
	"encoding/json"
	"time"
)

// Role attributes a turn to the visitor or the assistant.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) valid() bool { return r == RoleUser || r == RoleAssistant }

// Turn is one message of the conversation. Turns are never edited once
// appended.
type Turn struct {
	Role      Role
	Content   string
	Timestamp time.Time
}

// storedTurn is the persisted shape: {"role","content","ts"} with ts in
// Unix milliseconds.
type storedTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	TS      int64  `json:"ts"`
}

func (t Turn) MarshalJSON() ([]byte, error) {
	return json.Marshal(storedTurn{Role: t.Role, Content: t.Content, TS: t.Timestamp.UnixMilli()})
}

func (t *Turn) UnmarshalJSON(data []byte) error {
	var s storedTurn
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t.Role = s.Role
	t.Content = s.Content
	t.Timestamp = time.UnixMilli(s.TS)
	return nil
}

// decodeHistory parses a stored history. Entries with an unknown role are
// dropped; malformed JSON returns an error for the caller to swallow.
func decodeHistory(raw string) ([]Turn, error) {
	var turns []Turn
	if err := json.Unmarshal([]byte(raw), &turns); err != nil {
		return nil, err
	}
	out := turns[:0]
	for _, t := range turns {
		if t.Role.valid() {
			out = append(out, t)
		}
	}
	return out, nil
}

// tail returns the last n turns of ts.
func tail(ts []Turn, n int) []Turn {
	if n > 0 && len(ts) > n {
		return ts[len(ts)-n:]
	}
	return ts
}
