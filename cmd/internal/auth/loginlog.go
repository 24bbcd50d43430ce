package auth

import (
	"context"
	"encoding/json"
	"time"

	"folio/cmd/internal/docstore"
)

// MaxLoginAttempts bounds the login attempt log; the oldest entry is evicted
// first once the cap is reached.
const MaxLoginAttempts = 100

// Attempt is one recorded login attempt, success or failure.
type Attempt struct {
	Username  string    `json:"username"`
	Success   bool      `json:"success"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"user_agent"`
	Time      time.Time `json:"time"`
}

// AttemptLog is the capacity-bounded, append-only login attempt log.
type AttemptLog struct {
	store docstore.Store
}

// NewAttemptLog wires the log over the document store.
func NewAttemptLog(store docstore.Store) *AttemptLog {
	return &AttemptLog{store: store}
}

func decodeAttempts(raw []byte) []Attempt {
	if len(raw) == 0 {
		return nil
	}
	var logs []Attempt
	if err := json.Unmarshal(raw, &logs); err != nil {
		return nil
	}
	return logs
}

// Append records one attempt, evicting the oldest entry at capacity.
// Exactly one document write per call.
func (l *AttemptLog) Append(ctx context.Context, a Attempt) error {
	err := l.store.Update(ctx, docstore.DocLoginLogs, func(current []byte) ([]byte, error) {
		logs := decodeAttempts(current)
		if len(logs) >= MaxLoginAttempts {
			logs = logs[len(logs)-MaxLoginAttempts+1:]
		}
		logs = append(logs, a)
		return json.MarshalIndent(logs, "", "  ")
	})
	if err != nil {
		return OpError{Op: "auth.loginlog.append", Kind: err}
	}
	return nil
}

// Recent returns up to limit attempts, newest first.
func (l *AttemptLog) Recent(ctx context.Context, limit int) ([]Attempt, error) {
	raw, err := l.store.Read(ctx, docstore.DocLoginLogs)
	if err != nil {
		if docstore.IsNotFound(err) {
			return nil, nil
		}
		return nil, OpError{Op: "auth.loginlog.recent", Kind: err}
	}

	logs := decodeAttempts(raw)
	if limit <= 0 || limit > MaxLoginAttempts {
		limit = MaxLoginAttempts
	}

	out := make([]Attempt, 0, limit)
	for i := len(logs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, logs[i])
	}
	return out, nil
}
