package automation

import "sync"

// recorder collects action log entries.
type recorder struct {
	mu      sync.Mutex
	entries []map[string]interface{}
	actions []string
}

func (r *recorder) Log(action string, details map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, action)
	r.entries = append(r.entries, details)
}
