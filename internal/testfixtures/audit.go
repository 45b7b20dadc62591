package testfixtures

import (
	"context"
	"sync"
)

// AuditEntry is one call recorded by AuditLog.
type AuditEntry struct {
	ActorID    string
	Action     string
	EntityType string
	EntityID   string
	Before     any
	After      any
}

// AuditLog records audit events in memory.
type AuditLog struct {
	mu      sync.Mutex
	entries []AuditEntry
	Err     error
}

func (l *AuditLog) Record(_ context.Context, actorID, action, entityType, entityID, _, _ string, before, after any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Err != nil {
		return l.Err
	}
	l.entries = append(l.entries, AuditEntry{
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Before:     before,
		After:      after,
	})
	return nil
}

func (l *AuditLog) Entries() []AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]AuditEntry(nil), l.entries...)
}

// Actions lists the recorded actions in order.
func (l *AuditLog) Actions() []string {
	var out []string
	for _, e := range l.Entries() {
		out = append(out, e.Action)
	}
	return out
}
