package simulator

import (
	"context"
	"time"

	"github.com/bic-labs/mock-robot-worker/internal/protocol"
)

// fakeContext is a test double for Context: it records log/apply calls,
// never actually sleeps, and resolves FindEntityAt from a preloaded map.
type fakeContext struct {
	entities map[protocol.EntityKind]map[string]entityRecord
	applied  []protocol.EntityUpdate
	logs     []loggedEntry
}

type entityRecord struct {
	id         string
	properties map[string]any
}

type loggedEntry struct {
	code    int
	msg     string
	updates []protocol.EntityUpdate
}

func newFakeContext() *fakeContext {
	return &fakeContext{entities: make(map[protocol.EntityKind]map[string]entityRecord)}
}

func (f *fakeContext) seed(kind protocol.EntityKind, id, location string, extra map[string]any) {
	if f.entities[kind] == nil {
		f.entities[kind] = make(map[string]entityRecord)
	}
	props := map[string]any{"location": location}
	for k, v := range extra {
		props[k] = v
	}
	f.entities[kind][id] = entityRecord{id: id, properties: props}
}

func (f *fakeContext) PublishLog(ctx context.Context, code int, msg string, updates []protocol.EntityUpdate) error {
	f.logs = append(f.logs, loggedEntry{code: code, msg: msg, updates: updates})
	return nil
}

func (f *fakeContext) ApplyUpdates(updates []protocol.EntityUpdate) {
	f.applied = append(f.applied, updates...)
}

func (f *fakeContext) Sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

func (f *fakeContext) FindEntityAt(kind protocol.EntityKind, workstation string) (string, map[string]any, bool) {
	for _, rec := range f.entities[kind] {
		if rec.properties["location"] == workstation {
			return rec.id, rec.properties, true
		}
	}
	return "", nil, false
}
