// Package worldmodel holds the in-memory model of the physical world the
// dispatch pipeline validates commands against and simulators update.
package worldmodel

import (
	"sync"

	"github.com/bic-labs/mock-robot-worker/internal/protocol"
)

type key struct {
	kind protocol.EntityKind
	id   string
}

// World is a concurrent keyed store of entity records. There are no
// per-entity locks; every operation serializes under a single mutex, per the
// single-lock-no-read-without-it invariant.
type World struct {
	mu       sync.Mutex
	entities map[key]map[string]any
}

// New returns an empty World.
func New() *World {
	return &World{entities: make(map[key]map[string]any)}
}

// Upsert merges properties into the entity at (kind, id), creating it if
// absent. Merge never deletes a property: only the keys properties carries
// are overwritten.
func (w *World) Upsert(kind protocol.EntityKind, id string, properties map[string]any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.mergeLocked(kind, id, properties)
}

func (w *World) mergeLocked(kind protocol.EntityKind, id string, properties map[string]any) {
	k := key{kind, id}
	existing, ok := w.entities[k]
	if !ok {
		existing = make(map[string]any, len(properties))
		w.entities[k] = existing
	}
	for field, value := range properties {
		existing[field] = value
	}
}

// ApplyUpdates merges every update in the batch atomically: either all
// updates land under one lock acquisition, or none do if the caller never
// calls it (there is no partial-failure path — updates cannot themselves
// fail).
func (w *World) ApplyUpdates(updates []protocol.EntityUpdate) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, u := range updates {
		w.mergeLocked(u.Kind, u.ID, u.Properties)
	}
}

// Get returns a copy of the entity's current properties and whether it
// exists.
func (w *World) Get(kind protocol.EntityKind, id string) (map[string]any, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	existing, ok := w.entities[key{kind, id}]
	if !ok {
		return nil, false
	}
	return copyProps(existing), true
}

// FindByLocation returns the first entity of kind whose "location" property
// equals workstation. Only entities of kind can match, but the store has no
// per-kind index: the scan walks every entity and skips the other kinds.
// Iteration order over a Go map is unspecified and varies between calls, so
// when more than one entity of the same kind shares a location the match is
// arbitrary and may differ from one call to the next.
func (w *World) FindByLocation(kind protocol.EntityKind, workstation string) (id string, properties map[string]any, found bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for k, props := range w.entities {
		if k.kind != kind {
			continue
		}
		if loc, _ := props["location"].(string); loc == workstation {
			return k.id, copyProps(props), true
		}
	}
	return "", nil, false
}

// SnapshotRobotState returns the robot's current state field, or
// protocol.RobotDisconnected if the robot has never been updated.
func (w *World) SnapshotRobotState(robotID string) protocol.RobotState {
	w.mu.Lock()
	defer w.mu.Unlock()
	props, ok := w.entities[key{protocol.KindRobot, robotID}]
	if !ok {
		return protocol.RobotDisconnected
	}
	s, _ := props["state"].(string)
	if s == "" {
		return protocol.RobotDisconnected
	}
	return protocol.RobotState(s)
}

// Snapshot returns every tracked entity as an EntityUpdate, for the
// dashboard's read-only view of the world. It is never used by the
// dispatch pipeline itself, only by the observational surface.
func (w *World) Snapshot() []protocol.EntityUpdate {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]protocol.EntityUpdate, 0, len(w.entities))
	for k, props := range w.entities {
		out = append(out, protocol.EntityUpdate{Kind: k.kind, ID: k.id, Properties: copyProps(props)})
	}
	return out
}

// Reset empties the store in one step.
func (w *World) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entities = make(map[key]map[string]any)
}

func copyProps(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
