// Package engine computes the set of destination writes needed to make a
// destination calendar mirror a windowed slice of a source calendar. It is
// pure: it never talks to a store, it only decides.
package engine

import (
	"calmirror/internal/model"
	"calmirror/internal/tag"
)

// Create is a pending insert of a new mirrored event.
type Create struct {
	Source     model.SourceEvent
	Projection model.Projection
}

// Update is a pending rewrite of an existing mirrored event.
type Update struct {
	Existing   model.DestinationEvent
	Source     model.SourceEvent
	Projection model.Projection
}

// ActionSet is the authoritative output of a reconcile pass; the caller
// applies it against the destination store.
type ActionSet struct {
	Creates []Create
	Updates []Update
	Deletes []model.DestinationEvent
}

// Counts summarizes a reconcile decision for observability.
type Counts struct {
	Created   int
	Updated   int
	Unchanged int
	Deleted   int
}

// Reconcile compares the source events in the window against the
// previously-synced destination events in the same window and decides,
// per source instance, whether to create, update, or leave alone — and,
// when deletion is enabled, which orphaned mirrored events to remove.
//
// Destination events without a well-formed correlation tag are invisible:
// never indexed, never matched, never deleted. Given the same inputs the
// result is identical run to run, and a run applied cleanly produces an
// empty action set on the next pass.
func Reconcile(src []model.SourceEvent, dst []model.DestinationEvent, opts Options) (ActionSet, Counts) {
	index := buildIndex(dst)
	seen := make(map[string]struct{}, len(src))

	var actions ActionSet
	var counts Counts

	// Source store order is preserved; no re-sorting.
	for _, ev := range src {
		id := InstanceID(ev)
		seen[id] = struct{}{}

		candidate := Project(ev, id, opts)

		existing, ok := index[id]
		if !ok {
			actions.Creates = append(actions.Creates, Create{Source: ev, Projection: candidate})
			counts.Created++
			continue
		}

		if NeedsUpdate(existing, candidate) {
			actions.Updates = append(actions.Updates, Update{Existing: existing, Source: ev, Projection: candidate})
			counts.Updated++
		} else {
			counts.Unchanged++
		}
	}

	if opts.DeleteRemoved {
		// Iterate the destination slice rather than the index so delete
		// order is deterministic.
		for _, ev := range dst {
			id, ok := tag.ExtractInstanceID(ev.Description)
			if !ok {
				continue
			}
			if _, live := seen[id]; live {
				continue
			}
			actions.Deletes = append(actions.Deletes, ev)
			counts.Deleted++
		}
	}

	return actions, counts
}

// buildIndex maps instance id -> destination event for every tagged event.
// Rebuilt from scratch each run; this is the whole sync ledger. On a
// duplicate tag (not expected) the first event in store order wins.
func buildIndex(dst []model.DestinationEvent) map[string]model.DestinationEvent {
	index := make(map[string]model.DestinationEvent, len(dst))
	for _, ev := range dst {
		id, ok := tag.ExtractInstanceID(ev.Description)
		if !ok {
			continue
		}
		if _, dup := index[id]; dup {
			continue
		}
		index[id] = ev
	}
	return index
}
