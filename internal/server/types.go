// Package server implements the demo HTTP surface around the access
// package: CRUD over rule-source entries backed by the store package, and
// a /decide subtree exercising the engine's four decision operations. It
// is illustrative scaffolding for spec.md's "surrounding server", not a
// full directory query server.
package server

import (
	"encoding/json"
	"fmt"

	"github.com/nexusdirectory/accessd/internal/access"
)

// entryDTO is the wire shape of an access.Entry: its uuid and attribute
// map. Decoding builds a *valid* Entry via access.NewValidEntry — this
// package stands in for the schema/validation subsystem for demo
// purposes, it does not perform real schema checks.
type entryDTO struct {
	UUID  string              `json:"uuid"`
	Attrs map[string][]string `json:"attrs"`
}

func (d entryDTO) toEntry() (access.Entry, error) {
	return access.NewValidEntry(d.UUID, d.Attrs)
}

func fromEntry(e access.Entry) entryDTO {
	return entryDTO{UUID: e.UUID(), Attrs: e.Attrs()}
}

func fromEntries(entries []access.Entry) []entryDTO {
	out := make([]entryDTO, len(entries))
	for i, e := range entries {
		out[i] = fromEntry(e)
	}
	return out
}

func toEntries(dtos []entryDTO) ([]access.Entry, error) {
	out := make([]access.Entry, len(dtos))
	for i, d := range dtos {
		e, err := d.toEntry()
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		out[i] = e
	}
	return out, nil
}

// eventDTO is the wire shape of an access.Event: "internal" or "user",
// with the caller's own entry required for the latter.
type eventDTO struct {
	Origin string    `json:"origin"`
	Caller *entryDTO `json:"caller,omitempty"`
}

func (d eventDTO) toEvent() (access.Event, error) {
	switch d.Origin {
	case "internal":
		return access.InternalEvent(), nil
	case "user":
		if d.Caller == nil {
			return access.Event{}, fmt.Errorf("user-origin event requires a caller entry")
		}
		caller, err := d.Caller.toEntry()
		if err != nil {
			return access.Event{}, fmt.Errorf("caller entry: %w", err)
		}
		return access.UserEvent(caller), nil
	default:
		return access.Event{}, fmt.Errorf("unknown event origin %q, want \"internal\" or \"user\"", d.Origin)
	}
}

// searchRequest is the body of POST /decide/search and
// POST /decide/search/attributes.
type searchRequest struct {
	Event         eventDTO        `json:"event"`
	RequestFilter json.RawMessage `json:"requestFilter"`
	Candidates    []entryDTO      `json:"candidates"`
}

func (r searchRequest) parse() (access.SearchEvent, []access.Entry, error) {
	ev, err := r.Event.toEvent()
	if err != nil {
		return access.SearchEvent{}, nil, err
	}
	f, err := access.ParseFilterJSON(r.RequestFilter)
	if err != nil {
		return access.SearchEvent{}, nil, err
	}
	candidates, err := toEntries(r.Candidates)
	if err != nil {
		return access.SearchEvent{}, nil, err
	}
	return access.SearchEvent{Event: ev, RequestFilter: f}, candidates, nil
}

// modOpDTO is the wire shape of a single access.ModOp.
type modOpDTO struct {
	Kind  string `json:"kind"`
	Attr  string `json:"attr"`
	Value string `json:"value,omitempty"`
}

func (d modOpDTO) toModOp() (access.ModOp, error) {
	switch d.Kind {
	case "present":
		return access.Present(d.Attr, d.Value), nil
	case "removed":
		return access.Removed(d.Attr, d.Value), nil
	case "purged":
		return access.Purged(d.Attr), nil
	default:
		return access.ModOp{}, fmt.Errorf("unknown mod op kind %q, want present/removed/purged", d.Kind)
	}
}

// modifyRequest is the body of POST /decide/modify.
type modifyRequest struct {
	Event   eventDTO   `json:"event"`
	Mods    []modOpDTO `json:"mods"`
	Targets []entryDTO `json:"targets"`
}

func (r modifyRequest) parse() (access.ModifyEvent, []access.Entry, error) {
	ev, err := r.Event.toEvent()
	if err != nil {
		return access.ModifyEvent{}, nil, err
	}
	mods := make(access.ModList, len(r.Mods))
	for i, m := range r.Mods {
		op, err := m.toModOp()
		if err != nil {
			return access.ModifyEvent{}, nil, fmt.Errorf("mods[%d]: %w", i, err)
		}
		mods[i] = op
	}
	targets, err := toEntries(r.Targets)
	if err != nil {
		return access.ModifyEvent{}, nil, err
	}
	return access.ModifyEvent{Event: ev, Mods: mods}, targets, nil
}

// entriesRequest is the shared body shape of POST /decide/create and
// POST /decide/delete: an event plus the entries being acted on.
type entriesRequest struct {
	Event   eventDTO   `json:"event"`
	Entries []entryDTO `json:"entries"`
}

func (r entriesRequest) parse() (access.Event, []access.Entry, error) {
	ev, err := r.Event.toEvent()
	if err != nil {
		return access.Event{}, nil, err
	}
	entries, err := toEntries(r.Entries)
	if err != nil {
		return access.Event{}, nil, err
	}
	return ev, entries, nil
}

// decisionResponse is the body of a create/modify/delete decision.
type decisionResponse struct {
	Allowed bool `json:"allowed"`
}

func createEventOf(ev access.Event) access.CreateEvent { return access.CreateEvent{Event: ev} }
func deleteEventOf(ev access.Event) access.DeleteEvent { return access.DeleteEvent{Event: ev} }
