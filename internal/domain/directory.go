package domain

import (
	"encoding/json"
	"fmt"
)

// LinkState is the lifecycle state of an entry inside an editing session.
// Removal only happens on Commit.
type LinkState string

const (
	LinkActive        LinkState = "active"
	LinkPendingDelete LinkState = "pending_delete"
)

// LinkEntry is one platform link owned by one section of one directory.
type LinkEntry struct {
	PlatformID string
	RawValue   string
	Link       string
	State      LinkState
}

// PlatformFinder is the read side of the platform registry.
type PlatformFinder interface {
	Find(id string) (Platform, bool)
}

type undoKey struct {
	section    Category
	platformID string
}

// Directory is a user's categorized, ordered set of links together with the
// undo buffer of the current editing session.
//
// A Directory is not safe for concurrent use; edits are single-writer per
// session and Commit replaces the stored document as a whole.
type Directory struct {
	platforms PlatformFinder
	sections  map[Category][]LinkEntry
	undo      map[undoKey]LinkEntry
}

// NewDirectory returns an empty directory with all eight sections.
func NewDirectory(platforms PlatformFinder) *Directory {
	d := &Directory{
		platforms: platforms,
		sections:  make(map[Category][]LinkEntry, len(Categories)),
		undo:      make(map[undoKey]LinkEntry),
	}
	for _, c := range Categories {
		d.sections[c] = nil
	}
	return d
}

// AddOrReplace normalizes raw for platformID and stores it in section.
// A new key is appended; an existing key keeps its position. When section is
// empty the platform's own category is used. Validation failures leave the
// directory untouched.
func (d *Directory) AddOrReplace(section Category, platformID, raw string) (LinkEntry, error) {
	p, ok := d.platforms.Find(platformID)
	if !ok {
		return LinkEntry{}, fmt.Errorf("%w: %s", ErrUnknownPlatform, platformID)
	}
	if section == "" {
		section = p.Category
	}
	if _, ok := d.sections[section]; !ok {
		return LinkEntry{}, fmt.Errorf("%w: %s", ErrUnknownSection, section)
	}

	link, err := Normalize(p, raw)
	if err != nil {
		return LinkEntry{}, err
	}

	entry := LinkEntry{
		PlatformID: platformID,
		RawValue:   raw,
		Link:       link,
		State:      LinkActive,
	}
	d.put(section, entry)
	delete(d.undo, undoKey{section, platformID})

	return entry, nil
}

// put overwrites in place or appends.
func (d *Directory) put(section Category, entry LinkEntry) {
	entries := d.sections[section]
	if i := indexOf(entries, entry.PlatformID); i >= 0 {
		entries[i] = entry
		return
	}
	d.sections[section] = append(entries, entry)
}

// MarkPendingDelete moves the entry's value into the undo buffer and leaves an
// inert placeholder under the same key. Marking an already pending entry is a
// no-op so the buffered value is never lost.
func (d *Directory) MarkPendingDelete(section Category, platformID string) error {
	entries, ok := d.sections[section]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSection, section)
	}
	i := indexOf(entries, platformID)
	if i < 0 {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, section, platformID)
	}
	if entries[i].State == LinkPendingDelete {
		return nil
	}

	d.undo[undoKey{section, platformID}] = entries[i]
	entries[i] = LinkEntry{PlatformID: platformID, State: LinkPendingDelete}
	return nil
}

// Undo restores a pending delete from the undo buffer. Without a buffered
// value the key is removed outright.
func (d *Directory) Undo(section Category, platformID string) error {
	entries, ok := d.sections[section]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSection, section)
	}

	key := undoKey{section, platformID}
	prev, buffered := d.undo[key]
	delete(d.undo, key)

	i := indexOf(entries, platformID)
	if !buffered {
		if i >= 0 {
			d.sections[section] = append(entries[:i], entries[i+1:]...)
		}
		return nil
	}

	prev.State = LinkActive
	if i >= 0 {
		entries[i] = prev
		return nil
	}
	d.sections[section] = append(entries, prev)
	return nil
}

// Move relocates key from src to dst, inserting it before beforeKey. An empty
// or absent beforeKey appends. Raw value and link are carried unchanged.
func (d *Directory) Move(src Category, key string, dst Category, beforeKey string) error {
	from, ok := d.sections[src]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSection, src)
	}
	if _, ok := d.sections[dst]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSection, dst)
	}
	i := indexOf(from, key)
	if i < 0 {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, src, key)
	}

	moved := from[i]
	d.sections[src] = append(from[:i:i], from[i+1:]...)

	if src != dst {
		// the moved entry replaces whatever dst held under key, buffer included
		delete(d.undo, undoKey{dst, key})
		if buffered, ok := d.undo[undoKey{src, key}]; ok {
			delete(d.undo, undoKey{src, key})
			d.undo[undoKey{dst, key}] = buffered
		}
	}

	to := d.sections[dst]
	if j := indexOf(to, key); j >= 0 {
		to = append(to[:j:j], to[j+1:]...)
	}

	at := len(to)
	if beforeKey != "" && beforeKey != key {
		if j := indexOf(to, beforeKey); j >= 0 {
			at = j
		}
	}

	out := make([]LinkEntry, 0, len(to)+1)
	out = append(out, to[:at]...)
	out = append(out, moved)
	out = append(out, to[at:]...)
	d.sections[dst] = out

	return nil
}

// Commit physically removes pending deletes and empty links, clears the undo
// buffer and returns the persisted form. Calling it twice without edits in
// between yields the same snapshot.
func (d *Directory) Commit() Snapshot {
	for _, c := range Categories {
		kept := d.sections[c][:0]
		for _, e := range d.sections[c] {
			if e.State == LinkPendingDelete || e.Link == "" {
				continue
			}
			kept = append(kept, e)
		}
		d.sections[c] = kept
	}
	d.undo = make(map[undoKey]LinkEntry)

	return d.snapshot()
}

func (d *Directory) snapshot() Snapshot {
	s := make(Snapshot, len(Categories))
	for _, c := range Categories {
		links := make([]Link, 0, len(d.sections[c]))
		for _, e := range d.sections[c] {
			if e.State != LinkActive || e.Link == "" {
				continue
			}
			links = append(links, Link{Platform: e.PlatformID, Value: e.RawValue, Link: e.Link})
		}
		s[c] = links
	}
	return s
}

// Entries returns a copy of a section, pending deletes included.
func (d *Directory) Entries(section Category) []LinkEntry {
	return append([]LinkEntry(nil), d.sections[section]...)
}

// Keys returns the platform ids of a section in order.
func (d *Directory) Keys(section Category) []string {
	keys := make([]string, 0, len(d.sections[section]))
	for _, e := range d.sections[section] {
		keys = append(keys, e.PlatformID)
	}
	return keys
}

// Lookup finds an entry by key.
func (d *Directory) Lookup(section Category, platformID string) (LinkEntry, bool) {
	entries := d.sections[section]
	if i := indexOf(entries, platformID); i >= 0 {
		return entries[i], true
	}
	return LinkEntry{}, false
}

// Pending reports how many entries are awaiting deletion.
func (d *Directory) Pending() int {
	return len(d.undo)
}

func indexOf(entries []LinkEntry, platformID string) int {
	for i := range entries {
		if entries[i].PlatformID == platformID {
			return i
		}
	}
	return -1
}

// Link is a committed, renderable directory entry.
type Link struct {
	Platform string `json:"platform"`
	Value    string `json:"value"`
	Link     string `json:"link"`
}

// Snapshot is the committed directory handed to storage and rendering. It
// never contains pending deletes or empty links.
type Snapshot map[Category][]Link

// MarshalJSON always emits all eight sections, empty ones as [].
func (s Snapshot) MarshalJSON() ([]byte, error) {
	out := make(map[Category][]Link, len(Categories))
	for _, c := range Categories {
		links := s[c]
		if links == nil {
			links = []Link{}
		}
		out[c] = links
	}
	return json.Marshal(out)
}

// Len counts links across sections.
func (s Snapshot) Len() int {
	n := 0
	for _, links := range s {
		n += len(links)
	}
	return n
}
