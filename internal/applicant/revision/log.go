// Package revision keeps the undo history of applicant edits.
//
// Each record has its own LIFO stack. A single shared stack would let an undo
// on one record restore a snapshot taken from another whenever edits
// interleave, so history is keyed by record id instead.
package revision

import (
	"ktp/internal/applicant/models"
)

type frame struct {
	snapshot models.Snapshot
	next     *frame
}

type stack struct {
	top  *frame
	size int
}

// Log maps record ids to their snapshot stacks. Not safe for concurrent use.
type Log struct {
	stacks map[string]*stack
}

// New returns an empty log.
func New() *Log {
	return &Log{stacks: make(map[string]*stack)}
}

// Push records the state of id before an edit.
func (l *Log) Push(id string, snapshot models.Snapshot) {
	s, ok := l.stacks[id]
	if !ok {
		s = &stack{}
		l.stacks[id] = s
	}
	s.top = &frame{snapshot: snapshot, next: s.top}
	s.size++
}

// Pop removes and returns the most recent snapshot of id.
func (l *Log) Pop(id string) (models.Snapshot, bool) {
	s, ok := l.stacks[id]
	if !ok || s.top == nil {
		return models.Snapshot{}, false
	}
	f := s.top
	s.top = f.next
	s.size--
	if s.size == 0 {
		delete(l.stacks, id)
	}
	return f.snapshot, true
}

// Depth returns how many undos are available for id.
func (l *Log) Depth(id string) int {
	if s, ok := l.stacks[id]; ok {
		return s.size
	}
	return 0
}

// Drop discards the history of id.
func (l *Log) Drop(id string) {
	delete(l.stacks, id)
}
