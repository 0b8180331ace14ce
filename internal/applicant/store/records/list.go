// Package records keeps applicant records in submission order with an id
// index. It is not safe for concurrent use; the applicant service serializes
// access.
package records

import (
	"slices"

	"ktp/internal/applicant/models"
)

// Node is a position in the list. The record it points at is owned by the
// list; other components may hold the pointer but never free it.
type Node struct {
	Record *models.ApplicantRecord
	prev   *Node
	next   *Node
}

// List is a doubly linked list of records indexed by id.
type List struct {
	head  *Node
	tail  *Node
	size  int
	index map[string]*Node
}

// New returns an empty list.
func New() *List {
	return &List{index: make(map[string]*Node)}
}

// Append adds record at the tail. The caller guarantees the id is unused.
func (l *List) Append(record *models.ApplicantRecord) *Node {
	node := &Node{Record: record}
	if l.tail == nil {
		l.head = node
		l.tail = node
	} else {
		node.prev = l.tail
		l.tail.next = node
		l.tail = node
	}
	l.index[record.ID] = node
	l.size++
	return node
}

// Remove unlinks node in constant time.
func (l *List) Remove(node *Node) {
	if node == nil {
		return
	}
	if node.prev != nil {
		node.prev.next = node.next
	}
	if node.next != nil {
		node.next.prev = node.prev
	}
	if node == l.head {
		l.head = node.next
	}
	if node == l.tail {
		l.tail = node.prev
	}
	node.prev, node.next = nil, nil
	delete(l.index, node.Record.ID)
	l.size--
}

// FindByID looks a record up by id.
func (l *List) FindByID(id string) (*Node, bool) {
	node, ok := l.index[id]
	return node, ok
}

// Len returns the number of records.
func (l *List) Len() int {
	return l.size
}

// All returns value copies of every record in insertion order.
func (l *List) All() []models.ApplicantRecord {
	out := make([]models.ApplicantRecord, 0, l.size)
	for n := l.head; n != nil; n = n.next {
		out = append(out, *n.Record)
	}
	return out
}

// Sorted returns a new slice ordered by cmp. Records that compare equal keep
// their insertion order, and the list itself is left untouched.
func (l *List) Sorted(cmp func(a, b models.ApplicantRecord) int) []models.ApplicantRecord {
	out := l.All()
	slices.SortStableFunc(out, cmp)
	return out
}
