// Package queue is the FIFO of applications waiting for verification. It
// holds non-owning references into the record list, so a status change made
// through either view is visible through the other.
package queue

import (
	"ktp/internal/applicant/models"
)

type element struct {
	record *models.ApplicantRecord
	next   *element
}

// Queue is a singly linked FIFO. Not safe for concurrent use.
type Queue struct {
	head *element
	tail *element
	size int
}

// New returns an empty queue.
func New() *Queue {
	return &Queue{}
}

// Enqueue appends record to the tail.
func (q *Queue) Enqueue(record *models.ApplicantRecord) {
	e := &element{record: record}
	if q.tail == nil {
		q.head = e
	} else {
		q.tail.next = e
	}
	q.tail = e
	q.size++
}

// Dequeue removes and returns the head.
func (q *Queue) Dequeue() (*models.ApplicantRecord, bool) {
	if q.head == nil {
		return nil, false
	}
	e := q.head
	q.head = e.next
	if q.head == nil {
		q.tail = nil
	}
	q.size--
	return e.record, true
}

// Len returns the number of waiting records.
func (q *Queue) Len() int {
	return q.size
}

// Pending returns value copies of the waiting records, head first.
func (q *Queue) Pending() []models.ApplicantRecord {
	out := make([]models.ApplicantRecord, 0, q.size)
	for e := q.head; e != nil; e = e.next {
		out = append(out, *e.record)
	}
	return out
}
