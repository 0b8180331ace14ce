package service

import (
	"strconv"
	"strings"
	"time"
)

// idGenerator builds "<region>-<unix millis>" identifiers. Two submissions in
// the same millisecond would collide, so the millisecond part never repeats
// within a process: it advances past the last value handed out and past any
// id already present.
type idGenerator struct {
	last int64
}

func (g *idGenerator) next(region string, now time.Time, taken func(string) bool) string {
	ms := now.UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	for {
		id := region + "-" + strconv.FormatInt(ms, 10)
		if !taken(id) {
			g.last = ms
			return id
		}
		ms++
	}
}

// observe keeps loaded ids from being handed out again.
func (g *idGenerator) observe(id string) {
	idx := strings.LastIndexByte(id, '-')
	if idx < 0 {
		return
	}
	if ms, err := strconv.ParseInt(id[idx+1:], 10, 64); err == nil && ms > g.last {
		g.last = ms
	}
}
