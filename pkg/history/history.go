// Package history provides the navigation history used by an App.
package history

import (
	"sync"

	"github.com/bloom-go/bloom/pkg/routepath"
)

// History is a navigation stack. Push adds an entry without notifying
// subscribers; Back and Forward move through entries and notify them.
type History interface {
	Location() routepath.Location
	Push(url string)
	Back() bool
	Forward() bool
	Subscribe(fn func(routepath.Location)) (unsubscribe func())
}

// Memory is an in-memory History.
type Memory struct {
	mu      sync.Mutex
	entries []string
	index   int
	subs    map[int]func(routepath.Location)
	nextSub int
}

// NewMemory creates a history whose only entry is initial. An empty
// initial location is "/".
func NewMemory(initial string) *Memory {
	if initial == "" {
		initial = "/"
	}
	return &Memory{entries: []string{initial}, subs: make(map[int]func(routepath.Location))}
}

// Location returns the current entry.
func (m *Memory) Location() routepath.Location {
	m.mu.Lock()
	defer m.mu.Unlock()
	return routepath.ParseLocation(m.entries[m.index])
}

// Push adds an entry after the current one, discarding any forward
// entries.
func (m *Memory) Push(url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries[:m.index+1], url)
	m.index++
}

// Replace overwrites the current entry.
func (m *Memory) Replace(url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[m.index] = url
}

// Back moves to the previous entry and notifies subscribers. It reports
// false at the first entry.
func (m *Memory) Back() bool { return m.move(-1) }

// Forward moves to the next entry and notifies subscribers. It reports
// false at the last entry.
func (m *Memory) Forward() bool { return m.move(1) }

// Len returns the number of entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Memory) move(delta int) bool {
	m.mu.Lock()
	next := m.index + delta
	if next < 0 || next >= len(m.entries) {
		m.mu.Unlock()
		return false
	}
	m.index = next
	loc := routepath.ParseLocation(m.entries[next])
	subs := make([]func(routepath.Location), 0, len(m.subs))
	for i := 0; i < m.nextSub; i++ {
		if fn, ok := m.subs[i]; ok {
			subs = append(subs, fn)
		}
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(loc)
	}
	return true
}

// Subscribe registers fn for Back and Forward notifications.
func (m *Memory) Subscribe(fn func(routepath.Location)) func() {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
		})
	}
}
