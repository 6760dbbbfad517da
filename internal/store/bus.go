package store

import (
	"sync"

	"github.com/alexanderramin/studymap/internal/domain"
)

// Event is a change notification published by the ProgressStore.
type Event interface {
	EventName() string
}

// StudyPlansUpdated carries the local plan list after a change.
type StudyPlansUpdated struct {
	Plans []domain.StudyPlan
}

func (StudyPlansUpdated) EventName() string { return "studyPlansUpdated" }

// ProgressUpdated reports a status change for one node, or a reset of the
// whole plan when Reset is set.
type ProgressUpdated struct {
	PlanID string
	NodeID string
	Topic  string
	Status domain.NodeStatus
	Reset  bool
}

func (ProgressUpdated) EventName() string { return "progressUpdated" }

// Listener receives published events.
type Listener func(Event)

type subscription struct {
	id uint64
	fn Listener
}

// Bus fans events out to listeners synchronously, in registration order,
// on the publishing goroutine.
type Bus struct {
	mu     sync.Mutex
	nextID uint64
	subs   []subscription
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers fn and returns a function that removes it. Calling
// the returned function more than once is harmless.
func (b *Bus) Subscribe(fn Listener) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

// On subscribes to a single event type.
func On[E Event](b *Bus, fn func(E)) func() {
	return b.Subscribe(func(ev Event) {
		if e, ok := ev.(E); ok {
			fn(e)
		}
	})
}

// Publish delivers ev to the listeners registered at the time of the call.
// Listeners run outside the bus lock and may subscribe or unsubscribe.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	snapshot := make([]subscription, len(b.subs))
	copy(snapshot, b.subs)
	b.mu.Unlock()

	for _, s := range snapshot {
		s.fn(ev)
	}
}

// Len returns the number of registered listeners.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}
