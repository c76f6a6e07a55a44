package highlight

import (
	"sync"

	"github.com/samber/lo"

	"github.com/reinocast/speakersync/internal/speaker"
)

// one entry of the people list
type Item struct {
	Person string
	Active bool
}

// Board is the people list of a page. On a change, exactly the items
// whose person matches the new speaker are active.
type Board struct {
	mu       sync.Mutex
	items    []Item
	onChange func([]Item)
}

type BoardOption func(*Board)

// WithOnChange is called with a snapshot of the items after each change.
func WithOnChange(fn func([]Item)) BoardOption {
	return func(b *Board) {
		b.onChange = fn
	}
}

func NewBoard(people []string, opts ...BoardOption) *Board {
	b := &Board{
		items: lo.Map(people, func(p string, _ int) Item {
			return Item{Person: p}
		}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Board) Notify(change speaker.Change) {
	if !change.Changed {
		return
	}

	b.mu.Lock()
	for i := range b.items {
		b.items[i].Active = change.Current != speaker.None && b.items[i].Person == change.Current
	}
	snapshot := b.snapshot()
	b.mu.Unlock()

	if b.onChange != nil {
		b.onChange(snapshot)
	}
}

func (b *Board) Targets() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

func (b *Board) Items() []Item {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshot()
}

// Active lists the persons currently highlighted.
func (b *Board) Active() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return lo.FilterMap(b.items, func(it Item, _ int) (string, bool) {
		return it.Person, it.Active
	})
}

// caller holds b.mu
func (b *Board) snapshot() []Item {
	out := make([]Item, len(b.items))
	copy(out, b.items)
	return out
}
