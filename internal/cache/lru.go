package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"msgbus/internal/model"
)

// LRU keeps the most recently used orders up to a fixed capacity.
type LRU struct{ c *lru.Cache[string, model.Order] }

var _ Cache = (*LRU)(nil)

func NewLRU(capacity int) *LRU {
	c, err := lru.New[string, model.Order](capacity)
	if err != nil {
		// only possible for capacity <= 0, which New filters out
		panic(err)
	}
	return &LRU{c: c}
}

func (l *LRU) Set(id string, o model.Order) { l.c.Add(id, o) }

func (l *LRU) Get(id string) (model.Order, bool) { return l.c.Get(id) }

func (l *LRU) Range(fn func(string, model.Order) bool) {
	for _, k := range l.c.Keys() {
		if v, ok := l.c.Peek(k); ok {
			if !fn(k, v) {
				return
			}
		}
	}
}
