package cache

import "msgbus/internal/model"

type Cache interface {
	Set(id string, o model.Order)
	Get(id string) (model.Order, bool)
	Range(func(string, model.Order) bool)
}

// New returns a bounded LRU cache for a positive capacity and the
// unbounded map cache otherwise.
func New(capacity int) Cache {
	if capacity > 0 {
		return NewLRU(capacity)
	}
	return NewMem()
}
