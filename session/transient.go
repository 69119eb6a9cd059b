package session

import (
	"encoding/json"
	"sync"

	"food-builder/models"
)

// ReorderKey holds the pending reorder payload.
const ReorderKey = "reorder_data"

// Transient is tab-scoped scratch storage. It lives only in memory and every
// value can be taken at most once.
type Transient struct {
	mu     sync.Mutex
	values map[string]string
}

func NewTransient() *Transient {
	return &Transient{values: make(map[string]string)}
}

func (t *Transient) Put(key, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.values[key] = value
}

// Take returns the value for key and removes it.
func (t *Transient) Take(key string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.values[key]
	if ok {
		delete(t.values, key)
	}
	return v, ok
}

func (t *Transient) Has(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.values[key]
	return ok
}

// PutReorder stores a reorder payload, replacing any pending one.
func (t *Transient) PutReorder(p models.ReorderPayload) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	t.Put(ReorderKey, string(b))
	return nil
}

// TakeReorder consumes the pending reorder payload. A payload that does not
// parse is consumed and reported as absent.
func (t *Transient) TakeReorder() (models.ReorderPayload, bool) {
	raw, ok := t.Take(ReorderKey)
	if !ok {
		return models.ReorderPayload{}, false
	}
	var p models.ReorderPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil || p.IngredientIDs == nil {
		return models.ReorderPayload{}, false
	}
	return p, true
}
