package store

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-memory Collection. It keeps documents as marshaled JSON so
// callers never share memory with the store, and enforces the same revision
// compare-and-set contract as the postgres store. Used by tests.
type Memory[T Document] struct {
	mu     sync.RWMutex
	docs   map[string]json.RawMessage
	revs   map[string]int64
	unique []string
}

// NewMemory creates an empty in-memory collection. Any uniqueFields given are
// enforced on insert and update, mirroring a unique index.
func NewMemory[T Document](uniqueFields ...string) *Memory[T] {
	return &Memory[T]{
		docs:   make(map[string]json.RawMessage),
		revs:   make(map[string]int64),
		unique: uniqueFields,
	}
}

var _ Collection[Document] = (*Memory[Document])(nil)

func (m *Memory[T]) Find(_ context.Context, q Query) ([]T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type entry struct {
		id   string
		view map[string]any
	}
	var matched []entry
	for id, raw := range m.docs {
		view, err := decodeView(raw)
		if err != nil {
			return nil, err
		}
		if matches(view, q.Filter) {
			matched = append(matched, entry{id: id, view: view})
		}
	}

	if q.Sort != "" {
		sort.Slice(matched, func(i, j int) bool {
			a, b := matched[i].view[q.Sort], matched[j].view[q.Sort]
			if q.Order == SortDesc {
				a, b = b, a
			}
			if lessValue(a, b) {
				return true
			}
			if lessValue(b, a) {
				return false
			}
			// Tiebreak on id so equal sort keys page deterministically,
			// matching the postgres store's ordering.
			return matched[i].id < matched[j].id
		})
	}

	skip := q.Skip
	if skip > len(matched) {
		skip = len(matched)
	}
	matched = matched[skip:]
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}

	out := make([]T, 0, len(matched))
	for _, e := range matched {
		doc, err := m.decode(e.id)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

func (m *Memory[T]) Count(_ context.Context, f Filter) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var n int64
	for _, raw := range m.docs {
		view, err := decodeView(raw)
		if err != nil {
			return 0, err
		}
		if matches(view, f) {
			n++
		}
	}
	return n, nil
}

func (m *Memory[T]) FindByID(_ context.Context, id string) (T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var zero T
	if _, ok := m.docs[id]; !ok {
		return zero, ErrNoDocument
	}
	return m.decode(id)
}

func (m *Memory[T]) Insert(_ context.Context, doc T) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero T
	meta := doc.DocumentMeta()
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return zero, err
	}
	view, err := decodeView(raw)
	if err != nil {
		return zero, err
	}
	if m.violatesUnique(meta.ID, view) {
		return zero, ErrDuplicate
	}

	m.docs[meta.ID] = raw
	m.revs[meta.ID] = 1
	meta.Rev = 1
	return doc, nil
}

func (m *Memory[T]) UpdateByID(_ context.Context, doc T) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero T
	meta := doc.DocumentMeta()
	rev, ok := m.revs[meta.ID]
	if !ok {
		return zero, ErrNoDocument
	}
	if rev != meta.Rev {
		return zero, ErrRevMismatch
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return zero, err
	}
	view, err := decodeView(raw)
	if err != nil {
		return zero, err
	}
	if m.violatesUnique(meta.ID, view) {
		return zero, ErrDuplicate
	}

	m.docs[meta.ID] = raw
	m.revs[meta.ID] = rev + 1
	meta.Rev = rev + 1
	return doc, nil
}

func (m *Memory[T]) DeleteByID(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[id]; !ok {
		return false, nil
	}
	delete(m.docs, id)
	delete(m.revs, id)
	return true, nil
}

// decode unmarshals the stored document into a fresh instance. Caller holds
// at least a read lock.
func (m *Memory[T]) decode(id string) (T, error) {
	var zero T
	doc := reflect.New(reflect.TypeOf(zero).Elem()).Interface().(T)
	if err := json.Unmarshal(m.docs[id], doc); err != nil {
		return zero, err
	}
	meta := doc.DocumentMeta()
	meta.ID = id
	meta.Rev = m.revs[id]
	return doc, nil
}

// violatesUnique reports whether any other document holds the same value for
// one of the unique fields. Caller holds the write lock.
func (m *Memory[T]) violatesUnique(id string, view map[string]any) bool {
	for _, field := range m.unique {
		value, ok := view[field]
		if !ok || value == nil {
			continue
		}
		for otherID, raw := range m.docs {
			if otherID == id {
				continue
			}
			other, err := decodeView(raw)
			if err != nil {
				continue
			}
			if eqValue(other[field], value) {
				return true
			}
		}
	}
	return false
}

func decodeView(raw json.RawMessage) (map[string]any, error) {
	var view map[string]any
	if err := json.Unmarshal(raw, &view); err != nil {
		return nil, err
	}
	return view, nil
}

// matches evaluates a filter against the JSON view of a document.
func matches(view map[string]any, f Filter) bool {
	for _, c := range f.All {
		if !condMatches(view, c) {
			return false
		}
	}
	if len(f.Any) == 0 {
		return true
	}
	for _, c := range f.Any {
		if condMatches(view, c) {
			return true
		}
	}
	return false
}

func condMatches(view map[string]any, c Cond) bool {
	value, ok := view[c.Field]
	if !ok || value == nil {
		return false
	}

	switch c.Op {
	case OpEq:
		return eqValue(value, c.Value)
	case OpGte:
		a, aok := toFloat(value)
		b, bok := toFloat(c.Value)
		return aok && bok && a >= b
	case OpLte:
		a, aok := toFloat(value)
		b, bok := toFloat(c.Value)
		return aok && bok && a <= b
	case OpContainsFold:
		needle, ok := c.Value.(string)
		if !ok {
			return false
		}
		return containsFold(value, needle)
	default:
		return false
	}
}

func containsFold(value any, needle string) bool {
	needle = strings.ToLower(needle)
	switch v := value.(type) {
	case string:
		return strings.Contains(strings.ToLower(v), needle)
	case []any:
		for _, elem := range v {
			if s, ok := elem.(string); ok && strings.Contains(strings.ToLower(s), needle) {
				return true
			}
		}
	}
	return false
}

func eqValue(a, b any) bool {
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			return af == bf
		}
	}
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return as == bs
		}
	}
	return reflect.DeepEqual(a, b)
}

func lessValue(a, b any) bool {
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			return af < bf
		}
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
