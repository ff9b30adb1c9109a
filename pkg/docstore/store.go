// Package docstore implements a hierarchical key-value document store. Data is organised as
// Collection/rowKey/child/... paths; each row is persisted as one JSON document by a pluggable
// backend (memory, PostgreSQL, Redis or MongoDB) and nested paths are edited inside the row.
package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrInvalidPath is returned for malformed paths and for writes aimed at a whole collection.
	ErrInvalidPath = errors.New("docstore: invalid path")
	// ErrNilValue is returned when a value is required but nil was given.
	ErrNilValue = errors.New("docstore: nil value")
)

// Store is the contract consumed by repositories.
type Store interface {
	// Get decodes the subtree at path into dest. found is false when nothing is stored there.
	Get(ctx context.Context, path string, dest interface{}) (found bool, err error)
	// Set replaces the value at path. A nil value deletes it.
	Set(ctx context.Context, path string, value interface{}) error
	// Update merges fields into the object at path. Field keys may be relative child paths; nil removes a child.
	Update(ctx context.Context, path string, fields map[string]interface{}) error
	// Delete removes the value at path.
	Delete(ctx context.Context, path string) error
	// Push stores value under a new time ordered child key of path and returns that key.
	Push(ctx context.Context, path string, value interface{}) (string, error)
	// SetIfAbsent creates the row at path only if it does not exist yet.
	SetIfAbsent(ctx context.Context, path string, value interface{}) (bool, error)
	Close(ctx context.Context) error
}

// backend persists whole rows as raw JSON.
type backend interface {
	name() string
	loadRow(ctx context.Context, collection, key string) ([]byte, bool, error)
	listRows(ctx context.Context, collection string) (map[string][]byte, error)
	saveRow(ctx context.Context, collection, key string, raw []byte) error
	insertRow(ctx context.Context, collection, key string, raw []byte) (bool, error)
	deleteRow(ctx context.Context, collection, key string) error
	close(ctx context.Context) error
}

const lockStripes = 64

// RowStore implements Store over a row backend. Nested writes are read-modify-write cycles on
// the owning row, serialised per row inside this process.
type RowStore struct {
	backend backend
	locks   [lockStripes]sync.Mutex
}

func newRowStore(b backend) *RowStore {
	return &RowStore{backend: b}
}

// Driver names the backend in use.
func (s *RowStore) Driver() string {
	return s.backend.name()
}

// NewPushKey returns a unique key that sorts by creation time.
func NewPushKey() string {
	return uuid.Must(uuid.NewV7()).String()
}

func (s *RowStore) Get(ctx context.Context, rawPath string, dest interface{}) (bool, error) {
	p, err := ParsePath(rawPath)
	if err != nil {
		return false, err
	}

	if p.IsCollection() {
		rows, err := s.backend.listRows(ctx, p.Collection)
		if err != nil {
			return false, fmt.Errorf("list %s: %w", p.Collection, err)
		}
		if len(rows) == 0 {
			return false, nil
		}
		merged := make(map[string]json.RawMessage, len(rows))
		for key, raw := range rows {
			merged[key] = raw
		}
		payload, err := json.Marshal(merged)
		if err != nil {
			return false, fmt.Errorf("encode %s: %w", p.Collection, err)
		}
		return true, decode(payload, dest)
	}

	raw, found, err := s.backend.loadRow(ctx, p.Collection, p.Key)
	if err != nil {
		return false, fmt.Errorf("load %s/%s: %w", p.Collection, p.Key, err)
	}
	if !found {
		return false, nil
	}
	if p.IsRow() {
		return true, decode(raw, dest)
	}

	var tree interface{}
	if err := decode(raw, &tree); err != nil {
		return false, err
	}
	sub, ok := lookup(tree, p.Nested)
	if !ok {
		return false, nil
	}
	payload, err := json.Marshal(sub)
	if err != nil {
		return false, fmt.Errorf("encode %s: %w", p, err)
	}
	return true, decode(payload, dest)
}

func (s *RowStore) Set(ctx context.Context, rawPath string, value interface{}) error {
	p, err := ParsePath(rawPath)
	if err != nil {
		return err
	}
	if p.IsCollection() {
		return fmt.Errorf("%w: cannot set whole collection %s", ErrInvalidPath, p.Collection)
	}

	generic, err := normalise(value)
	if err != nil {
		return err
	}

	if p.IsRow() {
		if generic == nil {
			return s.backend.deleteRow(ctx, p.Collection, p.Key)
		}
		raw, err := json.Marshal(generic)
		if err != nil {
			return fmt.Errorf("encode %s: %w", p, err)
		}
		return s.backend.saveRow(ctx, p.Collection, p.Key, raw)
	}

	return s.mutateRow(ctx, p, func(root map[string]interface{}) {
		if generic == nil {
			deleteIn(root, p.Nested)
			return
		}
		setIn(root, p.Nested, generic)
	})
}

func (s *RowStore) Update(ctx context.Context, rawPath string, fields map[string]interface{}) error {
	p, err := ParsePath(rawPath)
	if err != nil {
		return err
	}
	if p.IsCollection() {
		return fmt.Errorf("%w: cannot update whole collection %s", ErrInvalidPath, p.Collection)
	}
	if len(fields) == 0 {
		return nil
	}

	type change struct {
		rel   []string
		value interface{}
	}
	changes := make([]change, 0, len(fields))
	for key, value := range fields {
		rel, err := ParsePath(key)
		if err != nil {
			return err
		}
		generic, err := normalise(value)
		if err != nil {
			return err
		}
		target := append(append([]string{}, p.Nested...), rel.Segments()...)
		changes = append(changes, change{rel: target, value: generic})
	}

	return s.mutateRow(ctx, p, func(root map[string]interface{}) {
		for _, ch := range changes {
			if ch.value == nil {
				deleteIn(root, ch.rel)
				continue
			}
			setIn(root, ch.rel, ch.value)
		}
	})
}

func (s *RowStore) Delete(ctx context.Context, rawPath string) error {
	p, err := ParsePath(rawPath)
	if err != nil {
		return err
	}
	if p.IsCollection() {
		return fmt.Errorf("%w: cannot delete whole collection %s", ErrInvalidPath, p.Collection)
	}
	if p.IsRow() {
		return s.backend.deleteRow(ctx, p.Collection, p.Key)
	}
	return s.mutateRow(ctx, p, func(root map[string]interface{}) {
		deleteIn(root, p.Nested)
	})
}

func (s *RowStore) Push(ctx context.Context, rawPath string, value interface{}) (string, error) {
	p, err := ParsePath(rawPath)
	if err != nil {
		return "", err
	}
	if value == nil {
		return "", ErrNilValue
	}
	key := NewPushKey()
	child := p.Child(key)
	if child.IsRow() {
		raw, err := json.Marshal(value)
		if err != nil {
			return "", fmt.Errorf("encode %s: %w", child, err)
		}
		inserted, err := s.backend.insertRow(ctx, child.Collection, child.Key, raw)
		if err != nil {
			return "", err
		}
		if !inserted {
			return "", fmt.Errorf("push key collision at %s", child)
		}
		return key, nil
	}
	if err := s.Set(ctx, child.String(), value); err != nil {
		return "", err
	}
	return key, nil
}

func (s *RowStore) SetIfAbsent(ctx context.Context, rawPath string, value interface{}) (bool, error) {
	p, err := ParsePath(rawPath)
	if err != nil {
		return false, err
	}
	if !p.IsRow() {
		return false, fmt.Errorf("%w: conditional create needs a row path, got %s", ErrInvalidPath, p)
	}
	if value == nil {
		return false, ErrNilValue
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("encode %s: %w", p, err)
	}
	return s.backend.insertRow(ctx, p.Collection, p.Key, raw)
}

func (s *RowStore) Close(ctx context.Context) error {
	return s.backend.close(ctx)
}

func (s *RowStore) mutateRow(ctx context.Context, p Path, mutate func(root map[string]interface{})) error {
	lock := s.lockFor(p.Collection, p.Key)
	lock.Lock()
	defer lock.Unlock()

	raw, found, err := s.backend.loadRow(ctx, p.Collection, p.Key)
	if err != nil {
		return fmt.Errorf("load %s/%s: %w", p.Collection, p.Key, err)
	}
	root := map[string]interface{}{}
	if found {
		var current interface{}
		if err := decode(raw, &current); err != nil {
			return err
		}
		if obj, ok := current.(map[string]interface{}); ok {
			root = obj
		}
	}

	mutate(root)

	if len(root) == 0 {
		if !found {
			return nil
		}
		return s.backend.deleteRow(ctx, p.Collection, p.Key)
	}
	payload, err := json.Marshal(root)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", p.Collection, p.Key, err)
	}
	return s.backend.saveRow(ctx, p.Collection, p.Key, payload)
}

func (s *RowStore) lockFor(collection, key string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(collection))
	_, _ = h.Write([]byte{'/'})
	_, _ = h.Write([]byte(key))
	return &s.locks[h.Sum32()%lockStripes]
}

func decode(raw []byte, dest interface{}) error {
	if dest == nil {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(dest); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}

// normalise converts an arbitrary Go value into its generic JSON form. JSON null and empty objects become nil.
func normalise(value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	var generic interface{}
	if err := decode(raw, &generic); err != nil {
		return nil, err
	}
	if obj, ok := generic.(map[string]interface{}); ok && len(obj) == 0 {
		return nil, nil
	}
	return generic, nil
}

func lookup(tree interface{}, segments []string) (interface{}, bool) {
	current := tree
	for _, seg := range segments {
		obj, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = obj[seg]
		if !ok || current == nil {
			return nil, false
		}
	}
	return current, true
}

func setIn(root map[string]interface{}, segments []string, value interface{}) {
	current := root
	for _, seg := range segments[:len(segments)-1] {
		next, ok := current[seg].(map[string]interface{})
		if !ok {
			next = map[string]interface{}{}
			current[seg] = next
		}
		current = next
	}
	current[segments[len(segments)-1]] = value
}

// deleteIn removes the child at segments and prunes parents left empty.
func deleteIn(root map[string]interface{}, segments []string) {
	if len(segments) == 0 {
		return
	}
	head := segments[0]
	if len(segments) == 1 {
		delete(root, head)
		return
	}
	child, ok := root[head].(map[string]interface{})
	if !ok {
		return
	}
	deleteIn(child, segments[1:])
	if len(child) == 0 {
		delete(root, head)
	}
}
