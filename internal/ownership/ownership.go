package ownership

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/DoyleJ11/siege-picker/internal/kv"
)

var ErrInvalidFormat = errors.New("invalid ownership format: want a JSON array of operator ids")

const storageKey = "ownedOperators"

// Store tracks which operator ids a profile owns. Every mutation is written
// to the backing kv.Store before it becomes visible, so a failed write leaves
// the previous set in place.
type Store struct {
	mu    sync.Mutex
	kv    kv.Store
	key   string
	owned map[string]struct{}
}

// Open loads the persisted set for profile. A missing key means nothing is
// owned yet.
func Open(ctx context.Context, backend kv.Store, profile string) (*Store, error) {
	s := &Store{
		kv:    backend,
		key:   kv.ProfileKey(profile, storageKey),
		owned: map[string]struct{}{},
	}

	raw, err := backend.Get(ctx, s.key)
	if errors.Is(err, kv.ErrNotFound) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load owned operators: %w", err)
	}

	ids, err := decode(raw)
	if err != nil {
		return nil, fmt.Errorf("load owned operators: %w", err)
	}
	s.owned = toSet(ids)
	return s, nil
}

func (s *Store) IsOwned(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.owned[id]
	return ok
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.owned)
}

func (s *Store) Add(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.owned[id]; ok {
		return nil
	}
	next := s.clone()
	next[id] = struct{}{}
	return s.commit(ctx, next)
}

func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.owned[id]; !ok {
		return nil
	}
	next := s.clone()
	delete(next, id)
	return s.commit(ctx, next)
}

// Toggle flips ownership of id and reports whether it is now owned.
func (s *Store) Toggle(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.clone()
	_, owned := next[id]
	if owned {
		delete(next, id)
	} else {
		next[id] = struct{}{}
	}
	if err := s.commit(ctx, next); err != nil {
		return owned, err
	}
	return !owned, nil
}

// SetAll replaces the whole set. Ids are not checked against any catalog.
func (s *Store) SetAll(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(ctx, toSet(ids))
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(ctx, map[string]struct{}{})
}

// Export returns the owned ids in ascending order, each once.
func (s *Store) Export() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sorted(s.owned)
}

func (s *Store) ExportJSON() ([]byte, error) {
	return json.Marshal(s.Export())
}

// Import replaces the set with a JSON array of ids. Anything else fails with
// ErrInvalidFormat and leaves the current set untouched.
func (s *Store) Import(ctx context.Context, payload []byte) error {
	ids, err := decode(payload)
	if err != nil {
		return err
	}
	return s.SetAll(ctx, ids)
}

// commit persists next and only then swaps it in. Callers hold s.mu.
func (s *Store) commit(ctx context.Context, next map[string]struct{}) error {
	body, err := json.Marshal(sorted(next))
	if err != nil {
		return err
	}
	if err := s.kv.Put(ctx, s.key, body); err != nil {
		return fmt.Errorf("persist owned operators: %w", err)
	}
	s.owned = next
	return nil
}

func (s *Store) clone() map[string]struct{} {
	next := make(map[string]struct{}, len(s.owned)+1)
	for id := range s.owned {
		next[id] = struct{}{}
	}
	return next
}

func decode(payload []byte) ([]string, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(payload, &elems); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if elems == nil {
		// "null" decodes without error but is not an array
		return nil, ErrInvalidFormat
	}

	ids := make([]string, len(elems))
	for i, e := range elems {
		e = bytes.TrimSpace(e)
		// null would silently decode to "" otherwise
		if len(e) == 0 || e[0] != '"' {
			return nil, fmt.Errorf("%w: element %d is not a string", ErrInvalidFormat, i)
		}
		if err := json.Unmarshal(e, &ids[i]); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
	}
	return ids, nil
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func sorted(set map[string]struct{}) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
