// Package memory provides an in-process object store for tests and
// single-process deployments.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/xraph/edition"
	"github.com/xraph/edition/object"
	editionstore "github.com/xraph/edition/store"
	"github.com/xraph/edition/types"
)

// Compile-time interface check.
var _ editionstore.Store = (*Store)(nil)

type entry struct {
	obj *object.Object
	seq uint64
}

// Store keeps unspent objects in maps guarded by one mutex. A commit holds
// the write lock for its whole validate-and-apply step.
type Store struct {
	mu sync.RWMutex

	objects   map[object.Ref]entry
	byUnit    map[types.Unit]map[object.Ref]struct{}
	byAddress map[types.Address]map[object.Ref]struct{}
	commits   map[object.CommitID]struct{}

	seq    uint64
	closed bool
}

// New returns an empty store.
func New() *Store {
	return &Store{
		objects:   make(map[object.Ref]entry),
		byUnit:    make(map[types.Unit]map[object.Ref]struct{}),
		byAddress: make(map[types.Address]map[object.Ref]struct{}),
		commits:   make(map[object.CommitID]struct{}),
	}
}

func (s *Store) Submit(ctx context.Context, ws *object.WriteSet) (object.CommitID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := ws.Validate(); err != nil {
		return "", err
	}
	commit, err := ws.ID()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", edition.ErrStoreClosed
	}
	if _, dup := s.commits[commit]; dup {
		return "", fmt.Errorf("%w: commit %s already recorded", edition.ErrConflict, commit)
	}
	for _, r := range ws.Inputs {
		if _, ok := s.objects[r]; !ok {
			return "", fmt.Errorf("%w: input %s spent or unknown", edition.ErrConflict, r)
		}
	}
	for _, r := range ws.References {
		if _, ok := s.objects[r]; !ok {
			return "", fmt.Errorf("%w: reference %s spent or unknown", edition.ErrConflict, r)
		}
	}

	for _, r := range ws.Inputs {
		s.remove(r)
	}
	for _, obj := range ws.Materialize(commit, now()) {
		s.insert(obj)
	}
	s.commits[commit] = struct{}{}

	return commit, nil
}

func (s *Store) Get(_ context.Context, ref object.Ref) (*object.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, edition.ErrStoreClosed
	}
	e, ok := s.objects[ref]
	if !ok {
		return nil, fmt.Errorf("%w: %s", edition.ErrObjectNotFound, ref)
	}
	return clone(e.obj), nil
}

func (s *Store) QueryByCapability(_ context.Context, unit types.Unit) ([]*object.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, edition.ErrStoreClosed
	}
	return s.collect(s.byUnit[unit]), nil
}

func (s *Store) QueryByAddress(_ context.Context, addr types.Address) ([]*object.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, edition.ErrStoreClosed
	}
	return s.collect(s.byAddress[addr]), nil
}

// Len returns the number of unspent objects.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

func (s *Store) Migrate(_ context.Context) error {
	return nil
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return edition.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Store) insert(obj *object.Object) {
	s.seq++
	s.objects[obj.Ref] = entry{obj: obj, seq: s.seq}

	for u, q := range obj.Assets {
		if q <= 0 {
			continue
		}
		if s.byUnit[u] == nil {
			s.byUnit[u] = make(map[object.Ref]struct{})
		}
		s.byUnit[u][obj.Ref] = struct{}{}
	}
	if s.byAddress[obj.Address] == nil {
		s.byAddress[obj.Address] = make(map[object.Ref]struct{})
	}
	s.byAddress[obj.Address][obj.Ref] = struct{}{}
}

func (s *Store) remove(ref object.Ref) {
	e := s.objects[ref]
	delete(s.objects, ref)

	for u := range e.obj.Assets {
		if set, ok := s.byUnit[u]; ok {
			delete(set, ref)
			if len(set) == 0 {
				delete(s.byUnit, u)
			}
		}
	}
	if set, ok := s.byAddress[e.obj.Address]; ok {
		delete(set, ref)
		if len(set) == 0 {
			delete(s.byAddress, e.obj.Address)
		}
	}
}

func (s *Store) collect(refs map[object.Ref]struct{}) []*object.Object {
	entries := make([]entry, 0, len(refs))
	for r := range refs {
		entries = append(entries, s.objects[r])
	}
	slices.SortFunc(entries, func(a, b entry) int {
		switch {
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		default:
			return 0
		}
	})

	out := make([]*object.Object, len(entries))
	for i, e := range entries {
		out[i] = clone(e.obj)
	}
	return out
}

func clone(o *object.Object) *object.Object {
	c := *o
	c.Assets = o.Assets.Clone()
	c.Datum = slices.Clone(o.Datum)
	return &c
}

func now() time.Time {
	return time.Now().UTC()
}
