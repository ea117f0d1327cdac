// Package idservice hands out monotone integer identifiers keyed by
// name (arid, orid, wfid, ...), batching disk writes the way the
// original lastid table does: a record's on-disk nextid is advanced
// by a whole batch at a time, and ids within the batch are served from
// memory until it is exhausted.
//
// The persistence idiom (kv.Create/kv.Open with a byte-key Compare
// func, Set/Get inside BeginTransaction/Commit) is grounded on
// kortschak-ins's internal/store and cmd/ins/blast.go use of
// modernc.org/kv as an embedded ordered key/value store.
package idservice

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"

	kv "modernc.org/kv"
)

// compareKeys orders rows lexicographically by keyname, the only
// ordering idservice needs since it never range-scans.
func compareKeys(x, y []byte) int {
	switch {
	case string(x) < string(y):
		return -1
	case string(x) > string(y):
		return 1
	default:
		return 0
	}
}

// counter is one keyname's persisted allocation state plus its
// in-memory batch remainder and recycle free-list.
type counter struct {
	nextID         int64
	batchIncrement int64
	batchRemaining int64
	recycled       []int64
}

const defaultIncrement = 1

// Service allocates and recycles ids for any number of independent
// keynames, backed by a single modernc.org/kv.DB file.
type Service struct {
	mu       sync.Mutex
	db       *kv.DB
	counters map[string]*counter
}

// Open opens (or creates) the id-service database at path.
func Open(path string) (*Service, error) {
	opts := &kv.Options{Compare: compareKeys}
	db, err := kv.Open(path, opts)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("idservice: open %s: %w", path, err)
		}
		db, err = kv.Create(path, opts)
		if err != nil {
			return nil, fmt.Errorf("idservice: create %s: %w", path, err)
		}
	}
	return &Service{db: db, counters: map[string]*counter{}}, nil
}

func (s *Service) counterFor(keyName string) (*counter, error) {
	if c, ok := s.counters[keyName]; ok {
		return c, nil
	}
	c := &counter{batchIncrement: defaultIncrement}
	raw, err := s.db.Get(nil, []byte(keyName))
	if err != nil {
		return nil, fmt.Errorf("idservice: get %s: %w", keyName, err)
	}
	if raw != nil {
		c.nextID = int64(binary.BigEndian.Uint64(raw))
	} else {
		c.nextID = 1
	}
	s.counters[keyName] = c
	return c, nil
}

func (s *Service) persist(keyName string, c *counter) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(c.nextID))
	if err := s.db.BeginTransaction(); err != nil {
		return fmt.Errorf("idservice: begin: %w", err)
	}
	if err := s.db.Set([]byte(keyName), buf[:]); err != nil {
		s.db.Rollback()
		return fmt.Errorf("idservice: set %s: %w", keyName, err)
	}
	if err := s.db.Commit(); err != nil {
		return fmt.Errorf("idservice: commit %s: %w", keyName, err)
	}
	return nil
}

// SetRequestIdIncrement configures how many ids are pre-allocated to
// memory on each disk refill for keyName, matching spec.md §8 scenario
// 6's "arid batched at 1000" example.
func (s *Service) SetRequestIdIncrement(keyName string, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.counterFor(keyName)
	if err != nil {
		return err
	}
	c.batchIncrement = int64(n)
	return nil
}

// RequestIds allocates n ids for keyName. When consecutive is true the
// caller receives a single contiguous run; otherwise ids may be
// serviced from the recycle free-list first. A batch refill touches
// disk only when the in-memory remainder is insufficient.
func (s *Service) RequestIds(keyName string, n int, consecutive bool) ([]int64, error) {
	if n <= 0 {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.counterFor(keyName)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, n)
	if !consecutive {
		for len(c.recycled) > 0 && len(ids) < n {
			last := len(c.recycled) - 1
			ids = append(ids, c.recycled[last])
			c.recycled = c.recycled[:last]
		}
	}
	remaining := n - len(ids)
	if remaining == 0 {
		return ids, nil
	}

	if int64(remaining) > c.batchRemaining {
		increment := c.batchIncrement
		if increment < int64(remaining) {
			increment = int64(remaining)
		}
		c.batchRemaining = increment
		if err := s.persist(keyName, &counter{nextID: c.nextID + increment}); err != nil {
			return nil, err
		}
	}

	for i := 0; i < remaining; i++ {
		ids = append(ids, c.nextID)
		c.nextID++
		c.batchRemaining--
	}
	return ids, nil
}

// RecycleIds returns ids to keyName's free list for future non-consecutive
// allocation, without touching disk.
func (s *Service) RecycleIds(keyName string, ids []int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.counterFor(keyName)
	if err != nil {
		return
	}
	c.recycled = append(c.recycled, ids...)
}

// NumberAvailable reports how many ids keyName can serve from memory
// before the next disk refill.
func (s *Service) NumberAvailable(keyName string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.counterFor(keyName)
	if err != nil {
		return 0
	}
	return len(c.recycled) + int(c.batchRemaining)
}

// Close releases the underlying kv.DB.
func (s *Service) Close() error {
	return s.db.Close()
}
