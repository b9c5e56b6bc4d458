// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package state provides a journaled StateDB for executing hooks outside a
// full node: storage writes and logs can be snapshotted and reverted, and the
// committed storage is persisted to a luxfi/database key-value store.
package state

import (
	"errors"
	"fmt"

	"github.com/luxfi/database"
	"github.com/luxfi/geth/common"
	ethtypes "github.com/luxfi/geth/core/types"

	"github.com/luxfi/swapgate/contract"
)

var _ contract.StateDB = (*StateDB)(nil)

// slotPrefix namespaces storage slots inside the backing database
var slotPrefix = []byte("slot")

var ErrInvalidRevision = errors.New("invalid snapshot revision")

type slot struct {
	addr common.Address
	key  common.Hash
}

// journalEntry records how to undo one mutation
type journalEntry struct {
	slot    *slot
	prev    common.Hash
	wasSet  bool
	logsLen int
}

type revision struct {
	id           int
	journalIndex int
}

// StateDB is an in-memory, journaled implementation of contract.StateDB
type StateDB struct {
	db    database.Database
	dbErr error

	storage map[slot]common.Hash
	dirty   map[slot]struct{}
	logs    []*ethtypes.Log

	journal        []journalEntry
	validRevisions []revision
	nextRevisionID int
}

// New creates a StateDB reading through to [db]. A nil db keeps everything
// in memory.
func New(db database.Database) *StateDB {
	return &StateDB{
		db:      db,
		storage: make(map[slot]common.Hash),
		dirty:   make(map[slot]struct{}),
		logs:    make([]*ethtypes.Log, 0),
	}
}

// GetState returns the value of [key] in [addr]'s storage
func (s *StateDB) GetState(addr common.Address, key common.Hash) common.Hash {
	sl := slot{addr: addr, key: key}
	if val, ok := s.storage[sl]; ok {
		return val
	}
	val := s.load(sl)
	s.storage[sl] = val
	return val
}

// SetState writes [value] and returns the previous value
func (s *StateDB) SetState(addr common.Address, key common.Hash, value common.Hash) common.Hash {
	sl := slot{addr: addr, key: key}
	prev := s.GetState(addr, key)
	_, wasDirty := s.dirty[sl]
	s.journal = append(s.journal, journalEntry{slot: &sl, prev: prev, wasSet: wasDirty})
	s.storage[sl] = value
	s.dirty[sl] = struct{}{}
	return prev
}

// AddLog appends an event log
func (s *StateDB) AddLog(log *ethtypes.Log) {
	s.journal = append(s.journal, journalEntry{logsLen: len(s.logs)})
	s.logs = append(s.logs, log)
}

// Logs returns every log emitted since the last commit
func (s *StateDB) Logs() []*ethtypes.Log {
	return s.logs
}

// Snapshot returns an identifier for the current revision of the state
func (s *StateDB) Snapshot() int {
	id := s.nextRevisionID
	s.nextRevisionID++
	s.validRevisions = append(s.validRevisions, revision{id: id, journalIndex: len(s.journal)})
	return id
}

// RevertToSnapshot undoes every change made since [revid] was taken
func (s *StateDB) RevertToSnapshot(revid int) {
	idx := -1
	for i := len(s.validRevisions) - 1; i >= 0; i-- {
		if s.validRevisions[i].id == revid {
			idx = i
			break
		}
	}
	if idx < 0 {
		panic(fmt.Errorf("%w: %d", ErrInvalidRevision, revid))
	}
	snapshot := s.validRevisions[idx].journalIndex

	for i := len(s.journal) - 1; i >= snapshot; i-- {
		entry := s.journal[i]
		if entry.slot == nil {
			s.logs = s.logs[:entry.logsLen]
			continue
		}
		s.storage[*entry.slot] = entry.prev
		if !entry.wasSet {
			delete(s.dirty, *entry.slot)
		}
	}
	s.journal = s.journal[:snapshot]
	s.validRevisions = s.validRevisions[:idx]
}

// Error returns the first database error hit while reading through
func (s *StateDB) Error() error {
	return s.dbErr
}

// Commit writes dirty slots to the backing database and resets the journal
// and logs. It is a no-op flush for an in-memory StateDB.
func (s *StateDB) Commit() error {
	if s.dbErr != nil {
		return s.dbErr
	}
	if s.db != nil {
		batch := s.db.NewBatch()
		for sl := range s.dirty {
			val := s.storage[sl]
			var err error
			if val == (common.Hash{}) {
				err = batch.Delete(slotKey(sl))
			} else {
				err = batch.Put(slotKey(sl), val.Bytes())
			}
			if err != nil {
				return fmt.Errorf("state: stage slot: %w", err)
			}
		}
		if err := batch.Write(); err != nil {
			return fmt.Errorf("state: write batch: %w", err)
		}
	}

	s.dirty = make(map[slot]struct{})
	s.journal = nil
	s.validRevisions = nil
	s.logs = make([]*ethtypes.Log, 0)
	return nil
}

func (s *StateDB) load(sl slot) common.Hash {
	if s.db == nil {
		return common.Hash{}
	}
	val, err := s.db.Get(slotKey(sl))
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) && s.dbErr == nil {
			s.dbErr = fmt.Errorf("state: read slot: %w", err)
		}
		return common.Hash{}
	}
	return common.BytesToHash(val)
}

func slotKey(sl slot) []byte {
	key := make([]byte, 0, len(slotPrefix)+common.AddressLength+common.HashLength)
	key = append(key, slotPrefix...)
	key = append(key, sl.addr.Bytes()...)
	key = append(key, sl.key.Bytes()...)
	return key
}
