package quotas

import (
	"fmt"

	"gitbounty/crypto"
	nativecommon "gitbounty/native/common"
)

type counterRecord struct {
	ReqCount     uint32
	LamportsUsed uint64
}

// StoreState is the key/value surface the quota store persists through.
type StoreState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
}

// Store persists per-signer quota counters for each program and epoch.
type Store struct {
	state StoreState
}

func NewStore(state StoreState) *Store {
	return &Store{state: state}
}

func (s *Store) withState() (StoreState, error) {
	if s == nil || s.state == nil {
		return nil, fmt.Errorf("quota store not initialised")
	}
	return s.state, nil
}

// Load returns the stored counters. Missing counters start empty in epoch.
func (s *Store) Load(program string, epoch uint64, addr crypto.Address) (nativecommon.QuotaNow, bool, error) {
	state, err := s.withState()
	if err != nil {
		return nativecommon.QuotaNow{}, false, err
	}
	var stored counterRecord
	ok, err := state.KVGet(counterKey(program, epoch, addr), &stored)
	if err != nil {
		return nativecommon.QuotaNow{}, false, fmt.Errorf("quota: load counters: %w", err)
	}
	if !ok {
		return nativecommon.QuotaNow{EpochID: epoch}, false, nil
	}
	return nativecommon.QuotaNow{EpochID: epoch, ReqCount: stored.ReqCount, LamportsUsed: stored.LamportsUsed}, true, nil
}

func (s *Store) Save(program string, epoch uint64, addr crypto.Address, counters nativecommon.QuotaNow) error {
	state, err := s.withState()
	if err != nil {
		return err
	}
	return s.Stage(state, program, epoch, addr, counters)
}

// CounterWriter receives staged counter writes, typically a state batch that
// commits them together with the transaction they account for.
type CounterWriter interface {
	KVPut(key []byte, value interface{}) error
}

// Stage writes the counters through w instead of the store's own state.
func (s *Store) Stage(w CounterWriter, program string, epoch uint64, addr crypto.Address, counters nativecommon.QuotaNow) error {
	record := counterRecord{ReqCount: counters.ReqCount, LamportsUsed: counters.LamportsUsed}
	if err := w.KVPut(counterKey(program, epoch, addr), record); err != nil {
		return fmt.Errorf("quota: persist counters: %w", err)
	}
	return nil
}

// Clear drops the counters for a signer, e.g. after an operator override.
func (s *Store) Clear(program string, epoch uint64, addr crypto.Address) error {
	state, err := s.withState()
	if err != nil {
		return err
	}
	return state.KVDelete(counterKey(program, epoch, addr))
}
