package server

import (
	"sync"

	"vaultcore/native/common"
)

// memQuotaStore is an in-process common.Store, tracking per-user borrow
// request/volume counters for the current epoch. vaultd runs as a single
// process per data directory, so an in-memory map is durable enough for
// the epoch window the quota resets on; a multi-replica deployment would
// back this with vaultstore instead.
type memQuotaStore struct {
	mu     sync.Mutex
	counts map[string]common.QuotaNow
}

func newMemQuotaStore() *memQuotaStore {
	return &memQuotaStore{counts: make(map[string]common.QuotaNow)}
}

func (s *memQuotaStore) key(module string, epoch uint64, addr []byte) string {
	return module + "|" + string(addr)
}

func (s *memQuotaStore) Load(module string, epoch uint64, addr []byte) (common.QuotaNow, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.counts[s.key(module, epoch, addr)]
	return q, ok, nil
}

func (s *memQuotaStore) Save(module string, epoch uint64, addr []byte, counters common.QuotaNow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[s.key(module, epoch, addr)] = counters
	return nil
}
