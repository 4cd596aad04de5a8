// Package vaultstore persists vault accounting state to a key-value store,
// adapted from storage.LevelDB the way native/lending's persistence layer
// would front the same storage.Database interface for its own markets.
package vaultstore

import (
	"encoding/json"
	"fmt"

	"vaultcore/native/vault"
	"vaultcore/storage"
)

const (
	vaultPrefix     = "vault:"
	strategyPrefix  = "vault:strategy:"
	statementPrefix = "user:statement:"
)

// Store wraps a storage.Database with vault-domain encode/decode helpers.
// Any Database implementation works, in-memory for tests and LevelDB for a
// running service.
type Store struct {
	db storage.Database
}

// New wraps db for vault persistence.
func New(db storage.Database) *Store {
	return &Store{db: db}
}

func vaultKey(index uint16) []byte {
	return []byte(fmt.Sprintf("%s%d", vaultPrefix, index))
}

func strategyKey(vaultIndex uint16, strategyIndex int) []byte {
	return []byte(fmt.Sprintf("%s%d:%d", strategyPrefix, vaultIndex, strategyIndex))
}

func statementKey(userKey string) []byte {
	return []byte(statementPrefix + userKey)
}

// vaultSnapshot is the serializable view of a Vault's exported state: the
// engines and risk parameters, not the live oracle pointers or logger.
type vaultSnapshot struct {
	ID       uint64         `json:"id"`
	Services vault.Services `json:"services"`
}

// PutVault persists a vault's settled engine state.
func (s *Store) PutVault(index uint16, v *vault.Vault) error {
	snap := vaultSnapshot{ID: v.ID, Services: v.Services}
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.db.Put(vaultKey(index), data)
}

// GetVaultServices reads back the engine state previously persisted by
// PutVault.
func (s *Store) GetVaultServices(index uint16) (vault.Services, error) {
	data, err := s.db.Get(vaultKey(index))
	if err != nil {
		return vault.Services{}, err
	}
	var snap vaultSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return vault.Services{}, err
	}
	return snap.Services, nil
}

// PutStrategy persists one strategy's accounting state.
func (s *Store) PutStrategy(vaultIndex uint16, strategyIndex int, st *vault.Strategy) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.db.Put(strategyKey(vaultIndex, strategyIndex), data)
}

// GetStrategy reads back a persisted strategy.
func (s *Store) GetStrategy(vaultIndex uint16, strategyIndex int) (*vault.Strategy, error) {
	data, err := s.db.Get(strategyKey(vaultIndex, strategyIndex))
	if err != nil {
		return nil, err
	}
	st := &vault.Strategy{}
	if err := json.Unmarshal(data, st); err != nil {
		return nil, err
	}
	return st, nil
}

// PutStatement persists a user's statement, keyed by the caller-supplied
// user key (an address or account id, opaque to this package).
func (s *Store) PutStatement(userKey string, stmt *vault.UserStatement) error {
	data, err := json.Marshal(stmt)
	if err != nil {
		return err
	}
	return s.db.Put(statementKey(userKey), data)
}

// GetStatement reads back a persisted user statement.
func (s *Store) GetStatement(userKey string) (*vault.UserStatement, error) {
	data, err := s.db.Get(statementKey(userKey))
	if err != nil {
		return nil, err
	}
	stmt := &vault.UserStatement{}
	if err := json.Unmarshal(data, stmt); err != nil {
		return nil, err
	}
	return stmt, nil
}
