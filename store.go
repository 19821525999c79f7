package transferful

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

// Store keeps the canonical copy of every entity. Users and accounts live
// in independent keyspaces. Read-modify-write cycles go through the
// compound ops (UpdateUser, RemoveUserIf, UpdateAccounts), which run a
// caller-supplied mutation in one critical section; there are no
// cross-keyspace transactions.
//
// Getters return snapshots. Mutating a returned entity has no effect until
// it is put back.
type Store interface {
	GetUser(id snowflake.ID) (*User, error)
	PutUser(u *User)
	UserExists(id snowflake.ID) bool
	RemoveUser(id snowflake.ID)

	// UpdateUser applies fn to a copy of the user and persists the result
	// on a nil return, atomically. This is the only safe way to mutate a
	// user that may be touched by concurrent callers; a bare get-modify-put
	// can lose a concurrent linkage change.
	UpdateUser(id snowflake.ID, fn func(u *User) error) error

	// RemoveUserIf removes the user when cond accepts the current
	// snapshot; check and removal happen in one critical section.
	RemoveUserIf(id snowflake.ID, cond func(u *User) error) error

	GetAccount(id snowflake.ID) (*Account, error)
	PutAccount(a *Account)
	AccountExists(id snowflake.ID) bool
	RemoveAccount(id snowflake.ID)

	// UpdateAccounts resolves ids (all must exist and be distinct), passes
	// copies to fn, and on a nil return persists the returned accounts and
	// appends the returned charges, all atomically. A non-nil error from fn
	// is returned unchanged and nothing is written.
	UpdateAccounts(ids []snowflake.ID, fn func([]Account) ([]Account, []Charge, error)) error

	// AccountCharges returns the journal of the given account, oldest first.
	AccountCharges(id snowflake.ID) []Charge
}

type MemStore struct {
	mu       sync.RWMutex
	users    map[snowflake.ID]*User
	accounts map[snowflake.ID]*Account
	charges  map[snowflake.ID][]Charge
}

var (
	_ Store = (*MemStore)(nil)
)

func NewMemStore() *MemStore {
	return &MemStore{
		users:    make(map[snowflake.ID]*User),
		accounts: make(map[snowflake.ID]*Account),
		charges:  make(map[snowflake.ID][]Charge),
	}
}

func (m *MemStore) GetUser(id snowflake.ID) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound{ID: id}
	}
	return u.clone(), nil
}

func (m *MemStore) PutUser(u *User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u.clone()
}

func (m *MemStore) UserExists(id snowflake.ID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.users[id]
	return ok
}

func (m *MemStore) RemoveUser(id snowflake.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
}

func (m *MemStore) UpdateUser(id snowflake.ID, fn func(u *User) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound{ID: id}
	}
	cp := u.clone()
	if err := fn(cp); err != nil {
		return err
	}
	// fn keeps its copy; the map gets its own so later caller-side
	// mutation cannot leak into the store.
	m.users[id] = cp.clone()
	return nil
}

func (m *MemStore) RemoveUserIf(id snowflake.ID, cond func(u *User) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound{ID: id}
	}
	if err := cond(u.clone()); err != nil {
		return err
	}
	delete(m.users, id)
	return nil
}

func (m *MemStore) GetAccount(id snowflake.ID) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, ErrNotFound{ID: id}
	}
	cp := *a
	return &cp, nil
}

func (m *MemStore) PutAccount(a *Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.accounts[a.ID] = &cp
}

func (m *MemStore) AccountExists(id snowflake.ID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.accounts[id]
	return ok
}

// RemoveAccount drops the account together with its journal.
func (m *MemStore) RemoveAccount(id snowflake.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.accounts, id)
	delete(m.charges, id)
}

func (m *MemStore) UpdateAccounts(ids []snowflake.ID, fn func([]Account) ([]Account, []Charge, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	accts := make([]Account, 0, len(ids))
	for _, id := range ids {
		a, ok := m.accounts[id]
		if !ok {
			return ErrNotFound{ID: id}
		}
		accts = append(accts, *a)
	}

	updated, charges, err := fn(accts)
	if err != nil {
		return err
	}

	for i := range updated {
		cp := updated[i]
		m.accounts[cp.ID] = &cp
	}
	for _, ch := range charges {
		m.charges[ch.AcctID] = append(m.charges[ch.AcctID], ch)
	}
	return nil
}

func (m *MemStore) AccountCharges(id snowflake.ID) []Charge {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Charge, len(m.charges[id]))
	copy(out, m.charges[id])
	return out
}
