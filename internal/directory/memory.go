package directory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-process Repository used by tests and local
// development. Filter semantics match the relational implementation.
type MemoryRepository struct {
	mu       sync.RWMutex
	accounts map[string]Account
	hasher   Hasher
	now      func() time.Time
}

func NewMemoryRepository(hasher Hasher) *MemoryRepository {
	if hasher == nil {
		hasher = Argon2Hasher{}
	}
	return &MemoryRepository{
		accounts: make(map[string]Account),
		hasher:   hasher,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryRepository) Create(_ context.Context, na NewAccount) (Account, error) {
	email := NormalizeEmail(na.Email)

	var hash string
	if na.Password != "" {
		var err error
		hash, err = m.hasher.Hash(na.Password)
		if err != nil {
			return Account{}, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, acc := range m.accounts {
		if acc.Email == email {
			return Account{}, ErrAlreadyExists
		}
	}

	now := m.now()
	acc := Account{
		ID:             uuid.NewString(),
		Email:          email,
		CredentialHash: hash,
		Role:           na.Role,
		Profile:        na.Profile,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	m.accounts[acc.ID] = acc
	return acc, nil
}

func (m *MemoryRepository) Get(_ context.Context, id string) (Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	acc, ok := m.accounts[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	return acc, nil
}

func (m *MemoryRepository) FindByEmail(_ context.Context, email string) (Account, error) {
	email = NormalizeEmail(email)
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, acc := range m.accounts {
		if acc.Email == email {
			return acc, nil
		}
	}
	return Account{}, ErrNotFound
}

func (m *MemoryRepository) List(_ context.Context, f Filter) ([]Account, error) {
	m.mu.RLock()
	matched := m.match(f)
	m.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	offset := f.Offset()
	if offset >= len(matched) {
		return []Account{}, nil
	}
	end := offset + f.PerPage
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (m *MemoryRepository) Total(_ context.Context, f Filter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.match(f)), nil
}

// match applies role and search with AND. Callers hold the lock.
func (m *MemoryRepository) match(f Filter) []Account {
	result := make([]Account, 0, len(m.accounts))
	for _, acc := range m.accounts {
		if f.Role != nil && acc.Role != *f.Role {
			continue
		}
		if f.Search != nil && !matchesSearch(acc, *f.Search) {
			continue
		}
		result = append(result, acc)
	}
	return result
}

func matchesSearch(acc Account, term string) bool {
	term = strings.ToLower(term)
	fields := []string{acc.Email}
	for _, p := range []*string{acc.Profile.Handle, acc.Profile.FirstName, acc.Profile.LastName} {
		if p != nil {
			fields = append(fields, *p)
		}
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

func (m *MemoryRepository) Update(_ context.Context, id string, upd AccountUpdate) (Account, error) {
	var hash *string
	if upd.Password != nil {
		h, err := m.hasher.Hash(*upd.Password)
		if err != nil {
			return Account{}, err
		}
		hash = &h
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	acc, ok := m.accounts[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	if upd.Email != nil {
		email := NormalizeEmail(*upd.Email)
		for otherID, other := range m.accounts {
			if otherID != id && other.Email == email {
				return Account{}, ErrAlreadyExists
			}
		}
		acc.Email = email
	}
	if hash != nil {
		acc.CredentialHash = *hash
	}
	if upd.Role != nil {
		acc.Role = *upd.Role
	}
	if upd.Profile != nil {
		p := &acc.Profile
		if upd.Profile.FirstName != nil {
			p.FirstName = upd.Profile.FirstName
		}
		if upd.Profile.MiddleName != nil {
			p.MiddleName = upd.Profile.MiddleName
		}
		if upd.Profile.LastName != nil {
			p.LastName = upd.Profile.LastName
		}
		if upd.Profile.Handle != nil {
			p.Handle = upd.Profile.Handle
		}
		if upd.Profile.AvatarURL != nil {
			p.AvatarURL = upd.Profile.AvatarURL
		}
		if upd.Profile.Bio != nil {
			p.Bio = upd.Profile.Bio
		}
	}
	acc.UpdatedAt = m.now()
	m.accounts[id] = acc
	return acc, nil
}

func (m *MemoryRepository) Delete(_ context.Context, id string) (Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	delete(m.accounts, id)
	return acc, nil
}

func (m *MemoryRepository) VerifyCredential(ctx context.Context, email, password string) (Account, bool, error) {
	acc, err := m.FindByEmail(ctx, email)
	if err != nil {
		return Account{}, false, err
	}
	if acc.CredentialHash == "" {
		return acc, false, nil
	}
	ok, err := m.hasher.Verify(password, acc.CredentialHash)
	if err != nil {
		return Account{}, false, err
	}
	return acc, ok, nil
}
