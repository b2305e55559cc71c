package store

import (
	"context"
	"sync"

	"credchain/internal/registry/eduid"
	"credchain/internal/registry/models"
	"credchain/internal/sentinel"
	"credchain/pkg/domain"
)

// InMemoryStore keeps registry state in maps plus ordered index slices. The
// single mutex serializes every mutation, which is exactly the ledger model:
// mutations are totally ordered and readers observe a consistent snapshot.
type InMemoryStore struct {
	mu          sync.RWMutex
	issuers     map[domain.Address]*models.IssuerRecord
	credentials map[eduid.EduID]*models.Credential
	byStudent   map[domain.Address][]eduid.EduID
	all         []eduid.EduID
}

// NewInMemory constructs an empty in-memory registry store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		issuers:     make(map[domain.Address]*models.IssuerRecord),
		credentials: make(map[eduid.EduID]*models.Credential),
		byStudent:   make(map[domain.Address][]eduid.EduID),
	}
}

func (s *InMemoryStore) UpsertIssuer(_ context.Context, rec *models.IssuerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copyRec := *rec
	s.issuers[rec.Address] = &copyRec
	return nil
}

func (s *InMemoryStore) FindIssuer(_ context.Context, addr domain.Address) (*models.IssuerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.issuers[addr]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copyRec := *rec
	return &copyRec, nil
}

func (s *InMemoryStore) InsertCredential(_ context.Context, cred *models.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.credentials[cred.EduID]; exists {
		return sentinel.ErrAlreadyExists
	}
	copyCred := *cred
	s.credentials[cred.EduID] = &copyCred
	s.byStudent[cred.Student] = append(s.byStudent[cred.Student], cred.EduID)
	s.all = append(s.all, cred.EduID)
	return nil
}

func (s *InMemoryStore) FindCredential(_ context.Context, id eduid.EduID) (*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cred, ok := s.credentials[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copyCred := *cred
	return &copyCred, nil
}

func (s *InMemoryStore) Revoke(_ context.Context, id eduid.EduID, caller domain.Address) (*models.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.credentials[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if cred.Issuer != caller {
		return nil, sentinel.ErrForbidden
	}
	if cred.Revoked {
		return nil, sentinel.ErrInvalidState
	}
	cred.Revoked = true
	copyCred := *cred
	return &copyCred, nil
}

func (s *InMemoryStore) ListStudentCredentials(_ context.Context, student domain.Address) ([]eduid.EduID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]eduid.EduID{}, s.byStudent[student]...), nil
}

func (s *InMemoryStore) ListAllCredentials(_ context.Context) ([]eduid.EduID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]eduid.EduID{}, s.all...), nil
}

func (s *InMemoryStore) CountCredentials(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.all), nil
}
