// Package repotest provides an in-memory repository.Store for tests.
package repotest

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/andressep95/gameplan-api/internal/domain"
	"github.com/andressep95/gameplan-api/internal/repository"
	"github.com/google/uuid"
)

var errDuplicate = errors.New("duplicate key value violates unique constraint")

// Store is an in-memory repository.Store. WithTx snapshots the tables
// and restores them when fn fails.
type Store struct {
	mu          sync.Mutex
	users       map[uuid.UUID]domain.User
	sessions    map[uuid.UUID]domain.Session
	memberships []domain.Membership
	clubs       map[uuid.UUID]bool
	roles       []*domain.Role

	// RaceOnCreate simulates a concurrent insert of the same email.
	RaceOnCreate bool
}

func NewStore() *Store {
	return &Store{
		users:    map[uuid.UUID]domain.User{},
		sessions: map[uuid.UUID]domain.Session{},
		clubs:    map[uuid.UUID]bool{},
	}
}

func (s *Store) Users() repository.UserRepository             { return userRepo{s} }
func (s *Store) Sessions() repository.SessionRepository       { return sessionRepo{s} }
func (s *Store) Memberships() repository.MembershipRepository { return membershipRepo{s} }
func (s *Store) Roles() repository.RoleRepository             { return roleRepo{s} }

func (s *Store) WithTx(_ context.Context, fn func(tx repository.Store) error) error {
	s.mu.Lock()
	users := make(map[uuid.UUID]domain.User, len(s.users))
	for k, v := range s.users {
		users[k] = v
	}
	sessions := make(map[uuid.UUID]domain.Session, len(s.sessions))
	for k, v := range s.sessions {
		sessions[k] = v
	}
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.users, s.sessions = users, sessions
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) AddUser(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *Store) User(id uuid.UUID) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id]
}

func (s *Store) UserCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

func (s *Store) SessionCount(userID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, sess := range s.sessions {
		if sess.UserID == userID {
			n++
		}
	}
	return n
}

func (s *Store) HasSession(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	return ok
}

func (s *Store) AddSession(sess domain.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
}

func (s *Store) SetRoles(roles []*domain.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles = roles
}

func (s *Store) AddMembership(m domain.Membership) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clubs[m.ClubID] = true
	s.memberships = append(s.memberships, m)
}

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.RaceOnCreate {
		return &repository.ConstraintError{Kind: repository.UniqueViolation, Table: "users", Constraint: "users_email_key", Err: errDuplicate}
	}
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return &repository.ConstraintError{Kind: repository.UniqueViolation, Table: "users", Constraint: "users_email_key", Err: errDuplicate}
		}
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r userRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r userRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	return err == nil, nil
}

func (r userRepo) UpdateProfile(_ context.Context, id uuid.UUID, update domain.ProfileUpdate) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if update.FirstName != nil {
		u.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		u.LastName = *update.LastName
	}
	if update.Phone != nil {
		u.Phone = update.Phone
	}
	if update.BirthDate != nil {
		u.BirthDate = *update.BirthDate
	}
	if update.Country != nil {
		u.Country = *update.Country
	}
	u.UpdatedAt = time.Now()
	r.s.users[id] = u
	return &u, nil
}

func (r userRepo) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = passwordHash
	r.s.users[id] = u
	return nil
}

func (r userRepo) UpdateLastLogin(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u := r.s.users[id]
	now := time.Now()
	u.LastLogin = &now
	r.s.users[id] = u
	return nil
}

type sessionRepo struct{ s *Store }

func (r sessionRepo) Create(_ context.Context, session *domain.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.sessions[session.ID] = *session
	return nil
}

func (r sessionRepo) Validate(_ context.Context, sessionID, userID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sess, ok := r.s.sessions[sessionID]
	return ok && sess.UserID == userID && sess.ExpiresAt.After(time.Now()), nil
}

func (r sessionRepo) Delete(_ context.Context, sessionID, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if sess, ok := r.s.sessions[sessionID]; ok && sess.UserID == userID {
		delete(r.s.sessions, sessionID)
	}
	return nil
}

func (r sessionRepo) DeleteAllForUser(_ context.Context, userID uuid.UUID, except *uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, sess := range r.s.sessions {
		if sess.UserID != userID || (except != nil && id == *except) {
			continue
		}
		delete(r.s.sessions, id)
		n++
	}
	return n, nil
}

func (r sessionRepo) ListActiveByUser(_ context.Context, userID uuid.UUID) ([]*domain.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Session
	for _, sess := range r.s.sessions {
		if sess.UserID == userID && sess.ExpiresAt.After(time.Now()) {
			sess := sess
			out = append(out, &sess)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r sessionRepo) DeleteExpired(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, sess := range r.s.sessions {
		if !sess.ExpiresAt.After(time.Now()) {
			delete(r.s.sessions, id)
			n++
		}
	}
	return n, nil
}

type membershipRepo struct{ s *Store }

func (r membershipRepo) Find(_ context.Context, userID, clubID uuid.UUID) (*domain.Membership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.memberships {
		if m.UserID == userID && m.ClubID == clubID {
			m := m
			return &m, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r membershipRepo) FindActive(ctx context.Context, userID, clubID uuid.UUID) (*domain.Membership, error) {
	m, err := r.Find(ctx, userID, clubID)
	if err != nil {
		return nil, err
	}
	if !m.IsActive {
		return nil, repository.ErrNotFound
	}
	return m, nil
}

func (r membershipRepo) IsOwner(ctx context.Context, userID, clubID uuid.UUID) (bool, error) {
	m, err := r.FindActive(ctx, userID, clubID)
	if err != nil {
		return false, nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.clubs[clubID] && m.RoleName == domain.RolePresident, nil
}

func (r membershipRepo) CountActiveByUser(_ context.Context, userID uuid.UUID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, m := range r.s.memberships {
		if m.UserID == userID && m.IsActive {
			n++
		}
	}
	return n, nil
}

type roleRepo struct{ s *Store }

func (r roleRepo) List(_ context.Context) ([]*domain.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.roles, nil
}
