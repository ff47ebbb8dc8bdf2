// Package users handles the mock credential check and user listing.
// Credentials are compared in plain text against the stored users
// collection; this mirrors the mock login, not real authentication.
package users

import (
	"errors"
	"math/rand"

	"go.uber.org/zap"

	"github.com/incashhq/incash-server/internal/model"
	"github.com/incashhq/incash-server/internal/store"
)

// ErrInvalidCredentials means no stored user matched the supplied
// username/password pair.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrNoUsers means the users collection is empty.
var ErrNoUsers = errors.New("no users available")

// Service reads the users collection.
type Service struct {
	store *store.Store
	log   *zap.Logger
}

// NewService creates a users Service.
func NewService(st *store.Store, log *zap.Logger) *Service {
	return &Service{store: st, log: log}
}

// Authenticate checks the pair against stored users and returns the
// matching user with the password stripped.
func (s *Service) Authenticate(username, password string) (*model.User, error) {
	all, err := s.all()
	if err != nil {
		return nil, err
	}
	for _, u := range all {
		if u.Username == username && u.Password == password {
			s.log.Info("login succeeded", zap.String("username", username))
			safe := u.Sanitized()
			return &safe, nil
		}
	}
	s.log.Warn("login failed", zap.String("username", username))
	return nil, ErrInvalidCredentials
}

// List returns all users with passwords stripped.
func (s *Service) List() ([]model.User, error) {
	all, err := s.all()
	if err != nil {
		return nil, err
	}
	out := make([]model.User, 0, len(all))
	for _, u := range all {
		out = append(out, u.Sanitized())
	}
	return out, nil
}

// Current picks a random stored user, password stripped. The mobile
// client uses this as a stand-in for session state.
func (s *Service) Current() (*model.User, error) {
	all, err := s.all()
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, ErrNoUsers
	}
	safe := all[rand.Intn(len(all))].Sanitized()
	return &safe, nil
}

func (s *Service) all() ([]model.User, error) {
	recs := s.store.Get(store.Users)
	out := make([]model.User, 0, len(recs))
	for _, rec := range recs {
		var u model.User
		if err := store.UnmarshalRecord(rec, &u); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}
