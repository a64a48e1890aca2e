// Package session persists the bearer token and user profile of one client.
//
// The pair is kept under two keys, auth_token and auth_user, which are always
// written, read and deleted together. Backends only need to provide a small
// key/value surface (KV); Store owns the encoding and the "no partial session" rule.
package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/harentsoaR/dentist-portal/internal/errs"
	"github.com/harentsoaR/dentist-portal/internal/models"
)

const (
	TokenKey = "auth_token"
	UserKey  = "auth_user"
)

// KV is the durable storage of a single client (one browser, one CLI profile).
type KV interface {
	// Get returns the values present among keys; missing keys are simply absent from the map.
	Get(ctx context.Context, keys ...string) (map[string]string, error)
	// Set writes all values in one operation.
	Set(ctx context.Context, values map[string]string) error
	Delete(ctx context.Context, keys ...string) error
}

// Provider hands out the KV of a given browser session id.
type Provider interface {
	Scope(id string) KV
}

type Credentials struct {
	Token string
	User  models.User
}

type Store struct {
	kv KV
}

func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

// Load returns errs.ErrNoSession when nothing is stored and errs.ErrPartialSession
// when only half of the pair survived or the profile is unreadable.
func (s *Store) Load(ctx context.Context) (Credentials, error) {
	values, err := s.kv.Get(ctx, TokenKey, UserKey)
	if err != nil {
		return Credentials{}, fmt.Errorf("session load: %w", err)
	}
	token, hasToken := values[TokenKey]
	raw, hasUser := values[UserKey]
	hasToken = hasToken && token != ""
	hasUser = hasUser && raw != ""

	switch {
	case !hasToken && !hasUser:
		return Credentials{}, errs.ErrNoSession
	case !hasToken || !hasUser:
		return Credentials{}, errs.ErrPartialSession
	}

	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return Credentials{}, fmt.Errorf("%w: %v", errs.ErrPartialSession, err)
	}
	return Credentials{Token: token, User: user}, nil
}

func (s *Store) Save(ctx context.Context, c Credentials) error {
	raw, err := json.Marshal(c.User)
	if err != nil {
		return fmt.Errorf("session save: %w", err)
	}
	if err := s.kv.Set(ctx, map[string]string{TokenKey: c.Token, UserKey: string(raw)}); err != nil {
		return fmt.Errorf("session save: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, TokenKey, UserKey); err != nil {
		return fmt.Errorf("session clear: %w", err)
	}
	return nil
}
