package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	log "github.com/sirupsen/logrus"

	"storefront/storefront-svc/internal/domain"
)

const avatarBaseURL = "https://ui-avatars.com/api/?name="

// IdentityService is a mocked sign-in: any non-empty email is accepted and
// the user record is kept in the device's state.
type IdentityService struct {
	device string
	store  StateStore
	logger log.FieldLogger
}

func NewIdentityService(device string, store StateStore, logger log.FieldLogger) *IdentityService {
	return &IdentityService{device: device, store: store, logger: logger}
}

func (s *IdentityService) CurrentUser(ctx context.Context) (*domain.User, error) {
	data, err := s.store.Get(ctx, s.device, KeyUser)
	if errors.Is(err, domain.ErrStateNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	var user domain.User
	if err := json.Unmarshal(data, &user); err != nil {
		s.logger.WithError(err).WithField("device", s.device).Warn("Discarding malformed user state")
		return nil, nil
	}
	return &user, nil
}

func (s *IdentityService) Login(ctx context.Context, name, email string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrInvalidIdentity
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}

	user := &domain.User{
		Name:   name,
		Email:  email,
		Avatar: avatarBaseURL + url.QueryEscape(name),
	}
	data, err := json.Marshal(user)
	if err != nil {
		return nil, err
	}
	if err := s.store.Set(ctx, s.device, KeyUser, data); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}

	s.logger.WithFields(log.Fields{"device": s.device, "email": email}).Info("User signed in")
	return user, nil
}

func (s *IdentityService) Logout(ctx context.Context) error {
	if err := s.store.Delete(ctx, s.device, KeyUser); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.logger.WithField("device", s.device).Info("User signed out")
	return nil
}
