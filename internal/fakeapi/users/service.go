package users

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

type Service struct {
	repo Repository
	cost int

	mu     sync.Mutex
	outbox []Mail
}

// NewService returns a Service hashing passwords with the given bcrypt cost.
// Out-of-range costs fall back to bcrypt.DefaultCost.
func NewService(repo Repository, cost int) *Service {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Service{repo: repo, cost: cost}
}

// Register creates an inactive account and queues its activation mail.
func (s *Service) Register(ctx context.Context, r Registration) (*User, error) {
	verr := ValidationError{}
	requireField(verr, "first_name", r.FirstName)
	requireField(verr, "last_name", r.LastName)
	if requireField(verr, "email", r.Email) {
		if _, err := mail.ParseAddress(r.Email); err != nil {
			verr.add("email", MsgInvalidEmail)
		}
	}
	checkPassword(verr, "password", r.Password, r.RePassword)
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	hash, err := s.hashPassword(r.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.Create(ctx, &User{
		ID:              uuid.NewString(),
		Email:           strings.TrimSpace(r.Email),
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		PasswordHash:    hash,
		ActivationToken: uuid.NewString(),
		CreatedAt:       time.Now(),
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return nil, ValidationError{"email": {MsgEmailTaken}}
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.send(Mail{Kind: MailActivation, Email: user.Email, UID: user.ID, Token: user.ActivationToken})
	return user, nil
}

// Activate enables the account uid when token matches its activation token.
func (s *Service) Activate(ctx context.Context, uid, token string) error {
	user, err := s.userByUID(ctx, uid)
	if err != nil {
		return err
	}
	if user.Active {
		return ErrStaleToken
	}
	if !tokensEqual(user.ActivationToken, token) {
		return ValidationError{"token": {MsgInvalidToken}}
	}

	user.Active = true
	user.ActivationToken = ""
	return s.repo.Update(ctx, user)
}

// Authenticate returns the active user owning email and password.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.Active || !checkPasswordHash(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// RequestPasswordReset queues a reset mail for an active account. Unknown
// addresses are accepted silently so callers cannot probe for accounts.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	verr := ValidationError{}
	if !requireField(verr, "email", email) {
		return verr
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	if !user.Active {
		return nil
	}

	user.ResetToken = uuid.NewString()
	if err := s.repo.Update(ctx, user); err != nil {
		return err
	}

	s.send(Mail{Kind: MailPasswordReset, Email: user.Email, UID: user.ID, Token: user.ResetToken})
	return nil
}

// ConfirmPasswordReset sets a new password when uid and token match a
// pending reset. The token is single use.
func (s *Service) ConfirmPasswordReset(ctx context.Context, r PasswordReset) error {
	user, err := s.userByUID(ctx, r.UID)
	if err != nil {
		return err
	}
	if user.ResetToken == "" || !tokensEqual(user.ResetToken, r.Token) {
		return ValidationError{"token": {MsgInvalidToken}}
	}

	verr := ValidationError{}
	checkPassword(verr, "new_password", r.NewPassword, r.ReNewPassword)
	if err := verr.orNil(); err != nil {
		return err
	}

	hash, err := s.hashPassword(r.NewPassword)
	if err != nil {
		return err
	}

	user.PasswordHash = hash
	user.ResetToken = ""
	return s.repo.Update(ctx, user)
}

// Outbox returns a copy of every mail sent so far.
func (s *Service) Outbox() []Mail {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Mail(nil), s.outbox...)
}

// LastMail returns the most recent mail of kind sent to email.
func (s *Service) LastMail(kind MailKind, email string) (Mail, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.outbox) - 1; i >= 0; i-- {
		m := s.outbox[i]
		if m.Kind == kind && strings.EqualFold(m.Email, email) {
			return m, true
		}
	}
	return Mail{}, false
}

func (s *Service) send(m Mail) {
	s.mu.Lock()
	s.outbox = append(s.outbox, m)
	s.mu.Unlock()
}

func (s *Service) userByUID(ctx context.Context, uid string) (*User, error) {
	if strings.TrimSpace(uid) == "" {
		return nil, ValidationError{"uid": {MsgInvalidUID}}
	}
	user, err := s.repo.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ValidationError{"uid": {MsgInvalidUID}}
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) hashPassword(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

func checkPasswordHash(hash []byte, password string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}

func tokensEqual(want, got string) bool {
	return want != "" && subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}

func requireField(verr ValidationError, field, value string) bool {
	if strings.TrimSpace(value) == "" {
		verr.add(field, MsgBlank)
		return false
	}
	return true
}

func checkPassword(verr ValidationError, field, password, repeat string) {
	if !requireField(verr, field, password) {
		return
	}
	if len(password) < minPasswordLength {
		verr.add(field, MsgPasswordTooShort)
		return
	}
	if password != repeat {
		verr.add("non_field_errors", MsgPasswordMismatch)
	}
}
