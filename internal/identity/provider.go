package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/terraincognita07/comoestou/internal/db"
	"github.com/terraincognita07/comoestou/internal/docstore"
	"github.com/terraincognita07/comoestou/internal/logger"
	"github.com/terraincognita07/comoestou/internal/models"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailInUse              = errors.New("email already in use")
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrFederatedSignInDisabled = errors.New("federated sign-in not configured")
	ErrUserNotFound            = errors.New("user not found")
)

type UserRepository interface {
	FindByUID(uid string) (models.User, error)
	FindByNormalizedEmail(email string) (models.User, error)
	FindByGoogleSubject(subject string) (models.User, error)
	ExistsByNormalizedEmail(email string) (bool, error)
	Create(user *models.User) error
	LinkGoogleSubject(uid string, subject string) error
	UpdatePasswordHash(uid string, passwordHash string) error
}

type ProviderConfig struct {
	SecretKey []byte
	Users     UserRepository
	Profiles  docstore.Store
	Revoker   TokenRevoker
	// Federated may be nil when Google sign-in is not configured.
	Federated FederatedVerifier
}

// Provider signs users up and in, and issues the sessions that identify
// them on later requests.
type Provider struct {
	users     UserRepository
	profiles  docstore.Store
	revoker   TokenRevoker
	federated FederatedVerifier
	tokens    *tokenIssuer
}

func NewProvider(cfg ProviderConfig) (*Provider, error) {
	if cfg.Users == nil || cfg.Profiles == nil {
		return nil, errors.New("identity provider requires users and profiles")
	}
	tokens, err := newTokenIssuer(cfg.SecretKey)
	if err != nil {
		return nil, err
	}
	revoker := cfg.Revoker
	if revoker == nil {
		revoker = NewMemoryTokenRevoker()
	}
	return &Provider{
		users:     cfg.Users,
		profiles:  cfg.Profiles,
		revoker:   revoker,
		federated: cfg.Federated,
		tokens:    tokens,
	}, nil
}

func ProfilePath(uid string) string {
	return "users/" + uid
}

func (provider *Provider) SignUp(ctx context.Context, email string, password string, displayName string) (User, error) {
	input, err := NormalizeSignUpInput(SignUpInput{Email: email, Password: password, DisplayName: displayName})
	if err != nil {
		return User{}, err
	}

	exists, err := provider.users.ExistsByNormalizedEmail(input.Email)
	if err != nil {
		return User{}, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return User{}, ErrEmailInUse
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	record := models.User{
		UID:          uuid.NewString(),
		Email:        input.Email,
		DisplayName:  input.DisplayName,
		PasswordHash: string(passwordHash),
	}
	if err := provider.users.Create(&record); err != nil {
		if errors.Is(err, db.ErrEmailTaken) {
			return User{}, ErrEmailInUse
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}

	// The account exists from here on. A missing profile is written again
	// on the next sign-in.
	user := userFromModel(record)
	provider.ensureProfile(ctx, user)
	logger.Info("user registered", "uid", user.UID, "provider", models.ProviderPassword)
	return user, nil
}

func (provider *Provider) SignIn(ctx context.Context, email string, password string) (User, error) {
	normalizedEmail, password, err := NormalizeSignInInput(email, password)
	if err != nil {
		return User{}, err
	}

	record, err := provider.users.FindByNormalizedEmail(normalizedEmail)
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, fmt.Errorf("load user: %w", err)
	}
	if strings.TrimSpace(record.PasswordHash) == "" {
		return User{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}

	user := userFromModel(record)
	provider.ensureProfile(ctx, user)
	return user, nil
}

// SignInWithFederatedCredential accepts a Google ID token. The account is
// found by Google subject, then by verified email, and created otherwise.
func (provider *Provider) SignInWithFederatedCredential(ctx context.Context, idToken string) (User, error) {
	if provider.federated == nil {
		return User{}, ErrFederatedSignInDisabled
	}
	identity, err := provider.federated.Verify(ctx, idToken)
	if err != nil {
		return User{}, err
	}

	record, err := provider.users.FindByGoogleSubject(identity.Subject)
	switch {
	case err == nil:
	case errors.Is(err, db.ErrUserNotFound):
		record, err = provider.linkOrCreateFederatedUser(identity)
		if err != nil {
			return User{}, err
		}
	default:
		return User{}, fmt.Errorf("load user: %w", err)
	}

	user := userFromModel(record)
	provider.ensureProfile(ctx, user)
	return user, nil
}

func (provider *Provider) linkOrCreateFederatedUser(identity FederatedIdentity) (models.User, error) {
	email := NormalizeEmail(identity.Email)
	if email == "" || !identity.EmailVerified {
		return models.User{}, fmt.Errorf("%w: verified email required", ErrInvalidFederatedToken)
	}

	record, err := provider.users.FindByNormalizedEmail(email)
	if err == nil {
		if err := provider.users.LinkGoogleSubject(record.UID, identity.Subject); err != nil {
			return models.User{}, fmt.Errorf("link google account: %w", err)
		}
		subject := identity.Subject
		record.GoogleSubject = &subject
		return record, nil
	}
	if !errors.Is(err, db.ErrUserNotFound) {
		return models.User{}, fmt.Errorf("load user: %w", err)
	}

	subject := identity.Subject
	record = models.User{
		UID:           uuid.NewString(),
		Email:         email,
		DisplayName:   identity.Name,
		PhotoURL:      identity.Picture,
		GoogleSubject: &subject,
	}
	if err := provider.users.Create(&record); err != nil {
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	logger.Info("user registered", "uid", record.UID, "provider", models.ProviderGoogle)
	return record, nil
}

// IssueSession signs a session for user. remember extends its lifetime.
func (provider *Provider) IssueSession(user User, remember bool) (SessionToken, error) {
	ttl := DefaultSessionTTL
	if remember {
		ttl = RememberSessionTTL
	}
	return provider.tokens.issue(user.UID, ttl)
}

// SignOut revokes token for the rest of its lifetime. Invalid tokens are
// already unusable and are ignored.
func (provider *Provider) SignOut(ctx context.Context, token string) error {
	claims, err := provider.tokens.parse(token)
	if err != nil {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if err := provider.revoker.Revoke(ctx, token, ttl); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (provider *Provider) ResolveSession(ctx context.Context, token string) (User, error) {
	claims, err := provider.tokens.parse(token)
	if err != nil {
		return User{}, err
	}
	revoked, err := provider.revoker.IsRevoked(ctx, token)
	if err != nil {
		return User{}, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return User{}, ErrInvalidSession
	}

	record, err := provider.users.FindByUID(claims.UID)
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			return User{}, ErrInvalidSession
		}
		return User{}, fmt.Errorf("load user: %w", err)
	}
	return userFromModel(record), nil
}

// FindByEmail looks up an account for operator tooling.
func (provider *Provider) FindByEmail(email string) (User, error) {
	normalizedEmail := NormalizeEmail(email)
	if normalizedEmail == "" {
		return User{}, ErrInvalidEmail
	}
	record, err := provider.users.FindByNormalizedEmail(normalizedEmail)
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}
	return userFromModel(record), nil
}

// SetPassword replaces the password of uid. It does not revoke sessions
// already issued.
func (provider *Provider) SetPassword(uid string, password string) error {
	if len([]rune(password)) < MinPasswordLength {
		return ErrWeakPassword
	}
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := provider.users.UpdatePasswordHash(uid, string(passwordHash)); err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// ensureProfile writes users/{uid} only when it does not exist yet, so a
// profile edited elsewhere is never overwritten on sign-in.
func (provider *Provider) ensureProfile(ctx context.Context, user User) {
	path := ProfilePath(user.UID)
	_, err := provider.profiles.Get(ctx, path)
	if err == nil {
		return
	}
	if !errors.Is(err, docstore.ErrNotFound) {
		logger.Warn("load profile failed", "uid", user.UID, "error", err)
		return
	}
	if _, err := provider.profiles.Set(ctx, path, profileFields(user)); err != nil {
		logger.Warn("create profile failed", "uid", user.UID, "error", err)
	}
}

func profileFields(user User) map[string]any {
	profile := user.Profile()
	fields := map[string]any{
		"uid":         profile.UID,
		"displayName": profile.DisplayName,
		"email":       profile.Email,
		"photoURL":    nil,
	}
	if profile.PhotoURL != nil {
		fields["photoURL"] = *profile.PhotoURL
	}
	return fields
}
