package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/domain/entities"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/domain/providers"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/domain/repositories"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/infrastructure/observability"
	apperrors "github.com/IPD-Now/IPD-Now-Admin-Panel/pkg/errors"
)

const minPasswordLength = 8

// SessionClaims are the JWT claims of a hospital session token
type SessionClaims struct {
	jwt.RegisteredClaims
	HospitalName string `json:"hospital_name"`
	LogoURL      string `json:"logo_url,omitempty"`
}

// AuthService issues and verifies hospital session tokens
type AuthService struct {
	hospitals   repositories.HospitalRepository
	revocations providers.CacheProvider
	secret      []byte
	issuer      string
	ttl         time.Duration
	now         func() time.Time
}

// NewAuthService creates a new auth service.
// revocations may be nil, in which case logout cannot revoke tokens early.
func NewAuthService(hospitals repositories.HospitalRepository, revocations providers.CacheProvider, secret []byte, issuer string, ttl time.Duration) *AuthService {
	return &AuthService{
		hospitals:   hospitals,
		revocations: revocations,
		secret:      secret,
		issuer:      issuer,
		ttl:         ttl,
		now:         time.Now,
	}
}

// LoginResult is returned by a successful login
type LoginResult struct {
	Token   string           `json:"token"`
	Session entities.Session `json:"session"`
}

// Login checks the hospital password and issues a session token
func (s *AuthService) Login(ctx context.Context, hospitalID, password string) (*LoginResult, error) {
	invalid := apperrors.NewUnauthorizedError("invalid hospital id or password")

	hospitalID = strings.TrimSpace(hospitalID)
	if hospitalID == "" || password == "" {
		return nil, invalid
	}

	hospital, err := s.hospitals.GetByID(ctx, hospitalID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, invalid
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hospital.PasswordHash), []byte(password)); err != nil {
		observability.HospitalLogger(ctx, hospitalID).Info().Msg("Login rejected")
		return nil, invalid
	}

	now := s.now()
	session := entities.Session{
		HospitalID:   hospital.ID,
		HospitalName: hospital.Name,
		TokenID:      uuid.NewString(),
		ExpiresAt:    now.Add(s.ttl).UTC(),
	}
	if hospital.LogoURL != nil {
		session.LogoURL = *hospital.LogoURL
	}

	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.TokenID,
			Subject:   hospital.ID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
		HospitalName: session.HospitalName,
		LogoURL:      session.LogoURL,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to sign session token", err)
	}

	observability.HospitalLogger(ctx, hospitalID).Info().Msg("Hospital logged in")
	return &LoginResult{Token: token, Session: session}, nil
}

// Authenticate verifies a session token and returns its session
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (entities.Session, error) {
	claims := &SessionClaims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return entities.Session{}, apperrors.NewUnauthorizedError("invalid or expired session token")
	}
	if claims.Subject == "" || claims.ID == "" {
		return entities.Session{}, apperrors.NewUnauthorizedError("session token is missing required claims")
	}

	if s.revocations != nil {
		revoked, err := s.revocations.Exists(ctx, revocationKey(claims.ID))
		if err != nil {
			return entities.Session{}, apperrors.NewExternalError("failed to check session revocation", err)
		}
		if revoked {
			return entities.Session{}, apperrors.NewUnauthorizedError("session has been logged out")
		}
	}

	return entities.Session{
		HospitalID:   claims.Subject,
		HospitalName: claims.HospitalName,
		LogoURL:      claims.LogoURL,
		TokenID:      claims.ID,
		ExpiresAt:    claims.ExpiresAt.Time.UTC(),
	}, nil
}

// Logout revokes the session's token until it would have expired anyway
func (s *AuthService) Logout(ctx context.Context, session entities.Session) error {
	if err := requireSession(session); err != nil {
		return err
	}
	if s.revocations == nil || session.TokenID == "" {
		return nil
	}

	remaining := int(session.ExpiresAt.Sub(s.now()).Seconds()) + 1
	if remaining <= 0 {
		return nil
	}
	if err := s.revocations.Set(ctx, revocationKey(session.TokenID), []byte(session.HospitalID), remaining); err != nil {
		return apperrors.NewExternalError("failed to revoke session", err)
	}

	observability.HospitalLogger(ctx, session.HospitalID).Info().Msg("Hospital logged out")
	return nil
}

// CreateHospitalInput holds the fields of a new hospital account
type CreateHospitalInput struct {
	ID       string
	Name     string
	Password string
	LogoURL  string
}

// CreateHospital registers a hospital account with a bcrypt-hashed password
func (s *AuthService) CreateHospital(ctx context.Context, input CreateHospitalInput) (*entities.Hospital, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("hospital name is required")
	}
	if len(input.Password) < minPasswordLength {
		return nil, apperrors.NewValidationError(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, apperrors.NewValidationError("password is too long")
		}
		return nil, apperrors.NewInternalError("failed to hash password", err)
	}

	id := strings.TrimSpace(input.ID)
	if id == "" {
		id = uuid.NewString()
	}
	hospital := &entities.Hospital{
		ID:           id,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if logo := strings.TrimSpace(input.LogoURL); logo != "" {
		hospital.LogoURL = &logo
	}

	if err := s.hospitals.Create(ctx, hospital); err != nil {
		return nil, err
	}
	return hospital, nil
}

func revocationKey(tokenID string) string {
	return "revoked:" + tokenID
}
