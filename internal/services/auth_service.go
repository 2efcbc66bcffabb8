package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"sweetshop/internal/models"
	"sweetshop/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

// Claims is the payload of an access token.
type Claims struct {
	ID      string `json:"id"`
	IsAdmin bool   `json:"isAdmin"`
	jwt.StandardClaims
}

// AuthResult is returned by a successful registration or login.
type AuthResult struct {
	Account *models.Account
	Token   string
}

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	accountRepo repositories.AccountRepository
	jwtSecret   []byte
	tokenTTL    time.Duration
	now         func() time.Time
}

// NewAuthService creates a new AuthService issuing tokens valid for tokenTTL.
func NewAuthService(accountRepo repositories.AccountRepository, jwtSecret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		accountRepo: accountRepo,
		jwtSecret:   []byte(jwtSecret),
		tokenTTL:    tokenTTL,
		now:         time.Now,
	}
}

// Register creates a non-admin account and issues a token for it.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	// The unique index on email backs up this pre-check; two identical
	// concurrent registrations can still both pass it.
	_, err := s.accountRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &models.Account{
		Name:     name,
		Email:    email,
		Password: string(hashedPassword),
		IsAdmin:  false,
	}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to register account: %w", err)
	}

	token, err := s.IssueToken(account)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Account: account, Token: token}, nil
}

// Login verifies the credentials and issues a token. Unknown emails and
// wrong passwords fail with the same ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	account, err := s.accountRepo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			log.Printf("Login lookup for %s failed: %v", email, err)
		}
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.IssueToken(account)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Account: account, Token: token}, nil
}

// IssueToken signs an HS256 token carrying the account id and admin flag.
func (s *AuthService) IssueToken(account *models.Account) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		ID:      account.ID,
		IsAdmin: account.IsAdmin,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.tokenTTL).Unix(),
		},
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a token, returning its claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	if claims.ExpiresAt == 0 {
		return nil, fmt.Errorf("%w: token has no expiry", ErrInvalidToken)
	}
	return claims, nil
}

// EnsureAdmin makes sure an administrator with the given email exists,
// creating it or promoting an existing account. The password of an existing
// account is left unchanged.
func (s *AuthService) EnsureAdmin(ctx context.Context, name, email, password string) (*models.Account, error) {
	account, err := s.accountRepo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if account.IsAdmin {
			return account, nil
		}
		account.IsAdmin = true
		if err := s.accountRepo.Update(ctx, account); err != nil {
			return nil, fmt.Errorf("failed to promote %s: %w", email, err)
		}
		log.Printf("Promoted account %s to administrator", email)
		return account, nil
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, fmt.Errorf("failed to look up administrator %s: %w", email, err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	account = &models.Account{
		Name:     name,
		Email:    email,
		Password: string(hashedPassword),
		IsAdmin:  true,
	}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create administrator %s: %w", email, err)
	}
	log.Printf("Created administrator account %s", email)
	return account, nil
}
