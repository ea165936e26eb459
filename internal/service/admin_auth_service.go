package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AdminCredential is one entry of the static administrator list. The
// credential list is deliberately simple configuration, not a user
// system.
type AdminCredential struct {
	Username     string
	PasswordHash string
}

type AdminAuthService interface {
	Login(username, password string) (string, error)
}

type adminAuthService struct {
	creds    []AdminCredential
	secret   []byte
	tokenTTL time.Duration
}

func NewAdminAuthService(creds []AdminCredential, secret string, tokenTTL time.Duration) AdminAuthService {
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	return &adminAuthService{creds: creds, secret: []byte(secret), tokenTTL: tokenTTL}
}

// ParseAdminCredentials reads "user:bcrypt-hash,user2:bcrypt-hash" as
// supplied via ADMIN_CREDENTIALS. Bcrypt hashes contain no ':' or ',',
// so the split is unambiguous.
func ParseAdminCredentials(raw string) ([]AdminCredential, error) {
	var creds []AdminCredential
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, errors.New("malformed admin credential entry")
		}
		creds = append(creds, AdminCredential{Username: parts[0], PasswordHash: parts[1]})
	}
	if len(creds) == 0 {
		return nil, errors.New("no admin credentials configured")
	}
	return creds, nil
}

func (s *adminAuthService) Login(username, password string) (string, error) {
	var match *AdminCredential
	for i := range s.creds {
		if s.creds[i].Username == username {
			match = &s.creds[i]
			break
		}
	}
	if match == nil {
		return "", errors.New("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(match.PasswordHash), []byte(password)); err != nil {
		return "", errors.New("invalid credentials")
	}

	if len(s.secret) == 0 {
		return "", errors.New("JWT_SECRET not set")
	}

	claims := jwt.MapClaims{
		"sub": username,
		"exp": time.Now().Add(s.tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// HashPassword produces a bcrypt hash for the credential list.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}
