package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"ironready/coach-api/internal/domain"

	"github.com/golang-jwt/jwt/v4"
)

const testSecret = "test-secret"

func TestRegisterAndLogin(t *testing.T) {
	store := newMemStore()
	svc := NewAuthService(fakeUsers{store}, testSecret, time.Hour)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Ana", " Ana@Example.com ", "s3cret!")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.Email != "ana@example.com" || user.Role != domain.RoleUser || user.PasswordHash != "" {
		t.Errorf("user = %+v", user)
	}

	if _, err := svc.Register(ctx, "Ana", "ana@example.com", "other"); !errors.Is(err, ErrUserAlreadyExists) {
		t.Errorf("duplicate: err = %v", err)
	}

	token, loggedIn, err := svc.Login(ctx, "ANA@example.com", "s3cret!")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if loggedIn.ID != user.ID {
		t.Errorf("login user = %s, want %s", loggedIn.ID.Hex(), user.ID.Hex())
	}

	claims := &JWTClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	if claims.UserID != user.ID.Hex() || claims.Role != domain.RoleUser {
		t.Errorf("claims = %+v", claims)
	}

	if _, _, err := svc.Login(ctx, "ana@example.com", "wrong"); !errors.Is(err, ErrAuthenticationFailed) {
		t.Errorf("wrong password: err = %v", err)
	}
	if _, _, err := svc.Login(ctx, "nobody@example.com", "s3cret!"); !errors.Is(err, ErrAuthenticationFailed) {
		t.Errorf("unknown email: err = %v", err)
	}

	me, err := svc.GetUser(ctx, user.ID)
	if err != nil || me.PasswordHash != "" || me.Email != user.Email {
		t.Errorf("GetUser() = %+v, %v", me, err)
	}
}

func TestRegisterRejectsMissingFields(t *testing.T) {
	svc := NewAuthService(fakeUsers{newMemStore()}, testSecret, time.Hour)
	tests := []struct{ name, email, password string }{
		{"", "a@example.com", "pw"},
		{"Ana", "  ", "pw"},
		{"Ana", "a@example.com", ""},
	}
	for _, tt := range tests {
		if _, err := svc.Register(context.Background(), tt.name, tt.email, tt.password); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Register(%q, %q) err = %v, want ErrInvalidInput", tt.name, tt.email, err)
		}
	}
}
