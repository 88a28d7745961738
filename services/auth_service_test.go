package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRegisterAndLogin(t *testing.T) {
	db := newTestDB(t)
	auth := NewAuthService(db, "test-secret", time.Hour)
	ctx := context.Background()

	user, token, err := auth.Register(ctx, RegisterInput{Username: "Zoë", Email: "Zoe@Example.com", Password: "hunter22"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Level != 1 || user.XPForNextLevel != 100 || user.UsernameKey != "zoe" || user.Email != "zoe@example.com" {
		t.Errorf("new user = %+v", user)
	}
	claims, err := auth.ParseToken(token)
	if err != nil || claims.Subject != user.ID || claims.Username != "Zoë" {
		t.Fatalf("ParseToken = %+v, %v", claims, err)
	}

	if _, _, err := auth.Register(ctx, RegisterInput{Username: "ZOE", Email: "other@example.com", Password: "x"}); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("folded duplicate username: err = %v", err)
	}
	if _, _, err := auth.Register(ctx, RegisterInput{Username: "someone", Email: "zoe@example.com", Password: "x"}); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate email: err = %v", err)
	}
	if _, _, err := auth.Register(ctx, RegisterInput{Username: "x", Email: "not-an-email", Password: "x"}); !errors.Is(err, ErrMissingFields) {
		t.Errorf("bad email: err = %v", err)
	}

	for _, id := range []string{"zoe@example.com", "zoe", "Zoë"} {
		got, _, err := auth.Login(ctx, id, "hunter22")
		if err != nil || got.ID != user.ID {
			t.Errorf("Login(%q) = %v, %v", id, got, err)
		}
	}
	if _, _, err := auth.Login(ctx, "zoe", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("bad password: err = %v", err)
	}
	if _, _, err := auth.Login(ctx, "nobody", "hunter22"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user: err = %v", err)
	}
}

func TestParseTokenRejectsForeignSecret(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "token")
	other := NewAuthService(db, "other-secret", time.Hour)
	token, err := other.IssueToken(user)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewAuthService(db, "test-secret", time.Hour).ParseToken(token); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("err = %v", err)
	}

	expired := NewAuthService(db, "test-secret", time.Hour)
	expired.TTL = -time.Minute
	token, _ = expired.IssueToken(user)
	if _, err := expired.ParseToken(token); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expired token: err = %v", err)
	}
}
