package service

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	jwtlib "UniChat/tools/security"

	"github.com/pkg/errors"
)

// Account is the demo-grade user directory entry. Identity is derived
// from the email so a returning user keeps the same id across logins.
type Account struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func Resolve(email, name string) (Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return Account{}, errors.New("invalid email")
	}
	if name = strings.TrimSpace(name); name == "" {
		name = email[:strings.Index(email, "@")]
	}
	sum := sha256.Sum256([]byte(email))
	return Account{
		ID:    "u_" + hex.EncodeToString(sum[:])[:10],
		Name:  name,
		Email: email,
	}, nil
}

// Login resolves the account and issues an access token carrying the
// identity claims the gateway needs for presence entries.
func Login(opts jwtlib.Options, email, name string) (Account, string, time.Time, error) {
	acct, err := Resolve(email, name)
	if err != nil {
		return Account{}, "", time.Time{}, err
	}
	token, _, exp, err := jwtlib.Generate(opts, jwtlib.Claims{
		UserID: acct.ID,
		Name:   acct.Name,
		Email:  acct.Email,
	})
	if err != nil {
		return Account{}, "", time.Time{}, errors.Wrap(err, "sign token")
	}
	return acct, token, exp, nil
}
