package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
)

// Login failure codes. They follow the exception names of hosted identity
// providers so clients can share one message table.
const (
	CodeNotAuthorized         = "NotAuthorizedException"
	CodeUserNotConfirmed      = "UserNotConfirmedException"
	CodeUserNotFound          = "UserNotFoundException"
	CodePasswordResetRequired = "PasswordResetRequiredException"
	CodeInvalidParameter      = "InvalidParameterException"
	CodeInvalidPassword       = "InvalidPasswordException"
	CodeTooManyRequests       = "TooManyRequestsException"
	CodeUserDisabled          = "UserDisabledException"
)

// LoginError is a classified authentication failure.
type LoginError struct {
	Code string
}

func (e *LoginError) Error() string {
	return e.Code
}

var loginMessages = map[string]string{
	CodeNotAuthorized:         "Incorrect username or password.",
	CodeUserNotFound:          "Incorrect username or password.",
	CodeUserNotConfirmed:      "Your account has not been confirmed yet. Ask an administrator to confirm it.",
	CodePasswordResetRequired: "You need to reset your password before signing in.",
	CodeInvalidParameter:      "Enter both a username and a password.",
	CodeInvalidPassword:       fmt.Sprintf("Passwords must be at least %d characters long.", model.MinPasswordLength),
	CodeTooManyRequests:       "Too many attempts. Wait a moment and try again.",
	CodeUserDisabled:          "This account has been disabled.",
}

// LoginMessage maps an authentication error to the text shown to the user.
// Unknown errors get a generic message so internals never leak.
func LoginMessage(err error) string {
	if err == nil {
		return ""
	}
	var le *LoginError
	if errors.As(err, &le) {
		if msg, ok := loginMessages[le.Code]; ok {
			return msg
		}
	}
	return "Something went wrong while signing in. Please try again."
}

// dummyHash keeps the cost of a failed lookup close to a wrong password.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("zaloga-dummy-password"), bcrypt.DefaultCost)

// Authenticate checks a username and password. Failures are *LoginError;
// anything else is an internal error.
func Authenticate(ctx context.Context, db *sql.DB, username, password string) (*model.User, error) {
	if username == "" || password == "" {
		return nil, &LoginError{Code: CodeInvalidParameter}
	}

	user, err := store.GetUserByUsername(ctx, db, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, &LoginError{Code: CodeUserNotFound}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, &LoginError{Code: CodeNotAuthorized}
	}
	if user.DeletedAt != nil {
		return nil, &LoginError{Code: CodeUserDisabled}
	}
	if !user.Confirmed {
		return nil, &LoginError{Code: CodeUserNotConfirmed}
	}
	return user, nil
}
