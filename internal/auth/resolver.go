package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/geocoder89/taskhub/internal/domain/user"
)

// UserLookup is the single point read the resolver needs.
type UserLookup interface {
	GetByUsername(ctx context.Context, username string) (user.User, error)
}

type TokenVerifier interface {
	Verify(token string) (string, error)
}

// FailureReason says which branch of resolution failed. It is for logs and
// metrics only and must never reach a response.
type FailureReason string

const (
	ReasonInvalidToken   FailureReason = "invalid_token"
	ReasonMissingSubject FailureReason = "missing_subject"
	ReasonUnknownUser    FailureReason = "unknown_user"
	ReasonLookupError    FailureReason = "lookup_error"
)

// resolution is the internal tagged result; failure is empty on success.
type resolution struct {
	user    user.User
	failure FailureReason
	cause   error
}

type Resolver struct {
	tokens    TokenVerifier
	users     UserLookup
	log       *slog.Logger
	onFailure func(FailureReason)
}

func NewResolver(tokens TokenVerifier, users UserLookup, log *slog.Logger, onFailure func(FailureReason)) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	if onFailure == nil {
		onFailure = func(FailureReason) {}
	}

	return &Resolver{
		tokens:    tokens,
		users:     users,
		log:       log,
		onFailure: onFailure,
	}
}

// Resolve turns a bearer token into the user it was issued for. All failures
// are reported as ErrUnauthenticated.
func (r *Resolver) Resolve(ctx context.Context, token string) (user.User, error) {
	res := r.resolve(ctx, token)

	if res.failure == "" {
		return res.user, nil
	}

	r.onFailure(res.failure)

	if res.failure == ReasonLookupError {
		r.log.ErrorContext(ctx, "auth_resolve_failed", "reason", string(res.failure), "err", res.cause)
	} else {
		r.log.WarnContext(ctx, "auth_resolve_failed", "reason", string(res.failure))
	}

	return user.User{}, ErrUnauthenticated
}

func (r *Resolver) resolve(ctx context.Context, token string) resolution {
	subject, err := r.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, ErrMissingSubject) {
			return resolution{failure: ReasonMissingSubject, cause: err}
		}
		return resolution{failure: ReasonInvalidToken, cause: err}
	}

	u, err := r.users.GetByUsername(ctx, subject)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return resolution{failure: ReasonUnknownUser, cause: err}
		}
		return resolution{failure: ReasonLookupError, cause: err}
	}

	return resolution{user: u}
}
