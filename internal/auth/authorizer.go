package auth

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"surveyhub/internal/errors"
	"surveyhub/internal/model"
)

// Policy is the access rule attached to a route.
type Policy int

const (
	// PolicyPublic resolves the caller when possible but never rejects.
	PolicyPublic Policy = iota
	// PolicyParticipant admits anonymous callers by materializing a user for them.
	PolicyParticipant
	// PolicyMember requires a session bound to an existing user.
	PolicyMember
	// PolicyAdmin requires an existing user with the admin flag.
	PolicyAdmin
)

func (p Policy) String() string {
	switch p {
	case PolicyPublic:
		return "public"
	case PolicyParticipant:
		return "participant"
	case PolicyMember:
		return "member"
	case PolicyAdmin:
		return "admin"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// Outcome tags a Decision.
type Outcome int

const (
	Authorized Outcome = iota
	// Materialized means a new anonymous user was created for the caller.
	Materialized
	Rejected
)

// Decision is the result of Authorize. User is set unless the outcome is
// Rejected or the route is public and the caller anonymous.
type Decision struct {
	Outcome Outcome
	User    *model.User
	Reason  string
}

// Err returns the UNAUTHORIZED error of a rejection, or nil.
func (d Decision) Err() error {
	if d.Outcome != Rejected {
		return nil
	}
	return errors.Unauthorized(d.Reason)
}

// UserSource resolves and creates users for authorization.
type UserSource interface {
	// Resolve returns the user for id, reading through the cache.
	Resolve(ctx context.Context, id string) (*model.User, error)
	CreateAnonymous(ctx context.Context) (*model.User, error)
}

// Authorizer applies route policies.
type Authorizer struct {
	users  UserSource
	logger *zap.Logger
}

// NewAuthorizer builds an Authorizer.
func NewAuthorizer(users UserSource, logger *zap.Logger) *Authorizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authorizer{users: users, logger: logger}
}

// Authorize decides whether the caller bound to userID may run a procedure
// guarded by policy. userID is empty for anonymous callers. Only store and
// cache failures are returned as errors.
func (a *Authorizer) Authorize(ctx context.Context, policy Policy, userID string) (Decision, error) {
	if userID == "" {
		switch policy {
		case PolicyPublic:
			return Decision{Outcome: Authorized}, nil
		case PolicyParticipant:
			user, err := a.users.CreateAnonymous(ctx)
			if err != nil {
				return Decision{}, fmt.Errorf("materialize anonymous user: %w", err)
			}
			a.logger.Debug("anonymous user materialized", zap.String("user_id", user.ID))
			return Decision{Outcome: Materialized, User: user}, nil
		default:
			return Decision{Outcome: Rejected, Reason: errors.ReasonNoSession}, nil
		}
	}

	user, err := a.users.Resolve(ctx, userID)
	if err != nil {
		if !errors.IsNotFound(err) {
			return Decision{}, err
		}
		if policy == PolicyPublic {
			return Decision{Outcome: Authorized}, nil
		}
		a.logger.Info("session points to unknown user", zap.String("user_id", userID))
		return Decision{Outcome: Rejected, Reason: errors.ReasonUnknownUser}, nil
	}

	if policy == PolicyAdmin && !user.Admin {
		return Decision{Outcome: Rejected, Reason: errors.ReasonNotAdmin}, nil
	}
	return Decision{Outcome: Authorized, User: user}, nil
}
