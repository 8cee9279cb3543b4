// Package authz evaluates the operation access policy.
package authz

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/open-policy-agent/opa/rego"

	"DirectoryServer/internal/domain"
)

//go:embed policy.rego
var defaultPolicy string

const allowQuery = "data.directory.authz.allow"

type Authorizer struct {
	query rego.PreparedEvalQuery
}

// New compiles the built-in policy.
func New(ctx context.Context) (*Authorizer, error) {
	return NewWithPolicy(ctx, defaultPolicy)
}

// NewWithPolicy compiles src, which must define data.directory.authz.allow.
func NewWithPolicy(ctx context.Context, src string) (*Authorizer, error) {
	q, err := rego.New(
		rego.Query(allowQuery),
		rego.Module("policy.rego", src),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare policy: %w", err)
	}
	return &Authorizer{query: q}, nil
}

// Authorize reports whether sess may run operation against data owned by
// ownerID. A denied anonymous caller gets domain.ErrUnauthorized; a denied
// authenticated caller gets domain.ErrForbidden.
func (a *Authorizer) Authorize(ctx context.Context, operation string, sess *domain.Session, ownerID string) error {
	input := map[string]any{
		"operation": operation,
		"owner_id":  ownerID,
	}
	if sess != nil {
		input["session"] = map[string]any{
			"user_id":  sess.User.ID,
			"username": sess.User.Username,
		}
	}

	rs, err := a.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return fmt.Errorf("evaluate policy: %w", err)
	}
	if allowed(rs) {
		return nil
	}
	if sess == nil {
		return domain.ErrUnauthorized
	}
	return domain.ErrForbidden
}

func allowed(rs rego.ResultSet) bool {
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false
	}
	ok, _ := rs[0].Expressions[0].Value.(bool)
	return ok
}
