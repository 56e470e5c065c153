package flows

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// RegisterRequest is the flow-local registration input.
type RegisterRequest struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Password  string
	Role      string
	IsActive  bool
}

type RegisterMetrics struct {
	AccountCreated   int
	AccountDuplicate int
}

type RegisterEvents struct {
	AccountCreated   string
	AccountFailure   string
	AccountDuplicate string
}

type RegisterErrors struct {
	EngineNotReady       error
	AccountInvalid       error
	AccountExists        error
	UserStoreUnavailable error
}

// RegisterDeps captures registration dependencies.
type RegisterDeps struct {
	HashPassword func(string) (string, error)
	CreateUser   func(context.Context, UserRecord) (UserRecord, error)

	MetricInc func(int)
	EmitAudit AuditFunc

	Metrics RegisterMetrics
	Events  RegisterEvents
	Errors  RegisterErrors
}

// RunRegister validates req, hashes the password and creates the account.
func RunRegister(ctx context.Context, req RegisterRequest, deps RegisterDeps) (UserRecord, error) {
	if deps.HashPassword == nil || deps.CreateUser == nil {
		return UserRecord{}, deps.Errors.EngineNotReady
	}
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, string, bool, string, int64, error, func() map[string]string) {}
	}

	if field := missingField(req); field != "" {
		deps.EmitAudit(ctx, deps.Events.AccountFailure, false, req.Username, 0, deps.Errors.AccountInvalid, func() map[string]string {
			return map[string]string{"missing": field}
		})
		return UserRecord{}, fmt.Errorf("%w: %s is required", deps.Errors.AccountInvalid, field)
	}

	hash, err := deps.HashPassword(req.Password)
	if err != nil {
		return UserRecord{}, fmt.Errorf("%w: %v", deps.Errors.AccountInvalid, err)
	}
	req.Password = ""

	created, err := deps.CreateUser(ctx, UserRecord{
		Username:     req.Username,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: hash,
		Role:         req.Role,
		IsActive:     req.IsActive,
	})
	if err != nil {
		if deps.Errors.AccountExists != nil && errors.Is(err, deps.Errors.AccountExists) {
			deps.MetricInc(deps.Metrics.AccountDuplicate)
			deps.EmitAudit(ctx, deps.Events.AccountDuplicate, false, req.Username, 0, deps.Errors.AccountExists, nil)
			return UserRecord{}, deps.Errors.AccountExists
		}
		deps.EmitAudit(ctx, deps.Events.AccountFailure, false, req.Username, 0, deps.Errors.UserStoreUnavailable, nil)
		return UserRecord{}, fmt.Errorf("%w: %v", deps.Errors.UserStoreUnavailable, err)
	}

	deps.MetricInc(deps.Metrics.AccountCreated)
	deps.EmitAudit(ctx, deps.Events.AccountCreated, true, created.Username, created.ID, nil, nil)
	return created, nil
}

func missingField(req RegisterRequest) string {
	switch {
	case strings.TrimSpace(req.Username) == "":
		return "username"
	case strings.TrimSpace(req.Email) == "":
		return "email"
	case req.Password == "":
		return "password"
	case strings.TrimSpace(req.Role) == "":
		return "role"
	}
	return ""
}
