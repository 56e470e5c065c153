package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/MrEthical07/tokenAuth"
	"github.com/MrEthical07/tokenAuth/middleware"
	"go.uber.org/zap"
)

const (
	detailBadCredentials = "Invalid username or password."
	detailTokenInvalid   = "Invalid or expired token."
	detailRefreshInvalid = "Invalid refresh token."
	detailRefreshRevoked = "Refresh token revoked."
	detailAccountExists  = "Username or Email already exists."
	detailRateLimited    = "Too many login attempts. Try again later."
	detailUnavailable    = "Service temporarily unavailable."
	detailInternal       = "Internal server error."
	detailBadRequest     = "Malformed request body."

	maxBodyBytes = 1 << 20
)

// Options configures [Handler].
type Options struct {
	// Prefix defaults to "/auth".
	Prefix string
	Logger *zap.Logger
	// Metrics, when set, is mounted at GET /metrics.
	Metrics http.Handler
}

type api struct {
	engine *tokenAuth.Engine
	logger *zap.Logger
}

// Handler builds the route tree. The returned handler is wrapped with
// [middleware.RequestLogger].
func Handler(engine *tokenAuth.Engine, opts Options) http.Handler {
	prefix := strings.TrimRight(opts.Prefix, "/")
	if opts.Prefix == "" {
		prefix = "/auth"
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &api{engine: engine, logger: logger.Named("httpapi")}
	guard := middleware.Guard(engine)

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+prefix+"/{$}", a.register)
	mux.HandleFunc("POST "+prefix+"/token", a.login)
	mux.HandleFunc("POST "+prefix+"/refresh", a.refresh)
	mux.HandleFunc("POST "+prefix+"/logout", a.logout)
	mux.Handle("GET "+prefix+"/me", guard(http.HandlerFunc(a.me)))
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics)
	}

	return middleware.RequestLogger(logger)(mux)
}

type createUserRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	IsActive  *bool  `json:"is_active"`
}

type userResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
	IsActive  bool   `json:"is_active"`
}

type refreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (a *api) register(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := a.engine.Register(r.Context(), tokenAuth.NewUser{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
		Role:      req.Role,
		IsActive:  req.IsActive,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, userResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      user.Role,
		IsActive:  user.IsActive,
	})
}

func (a *api) login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusBadRequest, detailBadRequest)
		return
	}

	pair, err := a.engine.Login(r.Context(), r.PostForm.Get("username"), r.PostForm.Get("password"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (a *api) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	pair, err := a.engine.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (a *api) logout(w http.ResponseWriter, r *http.Request) {
	var req refreshTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := a.engine.Logout(r.Context(), req.RefreshToken); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully."})
}

func (a *api) me(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFromContext(r.Context())
	writeJSON(w, http.StatusOK, id)
}

func (a *api) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, detail := statusFor(err)
	if status >= http.StatusInternalServerError {
		a.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", tokenAuth.RequestIDFromContext(r.Context())),
			zap.Error(err),
		)
	}
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	writeDetail(w, status, detail)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, tokenAuth.ErrInvalidCredentials):
		return http.StatusUnauthorized, detailBadCredentials
	case errors.Is(err, tokenAuth.ErrRefreshRevoked):
		return http.StatusUnauthorized, detailRefreshRevoked
	case errors.Is(err, tokenAuth.ErrRefreshInvalid):
		return http.StatusUnauthorized, detailRefreshInvalid
	case errors.Is(err, tokenAuth.ErrUnauthorized):
		return http.StatusUnauthorized, detailTokenInvalid
	case errors.Is(err, tokenAuth.ErrAccountExists):
		return http.StatusConflict, detailAccountExists
	case errors.Is(err, tokenAuth.ErrAccountInvalid):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, tokenAuth.ErrLoginRateLimited):
		return http.StatusTooManyRequests, detailRateLimited
	case errors.Is(err, tokenAuth.ErrRevocationUnavailable),
		errors.Is(err, tokenAuth.ErrUserStoreUnavailable):
		return http.StatusServiceUnavailable, detailUnavailable
	default:
		return http.StatusInternalServerError, detailInternal
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeDetail(w, http.StatusBadRequest, detailBadRequest)
		return false
	}
	return true
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
