package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/iurnickita/repairshop/internal/model"
	"github.com/iurnickita/repairshop/internal/policy"
	"github.com/iurnickita/repairshop/internal/store"
	"github.com/iurnickita/repairshop/internal/token"
)

type Auth interface {
	Register(w http.ResponseWriter, r *http.Request)
	Login(w http.ResponseWriter, r *http.Request)
	Users(w http.ResponseWriter, r *http.Request)
	Middleware(capability policy.Capability, h http.HandlerFunc) http.HandlerFunc
	CreateUser(ctx context.Context, input NewUser) (model.User, error)
}

const (
	HeaderUserCodeKey = "X-User-Code"
	HeaderUserRoleKey = "X-User-Role"
	cookieUserToken   = "repairshopUserToken"
)

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidUser        = errors.New("email and password are required")
	ErrInvalidRole        = errors.New("unknown role")
)

type NewUser struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token        string              `json:"token"`
	Role         policy.Role         `json:"role"`
	Name         string              `json:"name"`
	Capabilities []policy.Capability `json:"capabilities"`
}

type auth struct {
	store  store.Store
	issuer *token.Issuer
	zaplog *zap.Logger
}

func NewAuth(store store.Store, issuer *token.Issuer, zaplog *zap.Logger) Auth {
	return &auth{store: store, issuer: issuer, zaplog: zaplog}
}

// CreateUser заводит пользователя с bcrypt-хешем пароля.
func (a *auth) CreateUser(ctx context.Context, input NewUser) (model.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return model.User{}, ErrInvalidUser
	}
	// без роли - USER
	role := policy.RoleUser
	if name := strings.TrimSpace(input.Role); name != "" {
		role = policy.Role(strings.ToUpper(name))
		if !role.Valid() {
			return model.User{}, fmt.Errorf("%w: %q", ErrInvalidRole, input.Role)
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, err
	}

	user := model.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(input.Name),
		PasswordHash: string(hash),
		Role:         string(role),
		CreatedAt:    time.Now().UTC(),
	}
	if err = a.store.UserCreate(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return model.User{}, ErrEmailTaken
		}
		return model.User{}, err
	}
	return user, nil
}

func (a *auth) Register(w http.ResponseWriter, r *http.Request) {
	var input NewUser
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	user, err := a.CreateUser(r.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidUser), errors.Is(err, ErrInvalidRole):
			writeError(w, http.StatusBadRequest, err)
		case errors.Is(err, ErrEmailTaken):
			writeError(w, http.StatusConflict, err)
		default:
			a.zaplog.Error("create user", zap.Error(err))
			writeError(w, http.StatusInternalServerError, errors.New("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (a *auth) Login(w http.ResponseWriter, r *http.Request) {
	var request loginRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	user, err := a.store.UserGetByEmail(r.Context(), strings.ToLower(strings.TrimSpace(request.Email)))
	if err != nil {
		if errors.Is(err, store.ErrNoRows) {
			writeError(w, http.StatusUnauthorized, ErrInvalidCredentials)
			return
		}
		a.zaplog.Error("login", zap.Error(err))
		writeError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(request.Password)) != nil {
		writeError(w, http.StatusUnauthorized, ErrInvalidCredentials)
		return
	}

	role := policy.ParseRole(user.Role)
	tokenString, err := a.issuer.BuildJWTString(user.ID, string(role))
	if err != nil {
		a.zaplog.Error("build token", zap.Error(err))
		writeError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cookieUserToken,
		Value:    tokenString,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(a.issuer.TTL()),
	})
	writeJSON(w, http.StatusOK, loginResponse{
		Token:        tokenString,
		Role:         role,
		Name:         user.Name,
		Capabilities: policy.Capabilities(role),
	})
}

func (a *auth) Users(w http.ResponseWriter, r *http.Request) {
	users, err := a.store.UserList(r.Context())
	if err != nil {
		a.zaplog.Error("list users", zap.Error(err))
		writeError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}
	if users == nil {
		users = []model.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// Middleware пропускает запрос, только если роль из токена владеет capability.
func (a *auth) Middleware(capability policy.Capability, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// получение пользователя из токена
		claims, err := a.getClaims(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, ErrUnauthorized)
			return
		}

		role := policy.ParseRole(claims.Role)
		if !policy.Allows(role, capability) {
			writeError(w, http.StatusForbidden, ErrForbidden)
			return
		}

		// записываем
		r.Header.Set(HeaderUserCodeKey, claims.UserCode)
		r.Header.Set(HeaderUserRoleKey, string(role))

		// передаём управление хендлеру
		h.ServeHTTP(w, r)
	}
}

// getClaims читает токен из заголовка Authorization или из куки.
func (a *auth) getClaims(r *http.Request) (token.Claims, error) {
	tokenString, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		tokenCookie, err := r.Cookie(cookieUserToken)
		if err != nil {
			return token.Claims{}, err
		}
		tokenString = tokenCookie.Value
	}
	return a.issuer.Parse(strings.TrimSpace(tokenString))
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
