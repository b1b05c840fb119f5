package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/yungbote/modelhub-backend/internal/data/repos"
	types "github.com/yungbote/modelhub-backend/internal/domain"
	domainagg "github.com/yungbote/modelhub-backend/internal/domain/aggregates"
	"github.com/yungbote/modelhub-backend/internal/domain/roles"
	"github.com/yungbote/modelhub-backend/internal/platform/apierr"
	"github.com/yungbote/modelhub-backend/internal/platform/dbctx"
	"github.com/yungbote/modelhub-backend/internal/platform/logger"
)

var ErrInvalidCredentials = apierr.New(http.StatusUnauthorized, "invalid_credentials", errors.New("invalid credentials"))

var ErrInvalidToken = apierr.New(http.StatusUnauthorized, "invalid_token", errors.New("invalid or expired token"))

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	RoleName string `json:"role"`
}

func (r CreateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(3, 150)),
		validation.Field(&r.Email, validation.Required, validation.Match(emailPattern)),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 72)),
		validation.Field(&r.RoleName, validation.By(func(v interface{}) error {
			s, _ := v.(string)
			if s != "" && !roles.Parse(s).Valid() {
				return errors.New("unknown role")
			}
			return nil
		})),
	)
}

type AuthService interface {
	// Login returns the active user matching the credentials. Tokens are
	// issued elsewhere.
	Login(ctx context.Context, username, password string) (*types.User, error)
	// ResolveToken verifies an HS256 bearer token and returns its subject.
	ResolveToken(ctx context.Context, token string) (uuid.UUID, error)
	CreateUser(ctx context.Context, req CreateUserRequest) (*types.User, error)
}

type authService struct {
	log          *logger.Logger
	users        repos.UserRepo
	roles        repos.RoleRepo
	jwtSecretKey string
}

func NewAuthService(log *logger.Logger, users repos.UserRepo, roleRepo repos.RoleRepo, jwtSecretKey string) AuthService {
	return &authService{
		log:          log.With("service", "AuthService"),
		users:        users,
		roles:        roleRepo,
		jwtSecretKey: jwtSecretKey,
	}
}

func (s *authService) Login(ctx context.Context, username, password string) (*types.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	u, err := s.users.GetByUsername(dbctx.Context{Ctx: ctx}, username)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, "AuthService.Login", err)
	}
	if u == nil || !u.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *authService) ResolveToken(ctx context.Context, token string) (uuid.UUID, error) {
	token = strings.TrimSpace(token)
	if token == "" || s.jwtSecretKey == "" {
		return uuid.Nil, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.jwtSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		s.log.Debug("Token rejected", "error", err)
		return uuid.Nil, ErrInvalidToken
	}
	sub, err := parsed.Claims.GetSubject()
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	id, err := uuid.Parse(sub)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}

func (s *authService) CreateUser(ctx context.Context, req CreateUserRequest) (*types.User, error) {
	const op = "AuthService.CreateUser"
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.RoleName = strings.TrimSpace(req.RoleName)
	if err := req.Validate(); err != nil {
		return nil, domainagg.Invalid(op, err.Error())
	}
	roleName := roles.Visitor.String()
	if req.RoleName != "" {
		roleName = roles.Parse(req.RoleName).String()
	}

	dbc := dbctx.Context{Ctx: ctx}
	role, err := s.roles.GetByName(dbc, roleName)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if role == nil {
		return nil, domainagg.NewError(domainagg.CodePreconditionFailed, op, "role "+roleName+" is not seeded", nil)
	}
	existing, err := s.users.GetByUsername(dbc, req.Username)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if existing != nil {
		return nil, domainagg.NewError(domainagg.CodeConflict, op, "username already taken", nil)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	created, err := s.users.Create(dbc, []*types.User{{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		RoleID:       role.ID,
		IsActive:     true,
	}})
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeConflict, op, err)
	}
	u := created[0]
	u.Role = role
	s.log.Info("User created", "user_id", u.ID, "role", roleName)
	return u, nil
}
