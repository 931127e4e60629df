// Package services contains server-side business logic. This file implements
// UserService: password login, JWT identity resolution, the user directory
// used for notification fan-out, and bulk import of a users file.
package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/gophdrop/internal/common"
	"github.com/dmitrijs2005/gophdrop/internal/cryptox"
	"github.com/dmitrijs2005/gophdrop/internal/dbx"
	"github.com/dmitrijs2005/gophdrop/internal/logging"
	"github.com/dmitrijs2005/gophdrop/internal/server/auth"
	"github.com/dmitrijs2005/gophdrop/internal/server/config"
	"github.com/dmitrijs2005/gophdrop/internal/server/models"
	"github.com/dmitrijs2005/gophdrop/internal/server/repositories/repomanager"
)

const (
	GuestUsername = "guest"
	RoleGuest     = "guest"
	RoleUser      = "user"
)

// UserService resolves identities. db may be nil when the repository
// manager keeps users in memory.
type UserService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
	guestHomeDir                string
	admins                      map[string]struct{}
	logger                      logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, l logging.Logger) *UserService {
	admins := make(map[string]struct{}, len(cfg.AdminUsers))
	for _, a := range cfg.AdminUsers {
		admins[a] = struct{}{}
	}

	return &UserService{
		db:                          db,
		repomanager:                 m,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		guestHomeDir:                cfg.GuestHomeDir,
		admins:                      admins,
		logger:                      l.With("module", "users"),
	}
}

func (s *UserService) repoHandle() dbx.DBTX {
	if s.db == nil {
		return nil
	}
	return s.db
}

// Guest is the identity of requests that carry no token.
func (s *UserService) Guest() *models.User {
	return &models.User{Username: GuestUsername, Name: "Guest", Role: RoleGuest, HomeDir: s.guestHomeDir}
}

// IsAdmin reports whether u may use the admin operations.
func (s *UserService) IsAdmin(u *models.User) bool {
	if u == nil {
		return false
	}
	if _, ok := s.admins[u.Username]; ok {
		return true
	}
	return u.Role == common.RoleAdmin
}

func (s *UserService) Login(ctx context.Context, username, password string) (string, error) {
	repo := s.repomanager.Users(s.repoHandle())
	user, err := repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorUnauthorized
		}
		s.logger.Error(ctx, "user lookup failed", "username", username, "error", err)
		return "", common.ErrorInternal
	}

	if !cryptox.VerifyPassword(password, user.PasswordHash, user.Salt) {
		return "", common.ErrorUnauthorized
	}

	role := user.Role
	if s.IsAdmin(user) {
		role = common.RoleAdmin
	}

	token, err := auth.GenerateToken(user.Username, role, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return "", common.ErrorInternal
	}

	s.logger.Info(ctx, "user logged in", "username", user.Username)
	return token, nil
}

// FromToken returns the current state of the user a token was issued to.
func (s *UserService) FromToken(ctx context.Context, token string) (*models.User, error) {
	claims, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	repo := s.repomanager.Users(s.repoHandle())
	user, err := repo.GetByUsername(ctx, claims.Username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	return user, nil
}

// All lists every user as a notification recipient.
func (s *UserService) All(ctx context.Context) ([]models.Recipient, error) {
	users, err := s.repomanager.Users(s.repoHandle()).List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.Recipient, 0, len(users))
	for i := range users {
		out = append(out, users[i].Recipient())
	}
	return out, nil
}

type fileUser struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	HomeDir  string `json:"homedir"`
	Password string `json:"password"`
}

// parseUsersFile accepts either an array of users or an object keyed by
// user id, the layout of the classic users.json.
func parseUsersFile(b []byte) ([]fileUser, error) {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var list []fileUser
		if err := json.Unmarshal(b, &list); err != nil {
			return nil, err
		}
		return list, nil
	}

	var byID map[string]fileUser
	if err := json.Unmarshal(b, &byID); err != nil {
		return nil, err
	}
	list := make([]fileUser, 0, len(byID))
	for _, u := range byID {
		list = append(list, u)
	}
	return list, nil
}

func (f fileUser) toModel() models.User {
	u := models.User{
		Username: f.Username,
		Name:     f.Name,
		Email:    f.Email,
		Role:     f.Role,
		HomeDir:  f.HomeDir,
	}
	if u.Role == "" {
		u.Role = RoleUser
	}

	switch {
	case f.Password == "":
	case cryptox.IsBcrypt(f.Password):
		u.PasswordHash = []byte(f.Password)
		u.Salt = []byte{}
	default:
		u.PasswordHash, u.Salt = cryptox.HashPassword(f.Password)
	}
	return u
}

// ImportFile upserts every user of a users file in one transaction and
// returns how many were imported. Entries without a username are skipped.
// Plain-text passwords are hashed; bcrypt hashes are stored as they are.
func (s *UserService) ImportFile(ctx context.Context, path string) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read users file: %w", err)
	}

	list, err := parseUsersFile(b)
	if err != nil {
		return 0, fmt.Errorf("decode users file: %w", err)
	}

	imported := 0
	importAll := func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)
		for _, f := range list {
			if f.Username == "" {
				continue
			}
			u := f.toModel()
			if _, err := repo.Upsert(ctx, &u); err != nil {
				return fmt.Errorf("import %s: %w", f.Username, err)
			}
			imported++
		}
		return nil
	}

	if s.db == nil {
		err = importAll(ctx, nil)
	} else {
		err = dbx.WithTx(ctx, s.db, nil, importAll)
	}
	if err != nil {
		return 0, err
	}

	s.logger.Info(ctx, "users imported", "file", path, "count", imported)
	return imported, nil
}
