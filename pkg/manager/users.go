package manager

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Dusk-Labs/dim-sub002/pkg/auth"
	"github.com/Dusk-Labs/dim-sub002/pkg/logger"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage"
	"github.com/google/uuid"
)

// ErrInviteRequired is returned when registering without a claimable invite once an owner exists
var ErrInviteRequired = fmt.Errorf("%w: a valid invite is required", auth.ErrInvalidCredentials)

// Login checks the password and issues a token
func (m *MediaManager) Login(ctx context.Context, req Credentials) (Token, error) {
	var user *storage.User
	err := m.readTx(ctx, func(tx storage.Tx) error {
		var err error
		user, err = tx.GetUserByUsername(ctx, req.Username)
		return err
	})
	if errors.Is(err, storage.ErrNotFound) {
		return Token{}, auth.ErrInvalidCredentials
	}
	if err != nil {
		return Token{}, err
	}

	if err := auth.CheckPassword(user.Password, req.Password); err != nil {
		return Token{}, err
	}

	token, err := m.auth.Issue(user.ID, user.RoleList())
	if err != nil {
		return Token{}, err
	}
	logger.FromCtx(ctx).Debugw("user logged in", "user", user.ID)
	return Token{Token: token}, nil
}

// Register creates an account. The first account becomes the owner, every later one must
// claim an unused invite.
func (m *MediaManager) Register(ctx context.Context, req RegisterRequest) (Token, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return Token{}, fmt.Errorf("%w: username and password are required", ErrInvalidRequest)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return Token{}, err
	}

	var (
		id    int64
		roles []storage.Role
	)
	err = m.store.WithWriteTx(ctx, func(tx storage.Tx) error {
		_, err := tx.GetUserByUsername(ctx, username)
		if err == nil {
			return auth.ErrUsernameNotAvailable
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return err
		}

		users, err := tx.CountUsers(ctx)
		if err != nil {
			return err
		}

		user := storage.InsertableUser{Username: username, Password: hash}
		if users == 0 {
			user.Roles = []storage.Role{storage.RoleOwner}
		} else {
			claimable, err := tx.InviteClaimable(ctx, req.InviteToken)
			if err != nil {
				return err
			}
			if !claimable {
				return ErrInviteRequired
			}
			user.Roles = []storage.Role{storage.RoleUser}
			user.ClaimedInvite = &req.InviteToken
		}

		roles = user.Roles
		id, err = tx.CreateUser(ctx, user)
		return err
	})
	if err != nil {
		return Token{}, err
	}

	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	token, err := m.auth.Issue(id, names)
	if err != nil {
		return Token{}, err
	}
	logger.FromCtx(ctx).Infow("registered user", "user", id, "roles", names)
	return Token{Token: token}, nil
}

// ListInvites returns every invite. Only the owner may list them.
func (m *MediaManager) ListInvites(ctx context.Context, claims *auth.Claims) ([]Invite, error) {
	if err := requireOwner(claims); err != nil {
		return nil, err
	}

	var out []Invite
	err := m.readTx(ctx, func(tx storage.Tx) error {
		invites, err := tx.ListInvites(ctx)
		if err != nil {
			return err
		}
		out = make([]Invite, 0, len(invites))
		for _, i := range invites {
			out = append(out, Invite{Token: i.ID, DateAdded: i.DateAdded})
		}
		return nil
	})
	return out, err
}

// CreateInvite makes a new invite token. Only the owner may create them.
func (m *MediaManager) CreateInvite(ctx context.Context, claims *auth.Claims) (Invite, error) {
	if err := requireOwner(claims); err != nil {
		return Invite{}, err
	}

	token := uuid.NewString()
	var out Invite
	err := m.store.WithWriteTx(ctx, func(tx storage.Tx) error {
		if err := tx.CreateInvite(ctx, token); err != nil {
			return err
		}
		invites, err := tx.ListInvites(ctx)
		if err != nil {
			return err
		}
		for _, i := range invites {
			if i.ID == token {
				out = Invite{Token: i.ID, DateAdded: i.DateAdded}
			}
		}
		return nil
	})
	return out, err
}

// UserSettings returns the user's preferences document
func (m *MediaManager) UserSettings(ctx context.Context, userID int64) (json.RawMessage, error) {
	var out json.RawMessage
	err := m.readTx(ctx, func(tx storage.Tx) error {
		user, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		out = json.RawMessage(user.Prefs)
		return nil
	})
	return out, err
}

// SetUserSettings replaces the user's preferences with a JSON object
func (m *MediaManager) SetUserSettings(ctx context.Context, userID int64, settings json.RawMessage) (json.RawMessage, error) {
	if err := validObject(settings); err != nil {
		return nil, err
	}
	err := m.store.WithWriteTx(ctx, func(tx storage.Tx) error {
		return tx.UpdateUserPrefs(ctx, userID, string(settings))
	})
	if err != nil {
		return nil, err
	}
	return settings, nil
}

func (m *MediaManager) HostSettings(ctx context.Context, claims *auth.Claims) (json.RawMessage, error) {
	if err := requireOwner(claims); err != nil {
		return nil, err
	}
	var out json.RawMessage
	err := m.readTx(ctx, func(tx storage.Tx) error {
		settings, err := tx.GetHostSettings(ctx)
		out = json.RawMessage(settings)
		return err
	})
	return out, err
}

func (m *MediaManager) SetHostSettings(ctx context.Context, claims *auth.Claims, settings json.RawMessage) (json.RawMessage, error) {
	if err := requireOwner(claims); err != nil {
		return nil, err
	}
	if err := validObject(settings); err != nil {
		return nil, err
	}
	err := m.store.WithWriteTx(ctx, func(tx storage.Tx) error {
		return tx.SetHostSettings(ctx, string(settings))
	})
	if err != nil {
		return nil, err
	}
	return settings, nil
}

func validObject(raw json.RawMessage) error {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return fmt.Errorf("%w: settings must be a JSON object", ErrInvalidRequest)
	}
	return nil
}
