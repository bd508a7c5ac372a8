package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/Dusk-Labs/dim-sub002/pkg/storage"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage/sqlite/schema/gen/model"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage/sqlite/schema/gen/table"
	"github.com/go-jet/jet/v2/sqlite"
)

const defaultPrefs = "{}"

// CreateUser stores a user. The password must already be hashed.
func (t *tx) CreateUser(ctx context.Context, user storage.InsertableUser) (int64, error) {
	roles := make([]string, len(user.Roles))
	for i, r := range user.Roles {
		roles[i] = string(r)
	}
	if len(roles) == 0 {
		roles = []string{string(storage.RoleUser)}
	}

	stmt := table.Users.
		INSERT(table.Users.MutableColumns).
		MODEL(model.Users{
			Username:      user.Username,
			Password:      user.Password,
			Roles:         strings.Join(roles, ","),
			Prefs:         defaultPrefs,
			ClaimedInvite: user.ClaimedInvite,
		})

	return t.insert(ctx, stmt)
}

func (t *tx) GetUser(ctx context.Context, id int64) (*storage.User, error) {
	return t.findUser(ctx, table.Users.ID.EQ(sqlite.Int64(id)))
}

func (t *tx) GetUserByUsername(ctx context.Context, username string) (*storage.User, error) {
	return t.findUser(ctx, table.Users.Username.EQ(sqlite.String(username)))
}

func (t *tx) findUser(ctx context.Context, where sqlite.BoolExpression) (*storage.User, error) {
	stmt := table.Users.
		SELECT(table.Users.AllColumns).
		FROM(table.Users).
		WHERE(where)

	user := new(storage.User)
	if err := t.query(ctx, stmt, &user.Users); err != nil {
		return nil, err
	}
	return user, nil
}

func (t *tx) CountUsers(ctx context.Context) (int64, error) {
	stmt := table.Users.
		SELECT(sqlite.COUNT(table.Users.ID).AS("count")).
		FROM(table.Users)

	var result struct {
		Count int64
	}
	if err := t.query(ctx, stmt, &result); err != nil {
		return 0, err
	}
	return result.Count, nil
}

func (t *tx) UpdateUserPrefs(ctx context.Context, id int64, prefs string) error {
	stmt := table.Users.
		UPDATE().
		SET(table.Users.Prefs.SET(sqlite.String(prefs))).
		WHERE(table.Users.ID.EQ(sqlite.Int64(id)))

	return t.mutate(ctx, stmt)
}

func (t *tx) CreateInvite(ctx context.Context, token string) error {
	stmt := table.Invites.
		INSERT(table.Invites.AllColumns).
		MODEL(model.Invites{ID: token, DateAdded: time.Now().UTC().Unix()})

	_, err := t.exec(ctx, stmt)
	return err
}

func (t *tx) ListInvites(ctx context.Context) ([]*model.Invites, error) {
	stmt := table.Invites.
		SELECT(table.Invites.AllColumns).
		FROM(table.Invites).
		ORDER_BY(table.Invites.DateAdded.ASC())

	invites := make([]*model.Invites, 0)
	if err := t.query(ctx, stmt, &invites); err != nil {
		return nil, err
	}
	return invites, nil
}

// InviteClaimable reports whether the invite exists and no user has claimed it
func (t *tx) InviteClaimable(ctx context.Context, token string) (bool, error) {
	claimed := table.Users.
		SELECT(table.Users.ID).
		FROM(table.Users).
		WHERE(table.Users.ClaimedInvite.EQ(table.Invites.ID))

	stmt := table.Invites.
		SELECT(sqlite.COUNT(table.Invites.ID).AS("count")).
		FROM(table.Invites).
		WHERE(
			table.Invites.ID.EQ(sqlite.String(token)).
				AND(sqlite.NOT(sqlite.EXISTS(claimed))),
		)

	var result struct {
		Count int64
	}
	if err := t.query(ctx, stmt, &result); err != nil {
		return false, err
	}
	return result.Count > 0, nil
}

func (t *tx) DeleteInvite(ctx context.Context, token string) error {
	stmt := table.Invites.
		DELETE().
		WHERE(table.Invites.ID.EQ(sqlite.String(token)))

	return t.mutate(ctx, stmt)
}
