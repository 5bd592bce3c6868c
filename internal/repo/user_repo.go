package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"
	"github.com/jmoiron/sqlx"

	"github.com/reolin/wsnotes/internal/model"
	"github.com/reolin/wsnotes/internal/pkg/dbutil"
	appErr "github.com/reolin/wsnotes/internal/pkg/errors"
)

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) GetByID(ctx context.Context, userID string) (*model.User, error) {
	where := map[string]interface{}{"id": userID}
	sqlStr, args, err := builder.BuildSelect("users", where, []string{"id", "name", "email", "avatar", "device_token", "ctime", "mtime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	var user model.User
	if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.Avatar, &user.DeviceToken, &user.Ctime, &user.Mtime); err != nil {
		return nil, err
	}
	return &user, rows.Err()
}

// ListByIDs returns the users found for the given ids; unknown ids are
// simply absent from the result.
func (r *UserRepo) ListByIDs(ctx context.Context, userIDs []string) (map[string]model.User, error) {
	result := make(map[string]model.User)
	if len(userIDs) == 0 {
		return result, nil
	}
	query, args, err := sqlx.In(`SELECT id, name, email, avatar, device_token, ctime, mtime FROM users WHERE id IN (?)`, userIDs)
	if err != nil {
		return nil, err
	}
	query = sqlx.Rebind(sqlx.DOLLAR, query)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var user model.User
		if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.Avatar, &user.DeviceToken, &user.Ctime, &user.Mtime); err != nil {
			return nil, err
		}
		result[user.ID] = user
	}
	return result, rows.Err()
}

// ListDeviceTokens resolves the non-empty push tokens of the given users.
func (r *UserRepo) ListDeviceTokens(ctx context.Context, userIDs []string) ([]string, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT device_token FROM users WHERE id IN (?) AND device_token <> ''`, userIDs)
	if err != nil {
		return nil, err
	}
	query = sqlx.Rebind(sqlx.DOLLAR, query)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}
