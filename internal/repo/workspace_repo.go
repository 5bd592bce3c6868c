package repo

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/reolin/wsnotes/internal/model"
	appErr "github.com/reolin/wsnotes/internal/pkg/errors"
)

// WorkspaceRepo reads the workspace rows owned by the workspace
// collaborator. The latest-chat timestamp is the single column this service
// writes back.
type WorkspaceRepo struct {
	db *sql.DB
}

func NewWorkspaceRepo(db *sql.DB) *WorkspaceRepo {
	return &WorkspaceRepo{db: db}
}

func (r *WorkspaceRepo) GetByID(ctx context.Context, workspaceID string) (*model.Workspace, error) {
	const query = `
		SELECT id, owner_id, members, banned_members, latest_chat_message_ts
		FROM workspaces
		WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, query, workspaceID)
	var ws model.Workspace
	if err := row.Scan(
		&ws.ID,
		&ws.OwnerID,
		pq.Array(&ws.Members),
		pq.Array(&ws.BannedMembers),
		&ws.LatestChatMessageTs,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return &ws, nil
}

func (r *WorkspaceRepo) TouchLatestChatMessage(ctx context.Context, workspaceID string, ts int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE workspaces SET latest_chat_message_ts = $1 WHERE id = $2`, ts, workspaceID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}
