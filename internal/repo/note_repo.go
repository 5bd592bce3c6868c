package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/reolin/wsnotes/internal/model"
	appErr "github.com/reolin/wsnotes/internal/pkg/errors"
)

// TagMatchMode selects between the canonical match-any filter and the
// legacy all-required filter.
type TagMatchMode int

const (
	TagMatchAny TagMatchMode = iota
	TagMatchAll
)

const noteColumns = "id, owner_id, workspace_id, fields, note_type, tags, vector_data, ctime, mtime"

// NotePatch is a partial update; nil members are left untouched.
type NotePatch struct {
	Fields      *[]model.Field
	NoteType    *model.NoteType
	Tags        *[]string
	VectorData  *[]float32
	WorkspaceID *string
	Mtime       int64
}

type NoteRepo struct {
	db *sql.DB
}

func NewNoteRepo(db *sql.DB) *NoteRepo {
	return &NoteRepo{db: db}
}

func (r *NoteRepo) Create(ctx context.Context, note *model.Note) error {
	fields, err := json.Marshal(note.Fields)
	if err != nil {
		return err
	}
	const query = `
		INSERT INTO notes (id, owner_id, workspace_id, fields, note_type, tags, vector_data, ctime, mtime)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = r.db.ExecContext(ctx, query,
		note.ID,
		note.OwnerID,
		note.WorkspaceID,
		fields,
		string(note.NoteType),
		pq.Array(note.Tags),
		vectorArg(note.VectorData),
		note.Ctime,
		note.Mtime,
	)
	return err
}

func (r *NoteRepo) GetByID(ctx context.Context, noteID string) (*model.Note, error) {
	query := fmt.Sprintf(`SELECT %s FROM notes WHERE id = $1`, noteColumns)
	return r.queryOne(ctx, query, noteID)
}

func (r *NoteRepo) GetOwned(ctx context.Context, noteID, ownerID string) (*model.Note, error) {
	query := fmt.Sprintf(`SELECT %s FROM notes WHERE id = $1 AND owner_id = $2`, noteColumns)
	return r.queryOne(ctx, query, noteID, ownerID)
}

// UpdateOwned applies the patch to an owner-scoped note in one statement and
// returns the updated row.
func (r *NoteRepo) UpdateOwned(ctx context.Context, noteID, ownerID string, patch NotePatch) (*model.Note, error) {
	sets := []string{}
	args := []interface{}{}
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Fields != nil {
		fields, err := json.Marshal(*patch.Fields)
		if err != nil {
			return nil, err
		}
		add("fields", fields)
	}
	if patch.NoteType != nil {
		add("note_type", string(*patch.NoteType))
	}
	if patch.Tags != nil {
		add("tags", pq.Array(*patch.Tags))
	}
	if patch.VectorData != nil {
		add("vector_data", vectorArg(*patch.VectorData))
	}
	if patch.WorkspaceID != nil {
		add("workspace_id", *patch.WorkspaceID)
	}
	add("mtime", patch.Mtime)
	args = append(args, noteID, ownerID)
	query := fmt.Sprintf(`UPDATE notes SET %s WHERE id = $%d AND owner_id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args)-1, len(args), noteColumns)
	row := r.db.QueryRowContext(ctx, query, args...)
	return scanNoteRow(row)
}

func (r *NoteRepo) DeleteOwned(ctx context.Context, noteID, ownerID string) (*model.Note, error) {
	query := fmt.Sprintf(`DELETE FROM notes WHERE id = $1 AND owner_id = $2 RETURNING %s`, noteColumns)
	row := r.db.QueryRowContext(ctx, query, noteID, ownerID)
	return scanNoteRow(row)
}

// ListByFilter returns workspace notes of the given type, newest first. An
// empty tag set applies no tag predicate.
func (r *NoteRepo) ListByFilter(ctx context.Context, workspaceID string, noteType model.NoteType, tags []string, mode TagMatchMode) ([]model.Note, error) {
	args := []interface{}{workspaceID, string(noteType)}
	query := fmt.Sprintf(`SELECT %s FROM notes WHERE workspace_id = $1 AND note_type = $2`, noteColumns)
	if len(tags) > 0 {
		op := "&&"
		if mode == TagMatchAll {
			op = "@>"
		}
		args = append(args, pq.Array(tags))
		query += fmt.Sprintf(" AND tags %s $3", op)
	}
	query += " ORDER BY ctime DESC"
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var notes []model.Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, *note)
	}
	return notes, rows.Err()
}

func (r *NoteRepo) DeleteByWorkspace(ctx context.Context, workspaceID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE workspace_id = $1`, workspaceID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListMissingVector returns notes whose embedding degraded to empty at
// create time, for the backfill job.
func (r *NoteRepo) ListMissingVector(ctx context.Context, limit int) ([]model.Note, error) {
	query := fmt.Sprintf(`SELECT %s FROM notes WHERE vector_data IS NULL ORDER BY ctime ASC LIMIT $1`, noteColumns)
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var notes []model.Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, *note)
	}
	return notes, rows.Err()
}

// SaveVector writes a backfilled embedding without bumping mtime.
func (r *NoteRepo) SaveVector(ctx context.Context, noteID string, vector []float32) error {
	_, err := r.db.ExecContext(ctx, `UPDATE notes SET vector_data = $1 WHERE id = $2`, vectorArg(vector), noteID)
	return err
}

func (r *NoteRepo) queryOne(ctx context.Context, query string, args ...interface{}) (*model.Note, error) {
	return scanNoteRow(r.db.QueryRowContext(ctx, query, args...))
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanNoteRow(row *sql.Row) (*model.Note, error) {
	note, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, appErr.ErrNotFound
	}
	return note, err
}

func scanNote(row rowScanner) (*model.Note, error) {
	var note model.Note
	var fields []byte
	var noteType string
	var vector sql.NullString
	if err := row.Scan(
		&note.ID,
		&note.OwnerID,
		&note.WorkspaceID,
		&fields,
		&noteType,
		pq.Array(&note.Tags),
		&vector,
		&note.Ctime,
		&note.Mtime,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(fields, &note.Fields); err != nil {
		return nil, err
	}
	note.NoteType = model.NoteType(noteType)
	if vector.Valid && vector.String != "" {
		var vec pgvector.Vector
		if err := vec.Scan(vector.String); err != nil {
			return nil, err
		}
		note.VectorData = vec.Slice()
	}
	return &note, nil
}

func vectorArg(values []float32) interface{} {
	if len(values) == 0 {
		return nil
	}
	return pgvector.NewVector(values)
}
