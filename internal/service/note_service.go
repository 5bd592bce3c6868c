package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/reolin/wsnotes/internal/ai"
	"github.com/reolin/wsnotes/internal/model"
	appErr "github.com/reolin/wsnotes/internal/pkg/errors"
	"github.com/reolin/wsnotes/internal/repo"
)

// ErrSearchEmbedding marks a query-time embedding failure. Unlike the
// create path, which degrades silently, it fails the whole list request.
var ErrSearchEmbedding = errors.New("search embedding failed")

// NoteStore is the document persistence contract consumed by the service.
// *repo.NoteRepo is the production implementation.
type NoteStore interface {
	Create(ctx context.Context, note *model.Note) error
	GetByID(ctx context.Context, noteID string) (*model.Note, error)
	GetOwned(ctx context.Context, noteID, ownerID string) (*model.Note, error)
	UpdateOwned(ctx context.Context, noteID, ownerID string, patch repo.NotePatch) (*model.Note, error)
	DeleteOwned(ctx context.Context, noteID, ownerID string) (*model.Note, error)
	ListByFilter(ctx context.Context, workspaceID string, noteType model.NoteType, tags []string, mode repo.TagMatchMode) ([]model.Note, error)
	DeleteByWorkspace(ctx context.Context, workspaceID string) (int64, error)
	ListMissingVector(ctx context.Context, limit int) ([]model.Note, error)
	SaveVector(ctx context.Context, noteID string, vector []float32) error
}

// WorkspaceStore is the read model of the workspace collaborator plus its
// single write-back side effect.
type WorkspaceStore interface {
	GetByID(ctx context.Context, workspaceID string) (*model.Workspace, error)
	TouchLatestChatMessage(ctx context.Context, workspaceID string, ts int64) error
}

type UserStore interface {
	ListByIDs(ctx context.Context, userIDs []string) (map[string]model.User, error)
	ListDeviceTokens(ctx context.Context, userIDs []string) ([]string, error)
}

// Notifier is the push gateway; Send converts provider failure into false
// and never errors.
type Notifier interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) bool
}

type NoteServiceOptions struct {
	Notifier        Notifier
	CopyRespectsBan bool
	ChatPushEnabled bool
}

type NoteService struct {
	notes      NoteStore
	workspaces WorkspaceStore
	users      UserStore
	embedder   ai.IEmbedder
	opts       NoteServiceOptions
}

func NewNoteService(notes NoteStore, workspaces WorkspaceStore, users UserStore, embedder ai.IEmbedder, opts NoteServiceOptions) *NoteService {
	return &NoteService{notes: notes, workspaces: workspaces, users: users, embedder: embedder, opts: opts}
}

type CreateNoteInput struct {
	WorkspaceID string
	Fields      []model.Field
	NoteType    model.NoteType
	Tags        []string
}

type UpdateNoteInput struct {
	Fields   *[]model.Field
	NoteType *model.NoteType
	Tags     *[]string
}

type ListNotesInput struct {
	WorkspaceID string
	NoteType    model.NoteType
	Tags        []string
	TagMode     repo.TagMatchMode
	Query       string
}

// Create persists a new note. Embedding failure degrades to an empty vector
// and never fails the operation; a CHAT note additionally touches the target
// workspace's latest-chat timestamp and pushes to member devices,
// best-effort.
func (s *NoteService) Create(ctx context.Context, actorID string, input CreateNoteInput) (*model.Note, error) {
	if input.WorkspaceID == "" {
		return nil, appErr.ErrInvalid
	}
	noteType := input.NoteType
	if noteType == "" {
		noteType = model.NoteTypeContent
	}
	if !noteType.Valid() {
		return nil, appErr.ErrInvalid
	}
	tags := input.Tags
	if tags == nil {
		tags = []string{}
	}
	vector := s.embedNoteFields(ctx, input.Fields)
	now := time.Now().UnixMilli()
	note := &model.Note{
		ID:          newID(),
		OwnerID:     actorID,
		WorkspaceID: input.WorkspaceID,
		Fields:      input.Fields,
		NoteType:    noteType,
		Tags:        tags,
		VectorData:  vector,
		Ctime:       now,
		Mtime:       now,
	}
	if err := s.notes.Create(ctx, note); err != nil {
		return nil, err
	}
	if noteType == model.NoteTypeChat {
		s.onChatNoteCreated(ctx, actorID, note)
	}
	return note, nil
}

// embedNoteFields assembles the note text and embeds it. Any provider
// failure is logged and swallowed; the note keeps an empty vector until the
// backfill job repairs it.
func (s *NoteService) embedNoteFields(ctx context.Context, fields []model.Field) []float32 {
	text := strings.TrimSpace(AssembleFields(fields))
	if text == "" {
		return nil
	}
	vector, err := s.embedder.Embed(ctx, text, ai.TaskRetrievalDocument)
	if err != nil {
		logutil.GetLogger(ctx).Warn("embedding degraded, creating note with empty vector", zap.Error(err))
		return nil
	}
	return vector
}

func (s *NoteService) onChatNoteCreated(ctx context.Context, actorID string, note *model.Note) {
	logger := logutil.GetLogger(ctx).With(zap.String("workspace_id", note.WorkspaceID), zap.String("note_id", note.ID))
	if err := s.workspaces.TouchLatestChatMessage(ctx, note.WorkspaceID, note.Ctime); err != nil {
		logger.Warn("failed to touch latest chat timestamp", zap.Error(err))
	}
	if !s.opts.ChatPushEnabled || s.opts.Notifier == nil {
		return
	}
	ws, err := s.workspaces.GetByID(ctx, note.WorkspaceID)
	if err != nil {
		logger.Warn("failed to load workspace for chat push", zap.Error(err))
		return
	}
	recipients := make([]string, 0, len(ws.Members))
	for _, member := range ws.Members {
		if member != actorID {
			recipients = append(recipients, member)
		}
	}
	tokens, err := s.users.ListDeviceTokens(ctx, recipients)
	if err != nil {
		logger.Warn("failed to resolve device tokens for chat push", zap.Error(err))
		return
	}
	for _, token := range tokens {
		s.opts.Notifier.Send(ctx, token, "New chat message", "A new chat message was posted in your workspace", map[string]string{
			"workspace_id": note.WorkspaceID,
			"note_id":      note.ID,
		})
	}
}

func (s *NoteService) Update(ctx context.Context, actorID, noteID string, input UpdateNoteInput) (*model.Note, error) {
	if input.NoteType != nil && !input.NoteType.Valid() {
		return nil, appErr.ErrInvalid
	}
	patch := repo.NotePatch{
		Fields:   input.Fields,
		NoteType: input.NoteType,
		Tags:     input.Tags,
		Mtime:    time.Now().UnixMilli(),
	}
	if input.Fields != nil {
		vector := s.embedNoteFields(ctx, *input.Fields)
		patch.VectorData = &vector
	}
	return s.notes.UpdateOwned(ctx, noteID, actorID, patch)
}

func (s *NoteService) Delete(ctx context.Context, actorID, noteID string) (*model.Note, error) {
	return s.notes.DeleteOwned(ctx, noteID, actorID)
}

// Get is owner-scoped and reports absence as a nil note, not an error.
func (s *NoteService) Get(ctx context.Context, actorID, noteID string) (*model.Note, error) {
	note, err := s.notes.GetOwned(ctx, noteID, actorID)
	if appErr.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return note, nil
}

func (s *NoteService) GetWorkspaceForNote(ctx context.Context, noteID string) (string, error) {
	note, err := s.notes.GetByID(ctx, noteID)
	if err != nil {
		return "", err
	}
	return note.WorkspaceID, nil
}

// GetAuthors resolves the owners of the given notes as user summaries,
// following first occurrence in input order with duplicates collapsed.
// Unknown note ids are skipped.
func (s *NoteService) GetAuthors(ctx context.Context, noteIDs []string) ([]model.UserSummary, error) {
	ownerIDs := make([]string, 0, len(noteIDs))
	seen := make(map[string]bool)
	for _, noteID := range noteIDs {
		note, err := s.notes.GetByID(ctx, noteID)
		if appErr.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !seen[note.OwnerID] {
			seen[note.OwnerID] = true
			ownerIDs = append(ownerIDs, note.OwnerID)
		}
	}
	users, err := s.users.ListByIDs(ctx, ownerIDs)
	if err != nil {
		return nil, err
	}
	summaries := make([]model.UserSummary, 0, len(ownerIDs))
	for _, ownerID := range ownerIDs {
		user, ok := users[ownerID]
		if !ok {
			continue
		}
		summaries = append(summaries, user.Summary())
	}
	return summaries, nil
}

// ShareToWorkspace moves a note into the target workspace in place. All
// precondition checks are pure reads issued before the single mutating
// update; a concurrent ban racing the share is an accepted consistency gap.
func (s *NoteService) ShareToWorkspace(ctx context.Context, actorID, noteID, workspaceID string) (*model.Note, error) {
	note, err := s.notes.GetByID(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if note.OwnerID != actorID {
		return nil, fmt.Errorf("%w: only the note owner can share", appErr.ErrForbidden)
	}
	ws, err := s.workspaces.GetByID(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if ws.HasBanned(actorID) {
		return nil, fmt.Errorf("%w: banned from workspace", appErr.ErrForbidden)
	}
	if !ws.HasMember(actorID) {
		return nil, fmt.Errorf("%w: not a member of workspace", appErr.ErrForbidden)
	}
	return s.notes.UpdateOwned(ctx, noteID, actorID, repo.NotePatch{
		WorkspaceID: &workspaceID,
		Mtime:       time.Now().UnixMilli(),
	})
}

// CopyToWorkspace duplicates a note into the target workspace as a brand-new
// CONTENT note with the same owner, fields, tags and vector. The source note
// is untouched. The ban check only applies when configured
// (copy_respects_ban); the reference behavior skips it on this path.
func (s *NoteService) CopyToWorkspace(ctx context.Context, actorID, noteID, workspaceID string) (*model.Note, error) {
	note, err := s.notes.GetByID(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if note.OwnerID != actorID {
		return nil, fmt.Errorf("%w: only the note owner can copy", appErr.ErrForbidden)
	}
	ws, err := s.workspaces.GetByID(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if s.opts.CopyRespectsBan && ws.HasBanned(actorID) {
		return nil, fmt.Errorf("%w: banned from workspace", appErr.ErrForbidden)
	}
	if !ws.HasMember(actorID) && ws.OwnerID != actorID {
		return nil, fmt.Errorf("%w: not a member of workspace", appErr.ErrForbidden)
	}
	now := time.Now().UnixMilli()
	copied := &model.Note{
		ID:          newID(),
		OwnerID:     note.OwnerID,
		WorkspaceID: workspaceID,
		Fields:      note.Fields,
		NoteType:    model.NoteTypeContent,
		Tags:        note.Tags,
		VectorData:  note.VectorData,
		Ctime:       now,
		Mtime:       now,
	}
	if err := s.notes.Create(ctx, copied); err != nil {
		return nil, err
	}
	return copied, nil
}

// List returns the workspace's notes matching the filter. With a non-empty
// query the candidates are reordered by similarity to the query embedding;
// a query-embedding failure fails the whole request, unlike the degraded
// create path.
func (s *NoteService) List(ctx context.Context, actorID string, input ListNotesInput) ([]model.Note, error) {
	if input.WorkspaceID == "" {
		return nil, appErr.ErrInvalid
	}
	noteType := input.NoteType
	if noteType == "" {
		noteType = model.NoteTypeContent
	}
	if !noteType.Valid() {
		return nil, appErr.ErrInvalid
	}
	ws, err := s.workspaces.GetByID(ctx, input.WorkspaceID)
	if err != nil {
		return nil, err
	}
	if !ws.HasMember(actorID) {
		return nil, fmt.Errorf("%w: not a member of workspace", appErr.ErrForbidden)
	}
	notes, err := s.notes.ListByFilter(ctx, input.WorkspaceID, noteType, input.Tags, input.TagMode)
	if err != nil {
		return nil, err
	}
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return notes, nil
	}
	queryVector, err := s.embedder.Embed(ctx, query, ai.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchEmbedding, err)
	}
	return RankByQueryVector(queryVector, notes), nil
}

// DeleteAllForWorkspace is the workspace-teardown cascade. It is
// deliberately not owner-scoped; only teardown collaborators may call it.
func (s *NoteService) DeleteAllForWorkspace(ctx context.Context, workspaceID string) (int64, error) {
	return s.notes.DeleteByWorkspace(ctx, workspaceID)
}

// ProcessMissingEmbeddings retries embedding generation for notes whose
// create-time embedding degraded to empty. Invoked by the backfill job.
func (s *NoteService) ProcessMissingEmbeddings(ctx context.Context, limit int) error {
	notes, err := s.notes.ListMissingVector(ctx, limit)
	if err != nil {
		return err
	}
	logger := logutil.GetLogger(ctx)
	for _, note := range notes {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		text := strings.TrimSpace(AssembleFields(note.Fields))
		if text == "" {
			continue
		}
		vector, err := s.embedder.Embed(ctx, text, ai.TaskRetrievalDocument)
		if err != nil {
			logger.Warn("embedding backfill failed", zap.String("note_id", note.ID), zap.Error(err))
			continue
		}
		if err := s.notes.SaveVector(ctx, note.ID, vector); err != nil {
			logger.Error("failed to save backfilled vector", zap.String("note_id", note.ID), zap.Error(err))
			continue
		}
		logger.Info("embedding backfilled", zap.String("note_id", note.ID))
	}
	return nil
}
