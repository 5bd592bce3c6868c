package service_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reolin/wsnotes/internal/model"
	appErr "github.com/reolin/wsnotes/internal/pkg/errors"
	"github.com/reolin/wsnotes/internal/repo"
	"github.com/reolin/wsnotes/internal/service"
)

type fakeNoteStore struct {
	notes []*model.Note
}

func (s *fakeNoteStore) find(noteID string) *model.Note {
	for _, note := range s.notes {
		if note.ID == noteID {
			return note
		}
	}
	return nil
}

func (s *fakeNoteStore) Create(ctx context.Context, note *model.Note) error {
	clone := *note
	s.notes = append(s.notes, &clone)
	return nil
}

func (s *fakeNoteStore) GetByID(ctx context.Context, noteID string) (*model.Note, error) {
	if note := s.find(noteID); note != nil {
		clone := *note
		return &clone, nil
	}
	return nil, appErr.ErrNotFound
}

func (s *fakeNoteStore) GetOwned(ctx context.Context, noteID, ownerID string) (*model.Note, error) {
	if note := s.find(noteID); note != nil && note.OwnerID == ownerID {
		clone := *note
		return &clone, nil
	}
	return nil, appErr.ErrNotFound
}

func (s *fakeNoteStore) UpdateOwned(ctx context.Context, noteID, ownerID string, patch repo.NotePatch) (*model.Note, error) {
	note := s.find(noteID)
	if note == nil || note.OwnerID != ownerID {
		return nil, appErr.ErrNotFound
	}
	if patch.Fields != nil {
		note.Fields = *patch.Fields
	}
	if patch.NoteType != nil {
		note.NoteType = *patch.NoteType
	}
	if patch.Tags != nil {
		note.Tags = *patch.Tags
	}
	if patch.VectorData != nil {
		note.VectorData = *patch.VectorData
	}
	if patch.WorkspaceID != nil {
		note.WorkspaceID = *patch.WorkspaceID
	}
	note.Mtime = patch.Mtime
	clone := *note
	return &clone, nil
}

func (s *fakeNoteStore) DeleteOwned(ctx context.Context, noteID, ownerID string) (*model.Note, error) {
	for i, note := range s.notes {
		if note.ID == noteID && note.OwnerID == ownerID {
			s.notes = append(s.notes[:i], s.notes[i+1:]...)
			return note, nil
		}
	}
	return nil, appErr.ErrNotFound
}

func (s *fakeNoteStore) ListByFilter(ctx context.Context, workspaceID string, noteType model.NoteType, tags []string, mode repo.TagMatchMode) ([]model.Note, error) {
	var result []model.Note
	for _, note := range s.notes {
		if note.WorkspaceID != workspaceID || note.NoteType != noteType {
			continue
		}
		if len(tags) > 0 && !matchTags(note.Tags, tags, mode) {
			continue
		}
		result = append(result, *note)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Ctime > result[j].Ctime
	})
	return result, nil
}

func matchTags(noteTags, wanted []string, mode repo.TagMatchMode) bool {
	have := make(map[string]bool, len(noteTags))
	for _, tag := range noteTags {
		have[tag] = true
	}
	if mode == repo.TagMatchAll {
		for _, tag := range wanted {
			if !have[tag] {
				return false
			}
		}
		return true
	}
	for _, tag := range wanted {
		if have[tag] {
			return true
		}
	}
	return false
}

func (s *fakeNoteStore) DeleteByWorkspace(ctx context.Context, workspaceID string) (int64, error) {
	var kept []*model.Note
	var deleted int64
	for _, note := range s.notes {
		if note.WorkspaceID == workspaceID {
			deleted++
			continue
		}
		kept = append(kept, note)
	}
	s.notes = kept
	return deleted, nil
}

func (s *fakeNoteStore) ListMissingVector(ctx context.Context, limit int) ([]model.Note, error) {
	var result []model.Note
	for _, note := range s.notes {
		if len(note.VectorData) == 0 {
			result = append(result, *note)
		}
		if len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (s *fakeNoteStore) SaveVector(ctx context.Context, noteID string, vector []float32) error {
	note := s.find(noteID)
	if note == nil {
		return appErr.ErrNotFound
	}
	note.VectorData = vector
	return nil
}

type fakeWorkspaceStore struct {
	workspaces map[string]*model.Workspace
	touched    []string
}

func (s *fakeWorkspaceStore) GetByID(ctx context.Context, workspaceID string) (*model.Workspace, error) {
	if ws, ok := s.workspaces[workspaceID]; ok {
		clone := *ws
		return &clone, nil
	}
	return nil, appErr.ErrNotFound
}

func (s *fakeWorkspaceStore) TouchLatestChatMessage(ctx context.Context, workspaceID string, ts int64) error {
	ws, ok := s.workspaces[workspaceID]
	if !ok {
		return appErr.ErrNotFound
	}
	ws.LatestChatMessageTs = ts
	s.touched = append(s.touched, workspaceID)
	return nil
}

type fakeUserStore struct {
	users map[string]model.User
}

func (s *fakeUserStore) ListByIDs(ctx context.Context, userIDs []string) (map[string]model.User, error) {
	result := make(map[string]model.User)
	for _, id := range userIDs {
		if user, ok := s.users[id]; ok {
			result[id] = user
		}
	}
	return result, nil
}

func (s *fakeUserStore) ListDeviceTokens(ctx context.Context, userIDs []string) ([]string, error) {
	var tokens []string
	for _, id := range userIDs {
		if user, ok := s.users[id]; ok && user.DeviceToken != "" {
			tokens = append(tokens, user.DeviceToken)
		}
	}
	return tokens, nil
}

type fakeEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (e *fakeEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return e.vector, nil
}

func (e *fakeEmbedder) ModelName() string {
	return "fake-embedding-model"
}

type fakeNotifier struct {
	sent []string
}

func (n *fakeNotifier) Send(ctx context.Context, token, title, body string, data map[string]string) bool {
	n.sent = append(n.sent, token)
	return true
}

type env struct {
	notes      *fakeNoteStore
	workspaces *fakeWorkspaceStore
	users      *fakeUserStore
	embedder   *fakeEmbedder
	notifier   *fakeNotifier
	svc        *service.NoteService
}

func newEnv(t *testing.T, opts service.NoteServiceOptions) *env {
	t.Helper()
	e := &env{
		notes:      &fakeNoteStore{},
		workspaces: &fakeWorkspaceStore{workspaces: make(map[string]*model.Workspace)},
		users:      &fakeUserStore{users: make(map[string]model.User)},
		embedder:   &fakeEmbedder{vector: []float32{1, 0, 0}},
		notifier:   &fakeNotifier{},
	}
	if opts.Notifier == nil && opts.ChatPushEnabled {
		opts.Notifier = e.notifier
	}
	e.svc = service.NewNoteService(e.notes, e.workspaces, e.users, e.embedder, opts)
	return e
}

func (e *env) addWorkspace(id, ownerID string, members, banned []string) {
	e.workspaces.workspaces[id] = &model.Workspace{
		ID:            id,
		OwnerID:       ownerID,
		Members:       members,
		BannedMembers: banned,
	}
}

func contentFields(text string) []model.Field {
	return []model.Field{{Kind: model.FieldKindContent, Label: "title", Content: text}}
}

func TestCreateNoteDefaultsAndEmbedding(t *testing.T) {
	e := newEnv(t, service.NoteServiceOptions{})
	e.addWorkspace("ws-1", "owner", []string{"user-1"}, nil)

	note, err := e.svc.Create(context.Background(), "user-1", service.CreateNoteInput{
		WorkspaceID: "ws-1",
		Fields:      contentFields("hello"),
	})
	require.NoError(t, err)
	require.Equal(t, model.NoteTypeContent, note.NoteType)
	require.Equal(t, []string{}, note.Tags)
	require.Equal(t, []float32{1, 0, 0}, note.VectorData)
	require.Equal(t, "user-1", note.OwnerID)
	require.NotEmpty(t, note.ID)
}

func TestCreateNoteEmbeddingDegradesToEmptyVector(t *testing.T) {
	e := newEnv(t, service.NoteServiceOptions{})
	e.addWorkspace("ws-1", "owner", []string{"user-1"}, nil)
	e.embedder.err = errors.New("provider unavailable")

	note, err := e.svc.Create(context.Background(), "user-1", service.CreateNoteInput{
		WorkspaceID: "ws-1",
		Fields:      contentFields("hello"),
	})
	require.NoError(t, err)
	require.Empty(t, note.VectorData)
}

func TestCreateNoteSkipsEmbeddingForEmptyText(t *testing.T) {
	e := newEnv(t, service.NoteServiceOptions{})
	e.addWorkspace("ws-1", "owner", []string{"user-1"}, nil)

	note, err := e.svc.Create(context.Background(), "user-1", service.CreateNoteInput{
		WorkspaceID: "ws-1",
	})
	require.NoError(t, err)
	require.Empty(t, note.VectorData)
	require.Zero(t, e.embedder.calls)
}

func TestCreateNoteMissingWorkspaceIDRejected(t *testing.T) {
	e := newEnv(t, service.NoteServiceOptions{})

	_, err := e.svc.Create(context.Background(), "user-1", service.CreateNoteInput{})
	require.ErrorIs(t, err, appErr.ErrInvalid)
	require.Zero(t, e.embedder.calls)
	require.Empty(t, e.notes.notes)
}

func TestCreateChatNoteTouchesWorkspaceTimestampOnce(t *testing.T) {
	e := newEnv(t, service.NoteServiceOptions{ChatPushEnabled: true})
	e.addWorkspace("ws-1", "owner", []string{"user-1", "user-2"}, nil)
	e.users.users["user-2"] = model.User{ID: "user-2", DeviceToken: "tok-2"}
	e.users.users["user-1"] = model.User{ID: "user-1", DeviceToken: "tok-1"}

	note, err := e.svc.Create(context.Background(), "user-1", service.CreateNoteInput{
		WorkspaceID: "ws-1",
		Fields:      contentFields("hi"),
		NoteType:    model.NoteTypeChat,
	})
	require.NoError(t, err)
	require.Equal(t, []string{"ws-1"}, e.workspaces.touched)
	require.Equal(t, note.Ctime, e.workspaces.workspaces["ws-1"].LatestChatMessageTs)
	// author's own device is not pushed
	require.Equal(t, []string{"tok-2"}, e.notifier.sent)
}

func TestCreateContentNoteDoesNotTouchWorkspace(t *testing.T) {
	e := newEnv(t, service.NoteServiceOptions{})
	e.addWorkspace("ws-1", "owner", []string{"user-1"}, nil)

	_, err := e.svc.Create(context.Background(), "user-1", service.CreateNoteInput{
		WorkspaceID: "ws-1",
		Fields:      contentFields("hi"),
	})
	require.NoError(t, err)
	require.Empty(t, e.workspaces.touched)
}

func TestGetReturnsNilForMissingNote(t *testing.T) {
	e := newEnv(t, service.NoteServiceOptions{})

	note, err := e.svc.Get(context.Background(), "user-1", "missing")
	require.NoError(t, err)
	require.Nil(t, note)
}

func TestUpdateAndDeleteAreOwnerScoped(t *testing.T) {
	e := newEnv(t, service.NoteServiceOptions{})
	e.addWorkspace("ws-1", "owner", []string{"user-1"}, nil)
	note, err := e.svc.Create(context.Background(), "user-1", service.CreateNoteInput{
		WorkspaceID: "ws-1",
		Fields:      contentFields("hi"),
	})
	require.NoError(t, err)

	_, err = e.svc.Update(context.Background(), "intruder", note.ID, service.UpdateNoteInput{})
	require.ErrorIs(t, err, appErr.ErrNotFound)

	_, err = e.svc.Delete(context.Background(), "intruder", note.ID)
	require.ErrorIs(t, err, appErr.ErrNotFound)

	tags := []string{"a"}
	updated, err := e.svc.Update(context.Background(), "user-1", note.ID, service.UpdateNoteInput{Tags: &tags})
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, updated.Tags)

	_, err = e.svc.Delete(context.Background(), "user-1", note.ID)
	require.NoError(t, err)
}

func TestShareToWorkspacePreconditions(t *testing.T) {
	e := newEnv(t, service.NoteServiceOptions{})
	e.addWorkspace("ws-src", "user-1", []string{"user-1"}, nil)
	note, err := e.svc.Create(context.Background(), "user-1", service.CreateNoteInput{
		WorkspaceID: "ws-src",
		Fields:      contentFields("hi"),
	})
	require.NoError(t, err)

	_, err = e.svc.ShareToWorkspace(context.Background(), "user-1", "missing", "ws-src")
	require.ErrorIs(t, err, appErr.ErrNotFound)

	_, err = e.svc.ShareToWorkspace(context.Background(), "intruder", note.ID, "ws-src")
	require.ErrorIs(t, err, appErr.ErrForbidden)

	_, err = e.svc.ShareToWorkspace(context.Background(), "user-1", note.ID, "missing")
	require.ErrorIs(t, err, appErr.ErrNotFound)

	// not a member, not banned
	e.addWorkspace("ws-a", "other", []string{"other"}, nil)
	_, err = e.svc.ShareToWorkspace(context.Background(), "user-1", note.ID, "ws-a")
	require.ErrorIs(t, err, appErr.ErrForbidden)
	current, err := e.svc.Get(context.Background(), "user-1", note.ID)
	require.NoError(t, err)
	require.Equal(t, "ws-src", current.WorkspaceID)

	// banned wins even when inconsistently listed as a member
	e.addWorkspace("ws-b", "other", []string{"other", "user-1"}, []string{"user-1"})
	_, err = e.svc.ShareToWorkspace(context.Background(), "user-1", note.ID, "ws-b")
	require.ErrorIs(t, err, appErr.ErrForbidden)

	e.addWorkspace("ws-c", "other", []string{"other", "user-1"}, nil)
	shared, err := e.svc.ShareToWorkspace(context.Background(), "user-1", note.ID, "ws-c")
	require.NoError(t, err)
	require.Equal(t, "ws-c", shared.WorkspaceID)
}

func TestShareToWorkspaceIdempotent(t *testing.T) {
	e := newEnv(t, service.NoteServiceOptions{})
	e.addWorkspace("ws-1", "other", []string{"other", "user-1"}, nil)
	note, err := e.svc.Create(context.Background(), "user-1", service.CreateNoteInput{
		WorkspaceID: "ws-1",
		Fields:      contentFields("hi"),
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		shared, err := e.svc.ShareToWorkspace(context.Background(), "user-1", note.ID, "ws-1")
		require.NoError(t, err)
		require.Equal(t, "ws-1", shared.WorkspaceID)
	}
}

func TestCopyToWorkspaceCreatesIndependentNote(t *testing.T) {
	e := newEnv(t, service.NoteServiceOptions{})
	e.addWorkspace("ws-src", "user-1", []string{"user-1"}, nil)
	e.addWorkspace("ws-dst", "other", []string{"other", "user-1"}, nil)
	note, err := e.svc.Create(context.Background(), "user-1", service.CreateNoteInput{
		WorkspaceID: "ws-src",
		Fields:      contentFields("hi"),
		NoteType:    model.NoteTypeChat,
		Tags:        []string{"a"},
	})
	require.NoError(t, err)

	copied, err := e.svc.CopyToWorkspace(context.Background(), "user-1", note.ID, "ws-dst")
	require.NoError(t, err)
	require.NotEqual(t, note.ID, copied.ID)
	require.Equal(t, "ws-dst", copied.WorkspaceID)
	require.Equal(t, "user-1", copied.OwnerID)
	require.Equal(t, model.NoteTypeContent, copied.NoteType)
	require.Equal(t, note.Fields, copied.Fields)
	require.Equal(t, note.VectorData, copied.VectorData)

	source, err := e.svc.Get(context.Background(), "user-1", note.ID)
	require.NoError(t, err)
	require.Equal(t, "ws-src", source.WorkspaceID)
	require.Equal(t, note.Fields, source.Fields)
	require.Equal(t, model.NoteTypeChat, source.NoteType)
}

func TestCopyToWorkspaceOwnerWithoutMembershipAllowed(t *testing.T) {
	e := newEnv(t, service.NoteServiceOptions{})
	e.addWorkspace("ws-src", "user-1", []string{"user-1"}, nil)
	e.addWorkspace("ws-dst", "user-1", nil, nil)
	note, err := e.svc.Create(context.Background(), "user-1", service.CreateNoteInput{
		WorkspaceID: "ws-src",
		Fields:      contentFields("hi"),
	})
	require.NoError(t, err)

	_, err = e.svc.CopyToWorkspace(context.Background(), "user-1", note.ID, "ws-dst")
	require.NoError(t, err)
}

func TestCopyToWorkspaceBanCheckConfigurable(t *testing.T) {
	setup := func(t *testing.T, respectBan bool) (*env, string) {
		e := newEnv(t, service.NoteServiceOptions{CopyRespectsBan: respectBan})
		e.addWorkspace("ws-src", "user-1", []string{"user-1"}, nil)
		e.addWorkspace("ws-dst", "other", []string{"other", "user-1"}, []string{"user-1"})
		note, err := e.svc.Create(context.Background(), "user-1", service.CreateNoteInput{
			WorkspaceID: "ws-src",
			Fields:      contentFields("hi"),
		})
		require.NoError(t, err)
		return e, note.ID
	}

	e, noteID := setup(t, false)
	_, err := e.svc.CopyToWorkspace(context.Background(), "user-1", noteID, "ws-dst")
	require.NoError(t, err)

	e, noteID = setup(t, true)
	_, err = e.svc.CopyToWorkspace(context.Background(), "user-1", noteID, "ws-dst")
	require.ErrorIs(t, err, appErr.ErrForbidden)
}

func TestListRequiresMembership(t *testing.T) {
	e := newEnv(t, service.NoteServiceOptions{})
	e.addWorkspace("ws-1", "owner", []string{"member"}, nil)

	_, err := e.svc.List(context.Background(), "outsider", service.ListNotesInput{WorkspaceID: "ws-1"})
	require.ErrorIs(t, err, appErr.ErrForbidden)
}

func TestListEmptyQueryKeepsStoreOrder(t *testing.T) {
	e := newEnv(t, service.NoteServiceOptions{})
	e.addWorkspace("ws-1", "owner", []string{"user-1"}, nil)
	for i := 0; i < 3; i++ {
		e.notes.notes = append(e.notes.notes, &model.Note{
			ID:          fmt.Sprintf("n-%d", i),
			OwnerID:     "user-1",
			WorkspaceID: "ws-1",
			NoteType:    model.NoteTypeContent,
			Ctime:       int64(i),
		})
	}

	notes, err := e.svc.List(context.Background(), "user-1", service.ListNotesInput{WorkspaceID: "ws-1", Query: "   "})
	require.NoError(t, err)
	require.Len(t, notes, 3)
	// creation-time descending
	require.Equal(t, "n-2", notes[0].ID)
	require.Equal(t, "n-1", notes[1].ID)
	require.Equal(t, "n-0", notes[2].ID)
	require.Zero(t, e.embedder.calls)
}

func TestListWithQueryReordersWithoutFiltering(t *testing.T) {
	e := newEnv(t, service.NoteServiceOptions{})
	e.addWorkspace("ws-1", "owner", []string{"user-1"}, nil)
	e.notes.notes = []*model.Note{
		{ID: "far", WorkspaceID: "ws-1", NoteType: model.NoteTypeContent, VectorData: []float32{0, 1, 0}, Ctime: 3},
		{ID: "empty", WorkspaceID: "ws-1", NoteType: model.NoteTypeContent, Ctime: 2},
		{ID: "near", WorkspaceID: "ws-1", NoteType: model.NoteTypeContent, VectorData: []float32{1, 0, 0}, Ctime: 1},
	}
	e.embedder.vector = []float32{1, 0, 0}

	notes, err := e.svc.List(context.Background(), "user-1", service.ListNotesInput{WorkspaceID: "ws-1", Query: "hello"})
	require.NoError(t, err)
	require.Len(t, notes, 3)
	require.Equal(t, "near", notes[0].ID)
	require.Equal(t, "far", notes[1].ID)
	require.Equal(t, "empty", notes[2].ID)
}

func TestListQueryEmbeddingFailureSurfaces(t *testing.T) {
	e := newEnv(t, service.NoteServiceOptions{})
	e.addWorkspace("ws-1", "owner", []string{"user-1"}, nil)
	e.embedder.err = errors.New("provider down")

	_, err := e.svc.List(context.Background(), "user-1", service.ListNotesInput{WorkspaceID: "ws-1", Query: "hello"})
	require.ErrorIs(t, err, service.ErrSearchEmbedding)
}

func TestListTagMatchAny(t *testing.T) {
	e := newEnv(t, service.NoteServiceOptions{})
	e.addWorkspace("ws-1", "owner", []string{"user-1"}, nil)
	e.notes.notes = []*model.Note{
		{ID: "only-a", WorkspaceID: "ws-1", NoteType: model.NoteTypeContent, Tags: []string{"a"}, Ctime: 1},
		{ID: "only-c", WorkspaceID: "ws-1", NoteType: model.NoteTypeContent, Tags: []string{"c"}, Ctime: 2},
		{ID: "a-and-b", WorkspaceID: "ws-1", NoteType: model.NoteTypeContent, Tags: []string{"a", "b"}, Ctime: 3},
	}

	notes, err := e.svc.List(context.Background(), "user-1", service.ListNotesInput{
		WorkspaceID: "ws-1",
		Tags:        []string{"a", "b"},
	})
	require.NoError(t, err)
	ids := make([]string, 0, len(notes))
	for _, note := range notes {
		ids = append(ids, note.ID)
	}
	require.ElementsMatch(t, []string{"only-a", "a-and-b"}, ids)

	notes, err = e.svc.List(context.Background(), "user-1", service.ListNotesInput{
		WorkspaceID: "ws-1",
		Tags:        []string{"a", "b"},
		TagMode:     repo.TagMatchAll,
	})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	require.Equal(t, "a-and-b", notes[0].ID)
}

func TestGetWorkspaceForNote(t *testing.T) {
	e := newEnv(t, service.NoteServiceOptions{})
	e.notes.notes = []*model.Note{{ID: "n-1", OwnerID: "someone", WorkspaceID: "ws-9"}}

	workspaceID, err := e.svc.GetWorkspaceForNote(context.Background(), "n-1")
	require.NoError(t, err)
	require.Equal(t, "ws-9", workspaceID)

	_, err = e.svc.GetWorkspaceForNote(context.Background(), "missing")
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestGetAuthorsSkipsUnknownAndDeduplicates(t *testing.T) {
	e := newEnv(t, service.NoteServiceOptions{})
	e.notes.notes = []*model.Note{
		{ID: "n-1", OwnerID: "user-b"},
		{ID: "n-2", OwnerID: "user-a"},
		{ID: "n-3", OwnerID: "user-b"},
	}
	e.users.users["user-a"] = model.User{ID: "user-a", Name: "Alice", Email: "a@example.com"}
	e.users.users["user-b"] = model.User{ID: "user-b", Name: "Bob", Email: "b@example.com"}

	authors, err := e.svc.GetAuthors(context.Background(), []string{"n-1", "ghost", "n-2", "n-3"})
	require.NoError(t, err)
	require.Len(t, authors, 2)
	require.Equal(t, "user-b", authors[0].ID)
	require.Equal(t, "user-a", authors[1].ID)

	authors, err = e.svc.GetAuthors(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, authors)
}

func TestDeleteAllForWorkspaceIgnoresOwnership(t *testing.T) {
	e := newEnv(t, service.NoteServiceOptions{})
	e.notes.notes = []*model.Note{
		{ID: "n-1", OwnerID: "user-a", WorkspaceID: "ws-1"},
		{ID: "n-2", OwnerID: "user-b", WorkspaceID: "ws-1"},
		{ID: "n-3", OwnerID: "user-a", WorkspaceID: "ws-2"},
	}

	deleted, err := e.svc.DeleteAllForWorkspace(context.Background(), "ws-1")
	require.NoError(t, err)
	require.Equal(t, int64(2), deleted)
	require.Len(t, e.notes.notes, 1)
	require.Equal(t, "n-3", e.notes.notes[0].ID)
}

func TestProcessMissingEmbeddingsBackfills(t *testing.T) {
	e := newEnv(t, service.NoteServiceOptions{})
	e.notes.notes = []*model.Note{
		{ID: "n-1", Fields: contentFields("hello")},
		{ID: "n-2"}, // no assembled text, stays empty
	}

	require.NoError(t, e.svc.ProcessMissingEmbeddings(context.Background(), 10))
	require.Equal(t, []float32{1, 0, 0}, e.notes.find("n-1").VectorData)
	require.Empty(t, e.notes.find("n-2").VectorData)
	require.Equal(t, 1, e.embedder.calls)
}
