package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/reolin/wsnotes/internal/model"
	"github.com/reolin/wsnotes/internal/pkg/errcode"
	"github.com/reolin/wsnotes/internal/pkg/response"
	"github.com/reolin/wsnotes/internal/repo"
	"github.com/reolin/wsnotes/internal/service"
)

type NoteHandler struct {
	notes *service.NoteService
}

func NewNoteHandler(notes *service.NoteService) *NoteHandler {
	return &NoteHandler{notes: notes}
}

type createNoteRequest struct {
	WorkspaceID string         `json:"workspace_id"`
	Fields      []model.Field  `json:"fields"`
	NoteType    model.NoteType `json:"note_type"`
	Tags        []string       `json:"tags"`
}

func (h *NoteHandler) Create(c *gin.Context) {
	var req createNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if req.WorkspaceID == "" {
		response.Error(c, errcode.ErrInvalid, "workspace_id required")
		return
	}
	note, err := h.notes.Create(c.Request.Context(), getUserID(c), service.CreateNoteInput{
		WorkspaceID: req.WorkspaceID,
		Fields:      req.Fields,
		NoteType:    req.NoteType,
		Tags:        req.Tags,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, note)
}

func (h *NoteHandler) List(c *gin.Context) {
	workspaceID := c.Query("workspace_id")
	if workspaceID == "" {
		response.Error(c, errcode.ErrInvalid, "workspace_id required")
		return
	}
	var tags []string
	if raw := c.Query("tags"); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
	}
	tagMode := repo.TagMatchAny
	if c.Query("tag_mode") == "all" {
		tagMode = repo.TagMatchAll
	}
	notes, err := h.notes.List(c.Request.Context(), getUserID(c), service.ListNotesInput{
		WorkspaceID: workspaceID,
		NoteType:    model.NoteType(c.Query("note_type")),
		Tags:        tags,
		TagMode:     tagMode,
		Query:       c.Query("q"),
	})
	if err != nil {
		handleError(c, err)
		return
	}
	if notes == nil {
		notes = []model.Note{}
	}
	response.Success(c, notes)
}

func (h *NoteHandler) Get(c *gin.Context) {
	note, err := h.notes.Get(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	// Absence is a null payload, not an error, on this owner-scoped lookup.
	response.Success(c, note)
}

type updateNoteRequest struct {
	Fields   *[]model.Field  `json:"fields"`
	NoteType *model.NoteType `json:"note_type"`
	Tags     *[]string       `json:"tags"`
}

func (h *NoteHandler) Update(c *gin.Context) {
	var req updateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	note, err := h.notes.Update(c.Request.Context(), getUserID(c), c.Param("id"), service.UpdateNoteInput{
		Fields:   req.Fields,
		NoteType: req.NoteType,
		Tags:     req.Tags,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, note)
}

func (h *NoteHandler) Delete(c *gin.Context) {
	note, err := h.notes.Delete(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, note)
}

func (h *NoteHandler) GetWorkspace(c *gin.Context) {
	workspaceID, err := h.notes.GetWorkspaceForNote(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"workspace_id": workspaceID})
}

type moveNoteRequest struct {
	WorkspaceID string `json:"workspace_id"`
}

func (h *NoteHandler) Share(c *gin.Context) {
	var req moveNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.WorkspaceID == "" {
		response.Error(c, errcode.ErrInvalid, "workspace_id required")
		return
	}
	note, err := h.notes.ShareToWorkspace(c.Request.Context(), getUserID(c), c.Param("id"), req.WorkspaceID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, note)
}

func (h *NoteHandler) Copy(c *gin.Context) {
	var req moveNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.WorkspaceID == "" {
		response.Error(c, errcode.ErrInvalid, "workspace_id required")
		return
	}
	note, err := h.notes.CopyToWorkspace(c.Request.Context(), getUserID(c), c.Param("id"), req.WorkspaceID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, note)
}

func (h *NoteHandler) Authors(c *gin.Context) {
	var noteIDs []string
	for _, id := range strings.Split(c.Query("ids"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			noteIDs = append(noteIDs, id)
		}
	}
	authors, err := h.notes.GetAuthors(c.Request.Context(), noteIDs)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, authors)
}

// DeleteByWorkspace is the teardown cascade used by the workspace
// collaborator; it carries no per-note owner check.
func (h *NoteHandler) DeleteByWorkspace(c *gin.Context) {
	count, err := h.notes.DeleteAllForWorkspace(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": count})
}
