package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/taskforge-app/taskforge-backend/internal/tracker/domain"
)

// respondError maps domain errors onto HTTP statuses. Configuration
// faults are server-side; everything else caller-facing gets a 4xx.
func respondError(c *gin.Context, err error) {
	switch {
	case domain.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "not found"})
	case errors.Is(err, domain.ErrCrossProject):
		c.JSON(http.StatusConflict, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, domain.ErrCapacityExceeded):
		c.JSON(http.StatusConflict, gin.H{"ok": false, "error": err.Error()})
	case domain.IsConfig(err):
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "state configuration error"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
	}
}

func (h *Handler) createProject(c *gin.Context) {
	var req createProjectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	p, err := h.projects.Create(c.Request.Context(), req.Key, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "project": p})
}

func (h *Handler) listStates(c *gin.Context) {
	projectID := c.Param("project_id")
	itemType := domain.ItemType(c.Param("item_type"))

	states, err := h.registry.StatesFor(c.Request.Context(), projectID, itemType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "states": states})
}

func (h *Handler) addState(c *gin.Context) {
	var req stateDefReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	def := &domain.StateDefinition{
		ProjectID:   c.Param("project_id"),
		ItemType:    domain.ItemType(c.Param("item_type")),
		StateKey:    c.Param("state_key"),
		DisplayName: req.DisplayName,
		Color:       req.Color,
		IsInitial:   req.IsInitial,
		IsFinal:     req.IsFinal,
		SortOrder:   req.SortOrder,
	}
	created, err := h.registry.AddState(c.Request.Context(), def)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "state": created})
}

func (h *Handler) updateState(c *gin.Context) {
	var req stateDefReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	def := &domain.StateDefinition{
		ProjectID:   c.Param("project_id"),
		ItemType:    domain.ItemType(c.Param("item_type")),
		StateKey:    c.Param("state_key"),
		DisplayName: req.DisplayName,
		Color:       req.Color,
		IsInitial:   req.IsInitial,
		IsFinal:     req.IsFinal,
		SortOrder:   req.SortOrder,
	}
	updated, err := h.registry.UpdateState(c.Request.Context(), def)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "state": updated})
}

func (h *Handler) removeState(c *gin.Context) {
	err := h.registry.RemoveState(c.Request.Context(),
		c.Param("project_id"), domain.ItemType(c.Param("item_type")), c.Param("state_key"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) createWorkItem(c *gin.Context) {
	var in domain.CreateWorkItemInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	if in.ReporterID == nil {
		if actor := c.GetString("actor_id"); actor != "" {
			in.ReporterID = &actor
		}
	}

	item, err := h.items.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "work_item": item})
}

func (h *Handler) updateWorkItem(c *gin.Context) {
	var in domain.UpdateWorkItemInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	item, err := h.items.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "work_item": item})
}

func (h *Handler) getWorkItem(c *gin.Context) {
	item, err := h.items.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "work_item": item})
}

func (h *Handler) listWorkItems(c *gin.Context) {
	f := domain.Filter{
		ProjectID:     c.Query("project_id"),
		TitleContains: c.Query("title"),
		State:         c.Query("state"),
		Type:          domain.ItemType(c.Query("type")),
		AssigneeID:    c.Query("assignee_id"),
		Priority:      c.Query("priority"),
		Page:          queryInt(c, "page", 1),
		PageSize:      queryInt(c, "page_size", 25),
	}

	page, err := h.items.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "page": page})
}

func (h *Handler) deleteWorkItem(c *gin.Context) {
	if err := h.items.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) createBoard(c *gin.Context) {
	var req createBoardReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	board, err := h.boards.CreateBoard(c.Request.Context(), req.ProjectID, req.Name, req.IsDefault)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "board": board})
}

func (h *Handler) addColumn(c *gin.Context) {
	var req createColumnReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	col := &domain.BoardColumn{
		BoardID:      c.Param("board_id"),
		Name:         req.Name,
		StateMapping: req.StateMapping,
		WIPLimit:     req.WIPLimit,
		SortOrder:    req.SortOrder,
		Color:        req.Color,
	}
	created, err := h.boards.AddColumn(c.Request.Context(), col)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "column": created})
}

func (h *Handler) moveIssue(c *gin.Context) {
	var req moveReq
	if err := c.ShouldBindJSON(&req); err != nil || req.IssueID == "" || req.ColumnID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	item, err := h.boards.MoveIssue(c.Request.Context(), req.IssueID, req.ColumnID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "work_item": item})
}

func (h *Handler) kanban(c *gin.Context) {
	view, err := h.boards.Kanban(c.Request.Context(), c.Param("board_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "kanban": view})
}

func queryInt(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
