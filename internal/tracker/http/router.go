package http

import "github.com/gin-gonic/gin"

// Register mounts the tracker endpoints on the given router group.
func (h *Handler) Register(r gin.IRouter) {
	projects := r.Group("/projects")
	projects.POST("", h.createProject)
	projects.GET("/:project_id/states/:item_type", h.listStates)
	projects.POST("/:project_id/states/:item_type/:state_key", h.addState)
	projects.PUT("/:project_id/states/:item_type/:state_key", h.updateState)
	projects.DELETE("/:project_id/states/:item_type/:state_key", h.removeState)

	items := r.Group("/work-items")
	items.POST("", h.createWorkItem)
	items.GET("", h.listWorkItems)
	items.GET("/:id", h.getWorkItem)
	items.PATCH("/:id", h.updateWorkItem)
	items.DELETE("/:id", h.deleteWorkItem)

	boards := r.Group("/boards")
	boards.POST("", h.createBoard)
	boards.POST("/:board_id/columns", h.addColumn)
	boards.POST("/:board_id/move", h.moveIssue)
	boards.GET("/:board_id/kanban", h.kanban)
}
