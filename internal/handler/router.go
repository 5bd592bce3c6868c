package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/reolin/wsnotes/internal/middleware"
)

type RouterDeps struct {
	Notes         *NoteHandler
	Notifications *NotificationHandler
	JWTSecret     []byte
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))

	authGroup.POST("/notes", deps.Notes.Create)
	authGroup.GET("/notes", deps.Notes.List)
	authGroup.GET("/notes/authors", deps.Notes.Authors)
	authGroup.GET("/notes/:id", deps.Notes.Get)
	authGroup.PUT("/notes/:id", deps.Notes.Update)
	authGroup.DELETE("/notes/:id", deps.Notes.Delete)
	authGroup.GET("/notes/:id/workspace", deps.Notes.GetWorkspace)

	moveGroup := authGroup.Group("")
	moveGroup.Use(middleware.RateLimit(time.Second))
	moveGroup.POST("/notes/:id/share", deps.Notes.Share)
	moveGroup.POST("/notes/:id/copy", deps.Notes.Copy)

	authGroup.DELETE("/workspaces/:id/notes", deps.Notes.DeleteByWorkspace)
	authGroup.POST("/notifications/token/validate", deps.Notifications.ValidateToken)
}
