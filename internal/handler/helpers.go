package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/reolin/wsnotes/internal/middleware"
	"github.com/reolin/wsnotes/internal/pkg/errcode"
	appErr "github.com/reolin/wsnotes/internal/pkg/errors"
	"github.com/reolin/wsnotes/internal/pkg/response"
	"github.com/reolin/wsnotes/internal/service"
)

func getUserID(c *gin.Context) string {
	value, _ := c.Get(middleware.ContextUserIDKey)
	userID, _ := value.(string)
	return userID
}

// handleError maps the service error taxonomy onto response codes. NotFound
// and Forbidden stay distinct so clients can tell "missing" from
// "forbidden".
func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Warn("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("user_id", getUserID(c)),
		zap.Error(err),
	)
	switch {
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, errcode.ErrUnauthorized, "unauthorized")
	case errors.Is(err, appErr.ErrForbidden):
		response.Error(c, errcode.ErrForbidden, "forbidden")
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, "invalid request")
	case errors.Is(err, appErr.ErrConflict):
		response.Error(c, errcode.ErrConflict, "conflict")
	case errors.Is(err, service.ErrSearchEmbedding):
		response.Error(c, errcode.ErrEmbeddingUnavailable, "search embedding unavailable")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
