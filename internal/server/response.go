package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/roadmap/internal/store"
)

type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type errorEnvelope struct {
	Error apiError `json:"error"`
}

func respondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, errorEnvelope{Error: apiError{Message: msg, Code: code}})
}

// respondStoreError maps persistence errors onto HTTP statuses.
func (a *api) respondStoreError(c *gin.Context, err error) {
	if errors.Is(err, store.ErrRoadmapNotFound) {
		respondError(c, http.StatusNotFound, "not_found", err)
		return
	}
	a.log.Error("request failed", "path", c.Request.URL.Path, "request_id", c.GetString(requestIDKey), "error", err)
	respondError(c, http.StatusInternalServerError, "internal", errors.New("internal error"))
}
