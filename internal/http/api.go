package http

import (
	"errors"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/saker-ai/armscript/internal/dispatch"
	"github.com/saker-ai/armscript/internal/session"
	"github.com/saker-ai/armscript/internal/storage"
)

type api struct {
	manager *session.Manager
	logger  *zap.Logger
}

func (a *api) listTools(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tools": dispatch.Tools()})
}

func (a *api) createSession(c *gin.Context) {
	sess, err := a.manager.Create()
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session_id": sess.ID()})
}

func (a *api) listSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"active": a.manager.Active(),
		"stored": storage.ListSessions(a.manager.Options().DataDir),
	})
}

// getSession returns the live snapshot of an active session, or the stored
// metadata of one that has been closed.
func (a *api) getSession(c *gin.Context) {
	id := c.Param("id")
	sess, err := a.manager.Get(id)
	if err == nil {
		c.JSON(http.StatusOK, sess.Snapshot())
		return
	}
	meta, metaErr := storage.GetMeta(a.manager.Options().DataDir, id)
	switch {
	case metaErr == nil:
		c.JSON(http.StatusOK, meta)
	case errors.Is(metaErr, storage.ErrInvalidName):
		a.fail(c, metaErr)
	default:
		a.fail(c, err)
	}
}

func (a *api) applyAction(c *gin.Context) {
	sess, err := a.manager.Get(c.Param("id"))
	if err != nil {
		a.fail(c, err)
		return
	}
	var call dispatch.Call
	if err := c.ShouldBindJSON(&call); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tool call: " + err.Error()})
		return
	}
	entry, err := sess.Call(call)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (a *api) exportSession(c *gin.Context) {
	sess, err := a.manager.Get(c.Param("id"))
	if err != nil {
		a.fail(c, err)
		return
	}
	artifacts, err := sess.Export()
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, artifacts)
}

// closeSession closes an active session. With ?purge=true the stored
// directory is removed as well, whether or not the session was still active.
func (a *api) closeSession(c *gin.Context) {
	id := c.Param("id")
	if c.Query("purge") != "true" {
		artifacts, err := a.manager.Close(id)
		if err != nil {
			a.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, artifacts)
		return
	}

	_, err := a.manager.Close(id)
	if err != nil && !errors.Is(err, session.ErrSessionNotFound) {
		a.logger.Warn("close before purge failed", zap.String("session_id", id), zap.Error(err))
	}
	if !storage.DeleteSession(a.manager.Options().DataDir, id) {
		if err == nil {
			c.JSON(http.StatusOK, gin.H{"session_id": id, "purged": false})
			return
		}
		a.fail(c, session.ErrSessionNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": id, "purged": true})
}

func (a *api) getArtifact(c *gin.Context) {
	opts := a.manager.Options()
	var name string
	switch c.Param("artifact") {
	case "structured":
		name = opts.StructuredName
	case "executable":
		name = opts.ExecutableName
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown artifact"})
		return
	}
	path, err := storage.ArtifactPath(opts.DataDir, c.Param("id"), name)
	if err != nil {
		a.fail(c, err)
		return
	}
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "artifact not exported"})
		return
	}
	c.File(path)
}

func (a *api) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrSessionClosed):
		status = http.StatusConflict
	case errors.Is(err, session.ErrTooManySessions):
		status = http.StatusTooManyRequests
	case errors.Is(err, dispatch.ErrUnknownAction), errors.Is(err, dispatch.ErrInvalidArguments), errors.Is(err, storage.ErrInvalidName):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError && a.logger != nil {
		a.logger.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
