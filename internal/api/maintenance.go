package api

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
)

func (h *Handler) databaseInfo(c *gin.Context) {
	info, err := h.db.Info(c.Request.Context())
	if err != nil {
		h.respondError(c, "Failed to read database info", err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *Handler) integrityCheck(c *gin.Context) {
	problems, err := h.db.IntegrityCheck(c.Request.Context())
	if err != nil {
		h.respondError(c, "Integrity check failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":       len(problems) == 0,
		"problems": problems,
	})
}

func (h *Handler) vacuum(c *gin.Context) {
	if err := h.db.Vacuum(c.Request.Context()); err != nil {
		h.respondError(c, "Vacuum failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "vacuumed"})
}

func (h *Handler) backupsEnabled(c *gin.Context) bool {
	if h.backups == nil {
		c.JSON(http.StatusNotImplemented, gin.H{
			"error": "Backups are only available for the sqlite store",
		})
		return false
	}
	return true
}

func (h *Handler) listBackups(c *gin.Context) {
	if !h.backupsEnabled(c) {
		return
	}

	files, err := h.backups.List()
	if err != nil {
		h.respondError(c, "Failed to list backups", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"backups": files})
}

type backupRequest struct {
	Name string `json:"name"`
}

func (h *Handler) createBackup(c *gin.Context) {
	if !h.backupsEnabled(c) {
		return
	}

	var req backupRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request body", err)
			return
		}
	}

	path, err := h.backups.Backup(req.Name)
	if err != nil {
		h.respondError(c, "Backup failed", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"path": path})
}

func (h *Handler) deleteBackup(c *gin.Context) {
	if !h.backupsEnabled(c) {
		return
	}

	name := c.Param("name")
	if filepath.Base(name) != name || filepath.Ext(name) != ".db" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid backup name",
		})
		return
	}

	if err := h.backups.Delete(name); err != nil {
		h.respondError(c, "Failed to delete backup", err)
		return
	}
	c.Status(http.StatusNoContent)
}
