package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	idempotencyTTL = 24 * time.Hour
	submitLockTTL  = 30 * time.Second
)

// createOnce runs create and answers 201 with its result. With an
// Idempotency-Key header the response is remembered and replayed for repeats
// of the same key, and concurrent repeats are refused while the first runs.
func (h *Handler) createOnce(c *gin.Context, scope, message string, create func(ctx context.Context) (interface{}, error)) {
	ctx := c.Request.Context()

	key := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
	if key == "" || h.idempotency == nil {
		result, err := create(ctx)
		if err != nil {
			h.respondError(c, message, err)
			return
		}
		c.JSON(http.StatusCreated, result)
		return
	}
	key = scope + ":" + key

	if h.replay(c, key) {
		return
	}

	locked, err := h.idempotency.AcquireLock(ctx, key, submitLockTTL)
	switch {
	case err != nil:
		h.logger.Warn("Failed to acquire submit lock", zap.String("key", key), zap.Error(err))
	case !locked:
		c.JSON(http.StatusConflict, gin.H{
			"error": "A request with this Idempotency-Key is already in progress",
		})
		return
	default:
		defer func() {
			if err := h.idempotency.ReleaseLock(context.Background(), key); err != nil {
				h.logger.Warn("Failed to release submit lock", zap.String("key", key), zap.Error(err))
			}
		}()
		// The holder before us may have finished between the lookup and the lock.
		if h.replay(c, key) {
			return
		}
	}

	result, err := create(ctx)
	if err != nil {
		h.respondError(c, message, err)
		return
	}

	body, err := json.Marshal(result)
	if err != nil {
		h.respondError(c, "Failed to encode response", err)
		return
	}
	if err := h.idempotency.RememberResult(ctx, key, string(body), idempotencyTTL); err != nil {
		h.logger.Warn("Failed to store idempotent response", zap.String("key", key), zap.Error(err))
	}
	c.Data(http.StatusCreated, "application/json; charset=utf-8", body)
}

// replay answers with the stored response for key and reports whether one existed
func (h *Handler) replay(c *gin.Context, key string) bool {
	stored, found, err := h.idempotency.LookupResult(c.Request.Context(), key)
	if err != nil {
		h.logger.Warn("Idempotency lookup failed", zap.String("key", key), zap.Error(err))
	}
	if !found {
		return false
	}

	h.logger.Info("Replaying idempotent response", zap.String("key", key))
	c.Header("Idempotent-Replay", "true")
	c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(stored))
	return true
}
