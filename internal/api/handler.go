package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"autorepair/internal/backup"
	"autorepair/internal/models"
	"autorepair/internal/service"
	"autorepair/internal/store"
	"autorepair/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Services groups the shop operations exposed over HTTP
type Services struct {
	Parts     service.PartCatalog
	Customers service.CustomerDirectory
	Orders    service.RepairOrders
	Purchases service.Purchases
	Reports   service.Reporting
}

// Database is the part of the store the maintenance endpoints need
type Database interface {
	Ping(ctx context.Context) error
	Info(ctx context.Context) (*store.Info, error)
	Vacuum(ctx context.Context) error
	IntegrityCheck(ctx context.Context) ([]string, error)
}

// Backups manages database file copies. Nil when the store is not sqlite.
type Backups interface {
	Backup(name string) (string, error)
	List() ([]backup.File, error)
	Delete(path string) error
}

// IdempotencyStore remembers create responses by Idempotency-Key. Nil disables
// replay protection.
type IdempotencyStore interface {
	LookupResult(ctx context.Context, key string) (string, bool, error)
	RememberResult(ctx context.Context, key, result string, ttl time.Duration) error
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string) error
}

// Handler contains HTTP handlers
type Handler struct {
	svc         Services
	db          Database
	backups     Backups
	idempotency IdempotencyStore
	logger      *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(svc Services, db Database, backups Backups, idempotency IdempotencyStore) *Handler {
	return &Handler{
		svc:         svc,
		db:          db,
		backups:     backups,
		idempotency: idempotency,
		logger:      util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/parts", h.listParts)
		v1.POST("/parts", h.createPart)
		v1.GET("/parts/:id", h.getPart)
		v1.PUT("/parts/:id", h.updatePart)
		v1.DELETE("/parts/:id", h.deletePart)
		v1.POST("/parts/:id/stock", h.adjustStock)
		v1.GET("/part-categories", h.listCategories)

		v1.GET("/customers", h.listCustomers)
		v1.POST("/customers", h.createCustomer)
		v1.GET("/customers/:id", h.getCustomer)
		v1.PUT("/customers/:id", h.updateCustomer)
		v1.DELETE("/customers/:id", h.deleteCustomer)
		v1.GET("/customers/:id/orders", h.customerHistory)

		v1.GET("/repair-orders", h.searchOrders)
		v1.POST("/repair-orders", h.createRepairOrder)
		v1.GET("/repair-orders/:number", h.getRepairOrder)
		v1.PATCH("/repair-orders/:number", h.updateRepairOrder)
		v1.POST("/repair-orders/:number/complete", h.completeRepairOrder)
		v1.POST("/repair-orders/:number/cancel", h.cancelRepairOrder)

		v1.GET("/purchase-orders", h.listPurchaseOrders)
		v1.POST("/purchase-orders", h.createPurchaseOrder)
		v1.GET("/purchase-orders/:id", h.getPurchaseOrder)

		reports := v1.Group("/reports")
		reports.GET("/daily", h.dailyRevenue)
		reports.GET("/monthly", h.monthlyRevenue)
		reports.GET("/parts-usage", h.partsUsage)
		reports.GET("/customers", h.customerAnalysis)
		reports.GET("/inventory", h.inventoryValuation)
		reports.GET("/suppliers", h.supplierAnalysis)
		reports.GET("/profit", h.profitAnalysis)
		reports.GET("/order-stats", h.orderStatistics)

		maintenance := v1.Group("/maintenance")
		maintenance.GET("/database", h.databaseInfo)
		maintenance.GET("/integrity", h.integrityCheck)
		maintenance.POST("/vacuum", h.vacuum)
		maintenance.GET("/backups", h.listBackups)
		maintenance.POST("/backups", h.createBackup)
		maintenance.DELETE("/backups/:name", h.deleteBackup)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck reports ready once the database answers
func (h *Handler) readinessCheck(c *gin.Context) {
	if err := h.db.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unavailable",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrCustomerNotFound),
		errors.Is(err, models.ErrPartNotFound),
		errors.Is(err, models.ErrOrderNotFound),
		errors.Is(err, models.ErrPurchaseOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrDuplicatePartCode),
		errors.Is(err, models.ErrPartInUse),
		errors.Is(err, models.ErrCustomerHasOrders),
		errors.Is(err, models.ErrInsufficientStock),
		errors.Is(err, models.ErrInvalidStatusTransition):
		return http.StatusConflict
	case errors.Is(err, models.ErrValidation),
		errors.Is(err, models.ErrInvalidLineItem):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (h *Handler) respondError(c *gin.Context, message string, err error) {
	status := statusFor(err)
	body := gin.H{
		"error":   message,
		"details": err.Error(),
	}

	var stockErr *models.InsufficientStockError
	if errors.As(err, &stockErr) {
		body["part_id"] = stockErr.PartID
		body["available"] = stockErr.Available
		body["requested"] = stockErr.Requested
	}

	if status == http.StatusInternalServerError {
		h.logger.Error(message, zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, message string, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   message,
		"details": err.Error(),
	})
}

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid " + name,
		})
		return 0, false
	}
	return id, true
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
