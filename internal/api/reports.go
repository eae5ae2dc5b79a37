package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"autorepair/internal/models"
	"autorepair/internal/service"

	"github.com/gin-gonic/gin"
)

// dateRange reads ?from= and ?to=; missing ends fall back to the report default
func dateRange(c *gin.Context) (service.DateRange, error) {
	var r service.DateRange

	from, err := queryDate(c, "from")
	if err != nil {
		return r, err
	}
	to, err := queryDate(c, "to")
	if err != nil {
		return r, err
	}
	if from != nil {
		r.From = *from
	}
	if to != nil {
		r.To = *to
	}
	return r, nil
}

func (h *Handler) dailyRevenue(c *gin.Context) {
	day, err := queryDate(c, "date")
	if err != nil {
		badRequest(c, "Invalid query", err)
		return
	}
	if day == nil {
		today := models.Today()
		day = &today
	}

	report, err := h.svc.Reports.DailyRevenue(c.Request.Context(), *day)
	if err != nil {
		h.respondError(c, "Failed to build daily report", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) monthlyRevenue(c *gin.Context) {
	now := time.Now()
	year, month := now.Year(), int(now.Month())

	var err error
	if raw := c.Query("year"); raw != "" {
		if year, err = strconv.Atoi(raw); err != nil {
			badRequest(c, "Invalid query", fmt.Errorf("invalid year %q", raw))
			return
		}
	}
	if raw := c.Query("month"); raw != "" {
		if month, err = strconv.Atoi(raw); err != nil {
			badRequest(c, "Invalid query", fmt.Errorf("invalid month %q", raw))
			return
		}
	}

	report, err := h.svc.Reports.MonthlyRevenue(c.Request.Context(), year, month)
	if err != nil {
		h.respondError(c, "Failed to build monthly report", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) partsUsage(c *gin.Context) {
	r, err := dateRange(c)
	if err != nil {
		badRequest(c, "Invalid query", err)
		return
	}

	stats, err := h.svc.Reports.PartsUsage(c.Request.Context(), r)
	if err != nil {
		h.respondError(c, "Failed to build parts usage report", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"parts": stats})
}

func (h *Handler) customerAnalysis(c *gin.Context) {
	r, err := dateRange(c)
	if err != nil {
		badRequest(c, "Invalid query", err)
		return
	}

	stats, err := h.svc.Reports.CustomerAnalysis(c.Request.Context(), r)
	if err != nil {
		h.respondError(c, "Failed to build customer report", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customers": stats})
}

func (h *Handler) inventoryValuation(c *gin.Context) {
	report, err := h.svc.Reports.InventoryValuation(c.Request.Context())
	if err != nil {
		h.respondError(c, "Failed to build inventory report", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) supplierAnalysis(c *gin.Context) {
	r, err := dateRange(c)
	if err != nil {
		badRequest(c, "Invalid query", err)
		return
	}

	stats, err := h.svc.Reports.SupplierAnalysis(c.Request.Context(), r)
	if err != nil {
		h.respondError(c, "Failed to build supplier report", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suppliers": stats})
}

func (h *Handler) profitAnalysis(c *gin.Context) {
	r, err := dateRange(c)
	if err != nil {
		badRequest(c, "Invalid query", err)
		return
	}

	report, err := h.svc.Reports.ProfitAnalysis(c.Request.Context(), r)
	if err != nil {
		h.respondError(c, "Failed to build profit report", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) orderStatistics(c *gin.Context) {
	r, err := dateRange(c)
	if err != nil {
		badRequest(c, "Invalid query", err)
		return
	}

	stats, err := h.svc.Reports.OrderStatistics(c.Request.Context(), r)
	if err != nil {
		h.respondError(c, "Failed to build order statistics", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
