package api

import (
	"net/http"
	"strconv"

	"autorepair/internal/models"
	"autorepair/internal/service"

	"github.com/gin-gonic/gin"
)

// listParts serves ?code= lookups, ?low_stock=true and keyword/category search
func (h *Handler) listParts(c *gin.Context) {
	ctx := c.Request.Context()

	if code := c.Query("code"); code != "" {
		part, err := h.svc.Parts.GetPartByCode(ctx, code)
		if err != nil {
			h.respondError(c, "Part not found", err)
			return
		}
		c.JSON(http.StatusOK, part)
		return
	}

	var (
		parts []models.Part
		err   error
	)
	if lowStock, _ := strconv.ParseBool(c.Query("low_stock")); lowStock {
		parts, err = h.svc.Parts.ListLowStock(ctx)
	} else {
		parts, err = h.svc.Parts.SearchParts(ctx, c.Query("q"), c.Query("category"))
	}
	if err != nil {
		h.respondError(c, "Failed to list parts", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"parts": parts,
		"count": len(parts),
	})
}

func (h *Handler) createPart(c *gin.Context) {
	var req service.PartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	part, err := h.svc.Parts.AddPart(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, "Failed to create part", err)
		return
	}
	c.JSON(http.StatusCreated, part)
}

func (h *Handler) getPart(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	part, err := h.svc.Parts.GetPart(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "Part not found", err)
		return
	}
	c.JSON(http.StatusOK, part)
}

func (h *Handler) updatePart(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req service.PartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	part, err := h.svc.Parts.UpdatePart(c.Request.Context(), id, &req)
	if err != nil {
		h.respondError(c, "Failed to update part", err)
		return
	}
	c.JSON(http.StatusOK, part)
}

func (h *Handler) deletePart(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Parts.DeletePart(c.Request.Context(), id); err != nil {
		h.respondError(c, "Failed to delete part", err)
		return
	}
	c.Status(http.StatusNoContent)
}

type stockAdjustment struct {
	Delta int `json:"delta" binding:"required"`
}

func (h *Handler) adjustStock(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req stockAdjustment
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	part, err := h.svc.Parts.AdjustStock(c.Request.Context(), id, req.Delta)
	if err != nil {
		h.respondError(c, "Failed to adjust stock", err)
		return
	}
	c.JSON(http.StatusOK, part)
}

func (h *Handler) listCategories(c *gin.Context) {
	categories, err := h.svc.Parts.ListCategories(c.Request.Context())
	if err != nil {
		h.respondError(c, "Failed to list categories", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// listCustomers serves ?phone= and ?name= lookups and ?q= search
func (h *Handler) listCustomers(c *gin.Context) {
	ctx := c.Request.Context()

	if phone := c.Query("phone"); phone != "" {
		customer, err := h.svc.Customers.GetCustomerByPhone(ctx, phone)
		if err != nil {
			h.respondError(c, "Customer not found", err)
			return
		}
		c.JSON(http.StatusOK, customer)
		return
	}
	if name := c.Query("name"); name != "" {
		customer, err := h.svc.Customers.GetCustomerByName(ctx, name)
		if err != nil {
			h.respondError(c, "Customer not found", err)
			return
		}
		c.JSON(http.StatusOK, customer)
		return
	}

	customers, err := h.svc.Customers.SearchCustomers(ctx, c.Query("q"))
	if err != nil {
		h.respondError(c, "Failed to list customers", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"customers": customers,
		"count":     len(customers),
	})
}

func (h *Handler) createCustomer(c *gin.Context) {
	var req service.CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	customer, err := h.svc.Customers.AddCustomer(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, "Failed to create customer", err)
		return
	}
	c.JSON(http.StatusCreated, customer)
}

func (h *Handler) getCustomer(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	customer, err := h.svc.Customers.GetCustomer(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "Customer not found", err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *Handler) updateCustomer(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req service.CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	customer, err := h.svc.Customers.UpdateCustomer(c.Request.Context(), id, &req)
	if err != nil {
		h.respondError(c, "Failed to update customer", err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *Handler) deleteCustomer(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Customers.DeleteCustomer(c.Request.Context(), id); err != nil {
		h.respondError(c, "Failed to delete customer", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) customerHistory(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	orders, err := h.svc.Customers.CustomerHistory(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "Failed to load customer history", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}
