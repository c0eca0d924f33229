package handler

import (
	"linkmart/internal/service"
	"linkmart/pkg/response"

	"github.com/gin-gonic/gin"
)

// ============================================================
// Admin
// ============================================================

// ListUsers GET /admin/users?page=&page_size=
func (h *Handler) ListUsers(c *gin.Context) {
	page, size := pageParams(c)
	users, err := h.adminService.ListUsers(c.Request.Context(), page, size)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, users)
}

// UpdateUserStatus PATCH /admin/users/:id/status
func (h *Handler) UpdateUserStatus(c *gin.Context) {
	admin, ok := mustPrincipal(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req StatusRequest
	if !bind(c, &req) {
		return
	}
	user, err := h.adminService.SetUserStatus(c.Request.Context(), admin, id, req.Status)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, user)
}

// AdjustBalance POST /admin/users/:id/adjust
func (h *Handler) AdjustBalance(c *gin.Context) {
	admin, ok := mustPrincipal(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req service.AdjustRequest
	if !bind(c, &req) {
		return
	}
	trans, err := h.adminService.Adjust(c.Request.Context(), admin, id, &req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, trans)
}

// Stats GET /admin/stats
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.adminService.Stats(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, stats)
}

// RetryOutbox POST /admin/outbox/retry
func (h *Handler) RetryOutbox(c *gin.Context) {
	n, err := h.adminService.RetryOutbox(c.Request.Context(), 500)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, gin.H{"requeued": n})
}
