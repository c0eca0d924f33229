package handler

import (
	"linkmart/internal/service"
	"linkmart/pkg/response"

	"github.com/gin-gonic/gin"
)

// ============================================================
// Auth
// ============================================================

// Register POST /auth/register
func (h *Handler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if !bind(c, &req) {
		return
	}
	session, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Created(c, "registered", session)
}

// Login POST /auth/login
func (h *Handler) Login(c *gin.Context) {
	var req service.LoginRequest
	if !bind(c, &req) {
		return
	}
	session, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, session)
}

// VerifyToken GET /auth/verify
func (h *Handler) VerifyToken(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	response.Success(c, gin.H{"user_id": p.UserID, "role": p.Role})
}

// ============================================================
// Users
// ============================================================

// Profile GET /users/profile
func (h *Handler) Profile(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	user, err := h.userService.Profile(c.Request.Context(), p)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, user)
}

// Wallet GET /users/wallet
func (h *Handler) Wallet(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	wallet, err := h.userService.Wallet(c.Request.Context(), p)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, wallet)
}

// Dashboard GET /users/dashboard
func (h *Handler) Dashboard(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	dash, err := h.userService.Dashboard(c.Request.Context(), p)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, dash)
}

// Transactions GET /users/transactions?page=&page_size=
func (h *Handler) Transactions(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	page, size := pageParams(c)
	result, err := h.userService.Transactions(c.Request.Context(), p, page, size)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, result)
}

// Analytics GET /analytics
func (h *Handler) Analytics(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	a, err := h.analyticsService.ForUser(c.Request.Context(), p)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, a)
}
