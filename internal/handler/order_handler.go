package handler

import (
	"linkmart/internal/service"
	"linkmart/pkg/response"

	"github.com/gin-gonic/gin"
)

// ============================================================
// Campaigns
// ============================================================

// CreateCampaign POST /campaigns
func (h *Handler) CreateCampaign(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	var req service.CreateCampaignRequest
	if !bind(c, &req) {
		return
	}
	campaign, err := h.campaignService.Create(c.Request.Context(), p, &req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Created(c, "campaign submitted for review", campaign)
}

// MyCampaigns GET /campaigns
func (h *Handler) MyCampaigns(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	campaigns, err := h.campaignService.ListMine(c.Request.Context(), p)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, campaigns)
}

// DeleteCampaign DELETE /campaigns/:id and DELETE /campaigns/admin/:id
func (h *Handler) DeleteCampaign(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.campaignService.Delete(c.Request.Context(), p, id); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, gin.H{"id": id})
}

// AllCampaigns GET /campaigns/admin?status=
func (h *Handler) AllCampaigns(c *gin.Context) {
	campaigns, err := h.campaignService.ListAll(c.Request.Context(), c.Query("status"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, campaigns)
}

// PendingCampaigns GET /admin/campaigns/pending
func (h *Handler) PendingCampaigns(c *gin.Context) {
	campaigns, err := h.campaignService.ListAll(c.Request.Context(), "pending")
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, campaigns)
}

// UpdateCampaignStatus PATCH /campaigns/admin/:id/status and PATCH /admin/campaigns/:id/status
func (h *Handler) UpdateCampaignStatus(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req StatusRequest
	if !bind(c, &req) {
		return
	}
	campaign, err := h.campaignService.UpdateStatus(c.Request.Context(), id, req.Status, req.AdminNote)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, campaign)
}

// ============================================================
// Boosts
// ============================================================

// BoostServices GET /boosts/services
func (h *Handler) BoostServices(c *gin.Context) {
	services, err := h.boostService.Services(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, services)
}

// CreateBoost POST /boosts
//
// A failed automatic dispatch still returns the stored boost and the new
// balance alongside the error.
func (h *Handler) CreateBoost(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	var req service.CreateBoostRequest
	if !bind(c, &req) {
		return
	}
	result, err := h.boostService.Create(c.Request.Context(), p, &req)
	if err != nil && result != nil {
		response.FailWithData(c, err, result)
		return
	}
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Created(c, "boost created", result)
}

// MyBoosts GET /boosts/my
func (h *Handler) MyBoosts(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	boosts, err := h.boostService.ListMine(c.Request.Context(), p)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, boosts)
}

// AllBoosts GET /boosts/admin?status=
func (h *Handler) AllBoosts(c *gin.Context) {
	boosts, err := h.boostService.ListAll(c.Request.Context(), c.Query("status"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, boosts)
}

// UpdateBoostStatus PATCH /boosts/admin/:id/status
func (h *Handler) UpdateBoostStatus(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req StatusRequest
	if !bind(c, &req) {
		return
	}
	boost, err := h.boostService.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, boost)
}

// DeleteBoost DELETE /boosts/admin/:id
func (h *Handler) DeleteBoost(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.boostService.Delete(c.Request.Context(), id); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, gin.H{"id": id})
}
