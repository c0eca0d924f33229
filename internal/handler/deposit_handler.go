package handler

import (
	"net/http"

	"linkmart/internal/infrastructure/paystack"
	"linkmart/internal/model"
	"linkmart/internal/service"
	"linkmart/pkg/response"

	"github.com/gin-gonic/gin"
)

// ============================================================
// Deposits
// ============================================================

// CreateWalletDeposit POST /paystack/create funds the campaign wallet.
func (h *Handler) CreateWalletDeposit(c *gin.Context) {
	h.createDeposit(c, model.WalletCampaign)
}

// CreateBalanceDeposit POST /deposits/create funds the spending balance.
func (h *Handler) CreateBalanceDeposit(c *gin.Context) {
	h.createDeposit(c, model.WalletSpending)
}

func (h *Handler) createDeposit(c *gin.Context, wallet model.WalletKind) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	var req service.InitiateDepositRequest
	if !bind(c, &req) {
		return
	}
	result, err := h.depositService.Initiate(c.Request.Context(), p, req.Amount, wallet)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, result)
}

// VerifyDeposit GET /paystack/verify?reference= and GET /deposits/verify?reference=
//
// Authentication is optional: the browser returning from the payment page
// may no longer carry a token.
func (h *Handler) VerifyDeposit(c *gin.Context) {
	reference := c.Query("reference")
	if reference == "" {
		reference = c.Query("trxref")
	}
	if reference == "" {
		response.ParamError(c, "reference is required")
		return
	}
	deposit, err := h.depositService.Verify(c.Request.Context(), reference, optionalPrincipal(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, deposit)
}

// PaystackWebhook POST /paystack/webhook
func (h *Handler) PaystackWebhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		response.ParamError(c, "unreadable body")
		return
	}
	result, err := h.depositService.HandleWebhook(c.Request.Context(), body, c.GetHeader(paystack.SignatureHeader))
	if err != nil {
		response.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": result})
}

// DepositHistory GET /paystack/history?page=&page_size=
func (h *Handler) DepositHistory(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	page, size := pageParams(c)
	items, total, err := h.depositService.History(c.Request.Context(), p, page, size)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, pageResult{Items: items, Total: total, Page: page, PageSize: size})
}

// GetDeposit GET /paystack/history/:id
func (h *Handler) GetDeposit(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	deposit, err := h.depositService.Get(c.Request.Context(), p, id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, deposit)
}

// AllDeposits GET /admin/deposits?status=&page=&page_size=
func (h *Handler) AllDeposits(c *gin.Context) {
	page, size := pageParams(c)
	items, total, err := h.depositService.ListAll(c.Request.Context(), c.Query("status"), page, size)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, pageResult{Items: items, Total: total, Page: page, PageSize: size})
}

// UpdateDepositStatus PATCH /admin/deposits/:id/status
func (h *Handler) UpdateDepositStatus(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req StatusRequest
	if !bind(c, &req) {
		return
	}
	deposit, err := h.depositService.SetStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, deposit)
}
