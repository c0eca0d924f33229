package handler

import (
	"linkmart/internal/service"
	"linkmart/pkg/response"

	"github.com/gin-gonic/gin"
)

// ============================================================
// Listings
// ============================================================

// PublicListings GET /listings?category=&page=&page_size=
func (h *Handler) PublicListings(c *gin.Context) {
	page, size := pageParams(c)
	items, total, err := h.listingService.ListPublic(c.Request.Context(), c.Query("category"), page, size)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, pageResult{Items: items, Total: total, Page: page, PageSize: size})
}

// CreateListing POST /listings
func (h *Handler) CreateListing(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	var req service.ListingRequest
	if !bind(c, &req) {
		return
	}
	listing, err := h.listingService.Create(c.Request.Context(), p, &req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Created(c, "listing submitted for review", listing)
}

// MyListings GET /listings/my
func (h *Handler) MyListings(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	listings, err := h.listingService.ListMine(c.Request.Context(), p)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, listings)
}

// UpdateListing PUT /listings/:id
func (h *Handler) UpdateListing(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req service.ListingRequest
	if !bind(c, &req) {
		return
	}
	listing, err := h.listingService.Update(c.Request.Context(), p, id, &req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, listing)
}

// DeleteListing DELETE /listings/:id
func (h *Handler) DeleteListing(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.listingService.Delete(c.Request.Context(), p, id); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, gin.H{"id": id})
}

// AllListings GET /listings/all?status=
func (h *Handler) AllListings(c *gin.Context) {
	listings, err := h.listingService.ListAll(c.Request.Context(), c.Query("status"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, listings)
}

// ApproveListing PUT /listings/:id/approve
func (h *Handler) ApproveListing(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	listing, err := h.listingService.Approve(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, listing)
}

// RejectListing PUT /listings/:id/reject
func (h *Handler) RejectListing(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	listing, err := h.listingService.Reject(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, listing)
}

// ============================================================
// Services
// ============================================================

// CreateService POST /services/create
func (h *Handler) CreateService(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	var req service.CreateServiceRequest
	if !bind(c, &req) {
		return
	}
	svc, err := h.serviceOrders.Create(c.Request.Context(), p, &req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Created(c, "service submitted for review", svc)
}

// MyServices GET /services
func (h *Handler) MyServices(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	services, err := h.serviceOrders.ListMine(c.Request.Context(), p)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, services)
}

// AllServices GET /admin/services?status=
func (h *Handler) AllServices(c *gin.Context) {
	services, err := h.serviceOrders.ListAll(c.Request.Context(), c.Query("status"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, services)
}

// UpdateServiceStatus PATCH /admin/services/:id/status
func (h *Handler) UpdateServiceStatus(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req StatusRequest
	if !bind(c, &req) {
		return
	}
	svc, err := h.serviceOrders.UpdateStatus(c.Request.Context(), id, req.Status, req.AdminNote)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, svc)
}

// DeleteService DELETE /admin/services/:id
func (h *Handler) DeleteService(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.serviceOrders.Delete(c.Request.Context(), id); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, gin.H{"id": id})
}

// ============================================================
// Products
// ============================================================

// CreateProduct POST /products
func (h *Handler) CreateProduct(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	var req service.CreateProductRequest
	if !bind(c, &req) {
		return
	}
	product, err := h.productService.Create(c.Request.Context(), p, &req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Created(c, "product created", product)
}

// MyProducts GET /products/my
func (h *Handler) MyProducts(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	products, err := h.productService.ListMine(c.Request.Context(), p)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, products)
}

// AllProducts GET /admin/products
func (h *Handler) AllProducts(c *gin.Context) {
	products, err := h.productService.ListAll(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, products)
}

// UpdateProductStatus PUT /admin/products/:id/status
func (h *Handler) UpdateProductStatus(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req StatusRequest
	if !bind(c, &req) {
		return
	}
	product, err := h.productService.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, product)
}
