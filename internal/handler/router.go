package handler

import (
	"net/http"

	"linkmart/internal/auth"
	"linkmart/internal/metrics"
	"linkmart/internal/model"

	"github.com/gin-gonic/gin"
)

// SetupRouter wires middleware and every route.
func SetupRouter(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware())
	r.Use(LoggerMiddleware())
	r.Use(MetricsMiddleware())
	r.Use(CORSMiddleware(cfg.Server.CORSOrigins))

	h := NewHandler(deps)
	var authz auth.Authorizer
	authed := AuthMiddleware(h.authService)
	optional := OptionalAuthMiddleware(h.authService)
	adminOnly := RequireRole(authz, model.RoleAdmin)
	userOnly := RequireRole(authz, model.RoleUser)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth", RateLimitMiddleware(cfg.RateLimit.AuthRPS, cfg.RateLimit.AuthBurst))
		{
			authGroup.POST("/register", h.Register)
			authGroup.POST("/login", h.Login)
			authGroup.GET("/verify", authed, h.VerifyToken)
		}

		users := api.Group("/users", authed)
		{
			users.GET("/profile", h.Profile)
			users.GET("/wallet", h.Wallet)
			users.GET("/dashboard", h.Dashboard)
			users.GET("/transactions", h.Transactions)
		}

		api.GET("/analytics", authed, h.Analytics)

		listings := api.Group("/listings")
		{
			listings.GET("", h.PublicListings)
			listings.POST("", authed, h.CreateListing)
			listings.GET("/my", authed, h.MyListings)
			listings.PUT("/:id", authed, h.UpdateListing)
			listings.DELETE("/:id", authed, h.DeleteListing)
			listings.GET("/all", authed, adminOnly, h.AllListings)
			listings.PUT("/:id/approve", authed, adminOnly, h.ApproveListing)
			listings.PUT("/:id/reject", authed, adminOnly, h.RejectListing)
		}

		campaigns := api.Group("/campaigns", authed)
		{
			campaigns.POST("", h.CreateCampaign)
			campaigns.GET("", h.MyCampaigns)
			campaigns.DELETE("/:id", h.DeleteCampaign)
			campaigns.GET("/admin", adminOnly, h.AllCampaigns)
			campaigns.PATCH("/admin/:id/status", adminOnly, h.UpdateCampaignStatus)
			campaigns.DELETE("/admin/:id", adminOnly, h.DeleteCampaign)
		}

		boosts := api.Group("/boosts", authed)
		{
			boosts.GET("/services", h.BoostServices)
			boosts.POST("", userOnly, h.CreateBoost)
			boosts.GET("/my", h.MyBoosts)
			boosts.GET("/admin", adminOnly, h.AllBoosts)
			boosts.PATCH("/admin/:id/status", adminOnly, h.UpdateBoostStatus)
			boosts.DELETE("/admin/:id", adminOnly, h.DeleteBoost)
		}

		services := api.Group("/services", authed)
		{
			services.POST("/create", h.CreateService)
			services.GET("", h.MyServices)
		}

		products := api.Group("/products", authed)
		{
			products.POST("", h.CreateProduct)
			products.GET("/my", h.MyProducts)
		}

		pay := api.Group("/paystack")
		{
			pay.POST("/create", authed, h.CreateWalletDeposit)
			pay.GET("/verify", optional, h.VerifyDeposit)
			pay.POST("/webhook", h.PaystackWebhook)
			pay.GET("/history", authed, h.DepositHistory)
			pay.GET("/history/:id", authed, h.GetDeposit)
		}

		deposits := api.Group("/deposits")
		{
			deposits.POST("/create", authed, h.CreateBalanceDeposit)
			deposits.GET("/verify", optional, h.VerifyDeposit)
		}

		admin := api.Group("/admin", authed, adminOnly)
		{
			admin.GET("/users", h.ListUsers)
			admin.PATCH("/users/:id/status", h.UpdateUserStatus)
			admin.POST("/users/:id/adjust", h.AdjustBalance)
			admin.GET("/stats", h.Stats)

			admin.GET("/campaigns/pending", h.PendingCampaigns)
			admin.PATCH("/campaigns/:id/status", h.UpdateCampaignStatus)

			admin.GET("/boosts", h.AllBoosts)
			admin.PATCH("/boosts/:id/status", h.UpdateBoostStatus)

			admin.GET("/services", h.AllServices)
			admin.PATCH("/services/:id/status", h.UpdateServiceStatus)
			admin.DELETE("/services/:id", h.DeleteService)

			admin.GET("/products", h.AllProducts)
			admin.PUT("/products/:id/status", h.UpdateProductStatus)

			admin.GET("/deposits", h.AllDeposits)
			admin.PATCH("/deposits/:id/status", h.UpdateDepositStatus)

			admin.POST("/outbox/retry", h.RetryOutbox)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	return r
}
