package handler

import (
	"strconv"

	"linkmart/internal/auth"
	"linkmart/internal/config"
	"linkmart/internal/infrastructure/mailer"
	"linkmart/internal/service"
	"linkmart/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// Dependencies is everything the HTTP layer is built from. Redis may be nil.
type Dependencies struct {
	DB       *gorm.DB
	Redis    *redis.Client
	Config   *config.Config
	Tokens   *auth.TokenIssuer
	Hasher   *auth.PasswordHasher
	Gateway  service.PaymentGateway
	Provider service.BoostProvider
	Notifier mailer.Notifier
}

// Handler holds one instance of every service the routes call into.
type Handler struct {
	authService      *service.AuthService
	userService      *service.UserService
	listingService   *service.ListingService
	campaignService  *service.CampaignService
	boostService     *service.BoostService
	serviceOrders    *service.ServiceOrderService
	productService   *service.ProductService
	depositService   *service.DepositService
	adminService     *service.AdminService
	analyticsService *service.AnalyticsService
}

func NewHandler(deps Dependencies) *Handler {
	notifier := deps.Notifier
	if notifier == nil {
		notifier = mailer.Nop{}
	}
	return &Handler{
		authService:      service.NewAuthService(deps.DB, deps.Tokens, deps.Hasher),
		userService:      service.NewUserService(deps.DB),
		listingService:   service.NewListingService(deps.DB),
		campaignService:  service.NewCampaignService(deps.DB, deps.Config, notifier),
		boostService:     service.NewBoostService(deps.DB, deps.Redis, deps.Config, deps.Provider),
		serviceOrders:    service.NewServiceOrderService(deps.DB, deps.Config),
		productService:   service.NewProductService(deps.DB),
		depositService:   service.NewDepositService(deps.DB, deps.Redis, deps.Config, deps.Gateway),
		adminService:     service.NewAdminService(deps.DB),
		analyticsService: service.NewAnalyticsService(deps.DB),
	}
}

// StatusRequest is the body of every admin status change.
type StatusRequest struct {
	Status    string `json:"status" binding:"required"`
	AdminNote string `json:"admin_note"`
}

type pageResult struct {
	Items    interface{} `json:"items"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

func bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return false
	}
	return true
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.ParamError(c, "invalid id")
		return 0, false
	}
	return id, true
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	return page, size
}
