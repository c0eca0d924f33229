package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"linkmart/internal/auth"
	"linkmart/internal/config"
	"linkmart/internal/infrastructure/boostpanel"
	"linkmart/internal/infrastructure/mailer"
	"linkmart/internal/infrastructure/paystack"
	"linkmart/internal/model"
	"linkmart/internal/testutil"
	"linkmart/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const paystackSecret = "sk_test_handler"

type testServer struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
	tokens *auth.TokenIssuer
}

// newTestServer builds the full router over SQLite with a Paystack stub that
// reports every charge as successful for its initialized amount.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	amounts := map[string]int64{}
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/transaction/initialize":
			var body struct {
				Reference string `json:"reference"`
				Amount    int64  `json:"amount"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			amounts[body.Reference] = body.Amount
			fmt.Fprintf(w, `{"status":true,"message":"ok","data":{"authorization_url":"https://pay.test/%s","access_code":"x","reference":%q}}`,
				body.Reference, body.Reference)
		case strings.HasPrefix(r.URL.Path, "/transaction/verify/"):
			ref := strings.TrimPrefix(r.URL.Path, "/transaction/verify/")
			fmt.Fprintf(w, `{"status":true,"message":"ok","data":{"reference":%q,"status":"success","amount":%d,"currency":"NGN"}}`,
				ref, amounts[ref])
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(gateway.Close)

	cfg := &config.Config{
		Server:    config.ServerConfig{Mode: gin.TestMode},
		Kafka:     config.KafkaConfig{Topic: config.KafkaTopicConfig{LedgerEvents: "ledger", AdminNotify: "admin"}},
		Business:  config.BusinessConfig{ServiceCostPerPlatform: 10, AutomaticBoostPlatform: "tiktok", DepositCurrency: "NGN"},
		JWT:       config.JWTConfig{Secret: "handler-secret", TTL: time.Hour, Issuer: "linkmart"},
		Paystack:  config.PaystackConfig{BaseURL: gateway.URL, SecretKey: paystackSecret, Timeout: 5 * time.Second},
		RateLimit: config.RateLimitConfig{AuthRPS: 1000, AuthBurst: 1000},
	}
	tokens, err := auth.NewTokenIssuer(&cfg.JWT)
	require.NoError(t, err)

	db := testutil.NewDB(t)
	router := SetupRouter(Dependencies{
		DB:       db,
		Config:   cfg,
		Tokens:   tokens,
		Hasher:   auth.NewPasswordHasher(bcrypt.MinCost),
		Gateway:  paystack.NewClient(&cfg.Paystack),
		Provider: boostpanel.NewClient(&cfg.BoostPanel),
		Notifier: mailer.Nop{},
	})
	return &testServer{t: t, db: db, router: router, tokens: tokens}
}

func (s *testServer) tokenFor(u *model.User) string {
	token, _, err := s.tokens.Issue(auth.Principal{UserID: u.ID, Role: u.Role})
	require.NoError(s.t, err)
	return token
}

func (s *testServer) do(method, path, token string, body interface{}, headers ...string) (*httptest.ResponseRecorder, response.Response) {
	var raw []byte
	switch b := body.(type) {
	case nil:
	case []byte:
		raw = b
	default:
		var err error
		raw, err = json.Marshal(b)
		require.NoError(s.t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp response.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)
	w, _ := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	w, _ = s.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "linkmart_http_requests_total")
}

func TestAuthGate(t *testing.T) {
	s := newTestServer(t)
	user := testutil.SeedUser(t, s.db, model.RoleUser, 0, 0)
	admin := testutil.SeedUser(t, s.db, model.RoleAdmin, 0, 0)

	w, resp := s.do(http.MethodGet, "/api/v1/users/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotEmpty(t, resp.Message)

	w, _ = s.do(http.MethodGet, "/api/v1/users/profile", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(http.MethodGet, "/api/v1/users/profile", s.tokenFor(user), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(http.MethodGet, "/api/v1/admin/stats", s.tokenFor(user), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(http.MethodGet, "/api/v1/admin/stats", s.tokenFor(admin), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// boosts are placed by users only
	w, _ = s.do(http.MethodPost, "/api/v1/boosts", s.tokenFor(admin), map[string]interface{}{
		"platform": "x", "type": "likes", "quantity": 10, "amount": 5, "link": "https://x.com/p", "service_id": "1",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRegisterLoginOverHTTP(t *testing.T) {
	s := newTestServer(t)

	w, resp := s.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Grace", "email": "grace@example.com", "password": "hopper1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, response.CodeSuccess, resp.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Grace", "email": "grace@example.com", "password": "hopper1",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "grace@example.com", "password": "nope",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var session struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	w, _ = s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "grace@example.com", "password": "hopper1",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))

	w, _ = s.do(http.MethodGet, "/api/v1/auth/verify", session.Data.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebhookSignature(t *testing.T) {
	s := newTestServer(t)
	user := testutil.SeedUser(t, s.db, model.RoleUser, 0, 0)
	body := []byte(fmt.Sprintf(
		`{"event":"charge.success","data":{"reference":"PSK-hook-1","status":"success","amount":100000,"currency":"NGN","customer":{"email":%q}}}`,
		user.Email))

	w, _ := s.do(http.MethodPost, "/api/v1/paystack/webhook", "", body, paystack.SignatureHeader, "00ff")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w, _ = s.do(http.MethodPost, "/api/v1/paystack/webhook", "", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var deposits int64
	require.NoError(t, s.db.Model(&model.Deposit{}).Count(&deposits).Error)
	assert.Zero(t, deposits)

	sig := paystack.Sign(paystackSecret, body)
	for i := 0; i < 2; i++ {
		w, _ = s.do(http.MethodPost, "/api/v1/paystack/webhook", "", body, paystack.SignatureHeader, sig)
		assert.Equal(t, http.StatusOK, w.Code)
	}
	_, wallet := testutil.Balances(t, s.db, user.ID)
	assert.Equal(t, int64(1000), wallet)
}

func TestDepositRoundTrip(t *testing.T) {
	s := newTestServer(t)
	user := testutil.SeedUser(t, s.db, model.RoleUser, 0, 0)
	token := s.tokenFor(user)

	var created struct {
		Data struct {
			Link      string `json:"link"`
			Reference string `json:"reference"`
		} `json:"data"`
	}
	w, _ := s.do(http.MethodPost, "/api/v1/paystack/create", token, map[string]int64{"amount": 1000})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Contains(t, created.Data.Link, created.Data.Reference)

	// the browser coming back from the payment page carries no token
	w, _ = s.do(http.MethodGet, "/api/v1/paystack/verify?reference="+created.Data.Reference, "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w, _ = s.do(http.MethodGet, "/api/v1/paystack/verify?reference="+created.Data.Reference, "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	balance, wallet := testutil.Balances(t, s.db, user.ID)
	assert.Equal(t, int64(0), balance)
	assert.Equal(t, int64(1000), wallet)

	// legacy route funds the spending balance
	w, _ = s.do(http.MethodPost, "/api/v1/deposits/create", token, map[string]int64{"amount": 40})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	w, _ = s.do(http.MethodGet, "/api/v1/deposits/verify?reference="+created.Data.Reference, token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	balance, wallet = testutil.Balances(t, s.db, user.ID)
	assert.Equal(t, int64(40), balance)
	assert.Equal(t, int64(1000), wallet)

	w, _ = s.do(http.MethodGet, "/api/v1/paystack/history", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCampaignReviewOverHTTP(t *testing.T) {
	s := newTestServer(t)
	user := testutil.SeedUser(t, s.db, model.RoleUser, 0, 500)
	admin := testutil.SeedUser(t, s.db, model.RoleAdmin, 0, 0)

	var created struct {
		Data model.Campaign `json:"data"`
	}
	w, _ := s.do(http.MethodPost, "/api/v1/campaigns", s.tokenFor(user), map[string]interface{}{
		"platform": "instagram", "goal": "awareness", "budget_usd": 200,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	path := fmt.Sprintf("/api/v1/admin/campaigns/%d/status", created.Data.ID)
	w, _ = s.do(http.MethodPatch, path, s.tokenFor(user), map[string]string{"status": "declined"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	for i := 0; i < 2; i++ {
		w, _ = s.do(http.MethodPatch, path, s.tokenFor(admin), map[string]string{"status": "declined"})
		assert.Equal(t, http.StatusOK, w.Code)
	}
	_, wallet := testutil.Balances(t, s.db, user.ID)
	assert.Equal(t, int64(500), wallet)

	w, _ = s.do(http.MethodPatch, path, s.tokenFor(admin), map[string]string{"status": "sideways"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInsufficientFundsResponse(t *testing.T) {
	s := newTestServer(t)
	user := testutil.SeedUser(t, s.db, model.RoleUser, 5, 0)

	w, resp := s.do(http.MethodPost, "/api/v1/services/create", s.tokenFor(user), map[string]interface{}{
		"title": "Photography", "platforms": []string{"instagram"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, response.CodeBalanceNotEnough, resp.Code)

	balance, _ := testutil.Balances(t, s.db, user.ID)
	assert.Equal(t, int64(5), balance)
}

func TestProductModeration(t *testing.T) {
	s := newTestServer(t)
	user := testutil.SeedUser(t, s.db, model.RoleUser, 0, 0)
	admin := testutil.SeedUser(t, s.db, model.RoleAdmin, 0, 0)

	var created struct {
		Data model.Product `json:"data"`
	}
	w, _ := s.do(http.MethodPost, "/api/v1/products", s.tokenFor(user), map[string]interface{}{
		"title": "Sneakers", "price": 45, "platforms": []string{"instagram"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "pending", created.Data.Status)

	w, _ = s.do(http.MethodPost, "/api/v1/products", s.tokenFor(user), map[string]interface{}{"title": "Free"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	path := fmt.Sprintf("/api/v1/admin/products/%d/status", created.Data.ID)
	w, _ = s.do(http.MethodPut, path, s.tokenFor(admin), map[string]string{"status": "Approved"})
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(http.MethodPut, path, s.tokenFor(admin), map[string]string{"status": "sold"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var mine struct {
		Data []model.Product `json:"data"`
	}
	w, _ = s.do(http.MethodGet, "/api/v1/products/my", s.tokenFor(user), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &mine))
	require.Len(t, mine.Data, 1)
	assert.Equal(t, "approved", mine.Data[0].Status)
}
