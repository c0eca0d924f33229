package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"linkmart/internal/auth"
	"linkmart/internal/config"
	"linkmart/internal/infrastructure/boostpanel"
	"linkmart/internal/infrastructure/paystack"
	"linkmart/internal/model"

	"gorm.io/gorm"
)

const testPaystackSecret = "sk_test_secret"

func testConfig() *config.Config {
	return &config.Config{
		Kafka: config.KafkaConfig{
			Topic: config.KafkaTopicConfig{LedgerEvents: "linkmart.ledger", AdminNotify: "linkmart.admin"},
		},
		Business: config.BusinessConfig{
			MaxRetryCount:          5,
			ServiceCostPerPlatform: 10,
			AutomaticBoostPlatform: "tiktok",
			DepositCurrency:        "NGN",
			StaleDepositMinutes:    30,
		},
		JWT: config.JWTConfig{Secret: "jwt-test-secret", TTL: time.Hour, Issuer: "linkmart"},
	}
}

func principal(u *model.User) auth.Principal {
	return auth.Principal{UserID: u.ID, Role: u.Role}
}

// fakeGateway stands in for Paystack. Verify answers from verifications.
type fakeGateway struct {
	mu            sync.Mutex
	initErr       error
	verifyErr     error
	verifications map[string]*paystack.Verification
	initialized   []paystack.InitializeRequest
	verifyCalls   int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{verifications: make(map[string]*paystack.Verification)}
}

func (g *fakeGateway) Initialize(_ context.Context, req paystack.InitializeRequest) (*paystack.InitializeResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.initErr != nil {
		return nil, g.initErr
	}
	g.initialized = append(g.initialized, req)
	return &paystack.InitializeResult{
		AuthorizationURL: "https://checkout.paystack.test/" + req.Reference,
		AccessCode:       "ac_" + req.Reference,
		Reference:        req.Reference,
	}, nil
}

func (g *fakeGateway) Verify(_ context.Context, reference string) (*paystack.Verification, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.verifyCalls++
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	v, ok := g.verifications[reference]
	if !ok {
		return &paystack.Verification{Reference: reference, Status: "ongoing"}, nil
	}
	cp := *v
	return &cp, nil
}

func (g *fakeGateway) VerifySignature(body []byte, signature string) bool {
	return signature != "" && paystack.Sign(testPaystackSecret, body) == signature
}

func (g *fakeGateway) succeed(reference string, amountMinor int64, email string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.verifications[reference] = &paystack.Verification{
		Reference:     reference,
		Status:        paystack.StatusSuccess,
		AmountMinor:   amountMinor,
		Currency:      "NGN",
		CustomerEmail: email,
	}
}

// fakeProvider stands in for the boost panel.
type fakeProvider struct {
	mu       sync.Mutex
	orderErr error
	nextID   string
	statuses map[string]string
	orders   int
}

func (p *fakeProvider) Services(context.Context) ([]boostpanel.ServiceInfo, error) {
	return []boostpanel.ServiceInfo{{ServiceID: "101", Name: "TikTok Likes", Min: 10, Max: 10000}}, nil
}

func (p *fakeProvider) AddOrder(_ context.Context, _, _ string, _ int64) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.orderErr != nil {
		return "", p.orderErr
	}
	p.orders++
	return p.nextID, nil
}

func (p *fakeProvider) OrderStatus(_ context.Context, orderID string) (*boostpanel.OrderStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	st, ok := p.statuses[orderID]
	if !ok {
		return nil, errors.New("unknown order")
	}
	return &boostpanel.OrderStatus{OrderID: orderID, Status: st}, nil
}

func countRows(t *testing.T, db *gorm.DB, m interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	if err := db.Model(m).Where(query, args...).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
