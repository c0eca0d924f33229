package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"linkmart/internal/infrastructure/paystack"
	"linkmart/internal/model"
	"linkmart/internal/repository"
	"linkmart/internal/testutil"
	"linkmart/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func webhookBody(event, reference, status string, amountMinor int64, email string) []byte {
	return []byte(fmt.Sprintf(
		`{"event":%q,"data":{"reference":%q,"status":%q,"amount":%d,"currency":"NGN","customer":{"email":%q}}}`,
		event, reference, status, amountMinor, email))
}

func newDepositService(t *testing.T) (*DepositService, *fakeGateway) {
	t.Helper()
	db := testutil.NewDB(t)
	gw := newFakeGateway()
	return NewDepositService(db, nil, testConfig(), gw), gw
}

func TestInitiateSendsMinorUnits(t *testing.T) {
	svc, gw := newDepositService(t)
	user := testutil.SeedUser(t, svc.db, model.RoleUser, 0, 0)

	res, err := svc.Initiate(context.Background(), principal(user), 500, model.WalletCampaign)
	require.NoError(t, err)
	assert.Contains(t, res.Link, res.Reference)
	assert.Equal(t, model.DepositStatusPending, res.Deposit.Status)

	require.Len(t, gw.initialized, 1)
	assert.Equal(t, int64(50000), gw.initialized[0].AmountMinor)
	assert.Equal(t, user.Email, gw.initialized[0].Email)
	assert.Equal(t, "NGN", gw.initialized[0].Currency)

	_, err = svc.Initiate(context.Background(), principal(user), 0, model.WalletCampaign)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestInitiateFailureMarksDepositFailed(t *testing.T) {
	svc, gw := newDepositService(t)
	gw.initErr = errors.New("gateway down")
	user := testutil.SeedUser(t, svc.db, model.RoleUser, 0, 0)

	_, err := svc.Initiate(context.Background(), principal(user), 500, model.WalletCampaign)
	assert.True(t, apperr.Is(err, apperr.KindUpstream))

	deposits, total, err := svc.History(context.Background(), principal(user), 1, 10)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	assert.Equal(t, model.DepositStatusFailed, deposits[0].Status)
}

func TestVerifyThenWebhookCreditsOnce(t *testing.T) {
	svc, gw := newDepositService(t)
	ctx := context.Background()
	user := testutil.SeedUser(t, svc.db, model.RoleUser, 0, 0)

	res, err := svc.Initiate(ctx, principal(user), 500, model.WalletCampaign)
	require.NoError(t, err)
	gw.succeed(res.Reference, 50000, user.Email)

	deposit, err := svc.Verify(ctx, res.Reference, nil)
	require.NoError(t, err)
	assert.Equal(t, model.DepositStatusSuccessful, deposit.Status)
	assert.NotNil(t, deposit.CreditedAt)

	_, wallet := testutil.Balances(t, svc.db, user.ID)
	assert.Equal(t, int64(500), wallet)

	body := webhookBody(paystack.EventChargeSuccess, res.Reference, "success", 50000, user.Email)
	for i := 0; i < 2; i++ {
		result, err := svc.HandleWebhook(ctx, body, paystack.Sign(testPaystackSecret, body))
		require.NoError(t, err)
		assert.Equal(t, "ok", result)
	}

	// a second redirect does not reach the gateway again
	calls := gw.verifyCalls
	_, err = svc.Verify(ctx, res.Reference, nil)
	require.NoError(t, err)
	assert.Equal(t, calls, gw.verifyCalls)

	_, wallet = testutil.Balances(t, svc.db, user.ID)
	assert.Equal(t, int64(500), wallet)
	assert.Equal(t, int64(1), countRows(t, svc.db, &model.Transaction{},
		"entity_type = ? AND entity_id = ? AND type = ?", model.EntityDeposit, deposit.ID, model.TransactionTypeDeposit))
	assert.Equal(t, int64(1), countRows(t, svc.db, &model.OutboxMessage{}, "event_type = ?", model.EventDepositCredited))
}

func TestWebhookThenVerifyCreditsOnce(t *testing.T) {
	svc, gw := newDepositService(t)
	ctx := context.Background()
	user := testutil.SeedUser(t, svc.db, model.RoleUser, 0, 0)

	res, err := svc.Initiate(ctx, principal(user), 200, model.WalletSpending)
	require.NoError(t, err)
	gw.succeed(res.Reference, 20000, user.Email)

	body := webhookBody(paystack.EventChargeSuccess, res.Reference, "success", 20000, user.Email)
	_, err = svc.HandleWebhook(ctx, body, paystack.Sign(testPaystackSecret, body))
	require.NoError(t, err)

	deposit, err := svc.Verify(ctx, res.Reference, nil)
	require.NoError(t, err)
	assert.Equal(t, model.DepositStatusSuccessful, deposit.Status)

	balance, wallet := testutil.Balances(t, svc.db, user.ID)
	assert.Equal(t, int64(200), balance)
	assert.Equal(t, int64(0), wallet)
}

func TestWebhookBadSignatureChangesNothing(t *testing.T) {
	svc, _ := newDepositService(t)
	user := testutil.SeedUser(t, svc.db, model.RoleUser, 0, 0)

	body := webhookBody(paystack.EventChargeSuccess, "PSK-forged", "success", 1000000, user.Email)
	_, err := svc.HandleWebhook(context.Background(), body, "deadbeef")
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	_, err = svc.HandleWebhook(context.Background(), body, "")
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	_, wallet := testutil.Balances(t, svc.db, user.ID)
	assert.Equal(t, int64(0), wallet)
	assert.Equal(t, int64(0), countRows(t, svc.db, &model.Deposit{}, "1 = 1"))
}

func TestWebhookIgnoresOtherEvents(t *testing.T) {
	svc, _ := newDepositService(t)
	body := webhookBody("transfer.success", "PSK-1", "success", 1000, "")
	result, err := svc.HandleWebhook(context.Background(), body, paystack.Sign(testPaystackSecret, body))
	require.NoError(t, err)
	assert.Equal(t, "ignored", result)

	bad := []byte("{not json")
	_, err = svc.HandleWebhook(context.Background(), bad, paystack.Sign(testPaystackSecret, bad))
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestWebhookForUnknownReferenceAttributesByEmail(t *testing.T) {
	svc, _ := newDepositService(t)
	ctx := context.Background()
	user := testutil.SeedUser(t, svc.db, model.RoleUser, 0, 0)

	body := webhookBody(paystack.EventChargeSuccess, "PSK-external-1", "success", 75000, user.Email)
	_, err := svc.HandleWebhook(ctx, body, paystack.Sign(testPaystackSecret, body))
	require.NoError(t, err)

	_, wallet := testutil.Balances(t, svc.db, user.ID)
	assert.Equal(t, int64(750), wallet)

	orphan := webhookBody(paystack.EventChargeSuccess, "PSK-external-2", "success", 1000, "nobody@example.com")
	_, err = svc.HandleWebhook(ctx, orphan, paystack.Sign(testPaystackSecret, orphan))
	require.NoError(t, err)

	deposit, err := svc.depositRepo.GetByReference(ctx, nil, "PSK-external-2")
	require.NoError(t, err)
	assert.Nil(t, deposit.UserID)
	assert.Equal(t, model.DepositStatusPending, deposit.Status)
	assert.Equal(t, "success", deposit.GatewayStatus)
}

func TestAnonymousVerifyThenOwnerVerifyCredits(t *testing.T) {
	svc, gw := newDepositService(t)
	ctx := context.Background()
	owner := testutil.SeedUser(t, svc.db, model.RoleUser, 0, 0)
	gw.succeed("PSK-ext-1", 100000, "")

	deposit, err := svc.Verify(ctx, "PSK-ext-1", nil)
	require.NoError(t, err)
	assert.Nil(t, deposit.UserID)
	assert.Equal(t, model.DepositStatusPending, deposit.Status)

	p := principal(owner)
	deposit, err = svc.Verify(ctx, "PSK-ext-1", &p)
	require.NoError(t, err)
	require.NotNil(t, deposit.UserID)
	assert.Equal(t, owner.ID, *deposit.UserID)
	assert.Equal(t, model.DepositStatusSuccessful, deposit.Status)

	_, err = svc.Verify(ctx, "PSK-ext-1", &p)
	require.NoError(t, err)
	_, wallet := testutil.Balances(t, svc.db, owner.ID)
	assert.Equal(t, int64(1000), wallet)
	assert.Equal(t, int64(1), countRows(t, svc.db, &model.Transaction{}, "reference = ?", "PSK-ext-1"))
}

func TestVerifyGatewayErrorLeavesDepositPending(t *testing.T) {
	svc, gw := newDepositService(t)
	ctx := context.Background()
	user := testutil.SeedUser(t, svc.db, model.RoleUser, 0, 0)

	res, err := svc.Initiate(ctx, principal(user), 100, model.WalletCampaign)
	require.NoError(t, err)

	gw.verifyErr = errors.New("timeout")
	_, err = svc.Verify(ctx, res.Reference, nil)
	assert.True(t, apperr.Is(err, apperr.KindUpstream))

	deposit, err := svc.depositRepo.GetByReference(ctx, nil, res.Reference)
	require.NoError(t, err)
	assert.Equal(t, model.DepositStatusPending, deposit.Status)
}

func TestVerifyFailedChargeMarksFailed(t *testing.T) {
	svc, gw := newDepositService(t)
	ctx := context.Background()
	user := testutil.SeedUser(t, svc.db, model.RoleUser, 0, 0)

	res, err := svc.Initiate(ctx, principal(user), 100, model.WalletCampaign)
	require.NoError(t, err)
	gw.verifications[res.Reference] = &paystack.Verification{Reference: res.Reference, Status: "failed"}

	deposit, err := svc.Verify(ctx, res.Reference, nil)
	require.NoError(t, err)
	assert.Equal(t, model.DepositStatusFailed, deposit.Status)
	_, wallet := testutil.Balances(t, svc.db, user.ID)
	assert.Equal(t, int64(0), wallet)
}

func TestReconcileStaleSettlesOldDeposits(t *testing.T) {
	svc, gw := newDepositService(t)
	ctx := context.Background()
	user := testutil.SeedUser(t, svc.db, model.RoleUser, 0, 0)

	old, err := svc.Initiate(ctx, principal(user), 300, model.WalletCampaign)
	require.NoError(t, err)
	fresh, err := svc.Initiate(ctx, principal(user), 400, model.WalletCampaign)
	require.NoError(t, err)
	require.NoError(t, svc.db.Model(&model.Deposit{}).Where("reference = ?", old.Reference).
		UpdateColumn("created_at", time.Now().Add(-2*time.Hour)).Error)

	gw.succeed(old.Reference, 30000, user.Email)
	gw.succeed(fresh.Reference, 40000, user.Email)

	settled, err := svc.ReconcileStale(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, settled)

	_, wallet := testutil.Balances(t, svc.db, user.ID)
	assert.Equal(t, int64(300), wallet)
}

func TestDepositGetIsOwnerOrAdmin(t *testing.T) {
	svc, _ := newDepositService(t)
	ctx := context.Background()
	owner := testutil.SeedUser(t, svc.db, model.RoleUser, 0, 0)
	other := testutil.SeedUser(t, svc.db, model.RoleUser, 0, 0)
	admin := testutil.SeedUser(t, svc.db, model.RoleAdmin, 0, 0)

	res, err := svc.Initiate(ctx, principal(owner), 100, model.WalletCampaign)
	require.NoError(t, err)

	_, err = svc.Get(ctx, principal(owner), res.Deposit.ID)
	assert.NoError(t, err)
	_, err = svc.Get(ctx, principal(admin), res.Deposit.ID)
	assert.NoError(t, err)
	_, err = svc.Get(ctx, principal(other), res.Deposit.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestAdminSetStatusCreditsOnce(t *testing.T) {
	svc, _ := newDepositService(t)
	ctx := context.Background()
	user := testutil.SeedUser(t, svc.db, model.RoleUser, 0, 0)

	res, err := svc.Initiate(ctx, principal(user), 250, model.WalletCampaign)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		deposit, err := svc.SetStatus(ctx, res.Deposit.ID, "successful")
		require.NoError(t, err)
		assert.Equal(t, model.DepositStatusSuccessful, deposit.Status)
	}
	_, wallet := testutil.Balances(t, svc.db, user.ID)
	assert.Equal(t, int64(250), wallet)

	err = svc.depositRepo.MarkFailed(ctx, nil, res.Reference, "admin")
	assert.ErrorIs(t, err, repository.ErrStatusConflict)

	_, err = svc.SetStatus(ctx, res.Deposit.ID, "bogus")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}
