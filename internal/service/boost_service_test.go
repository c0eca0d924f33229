package service

import (
	"context"
	"errors"
	"testing"

	"linkmart/internal/model"
	"linkmart/internal/testutil"
	"linkmart/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boostRequest(platform string, amount int64) *CreateBoostRequest {
	return &CreateBoostRequest{
		Platform:  platform,
		Type:      "likes",
		Quantity:  100,
		Amount:    amount,
		Link:      "https://example.com/post/1",
		ServiceID: "101",
	}
}

func TestManualBoostRejectRefundsOnce(t *testing.T) {
	db := testutil.NewDB(t)
	provider := &fakeProvider{}
	svc := NewBoostService(db, nil, testConfig(), provider)
	ctx := context.Background()
	user := testutil.SeedUser(t, db, model.RoleUser, 100, 0)

	res, err := svc.Create(ctx, principal(user), boostRequest("Instagram", 30))
	require.NoError(t, err)
	assert.Equal(t, int64(70), res.NewBalance)
	assert.True(t, res.Boost.IsManual)
	assert.Equal(t, model.BoostStatusPending, res.Boost.Status)
	assert.Equal(t, 0, provider.orders)

	for i := 0; i < 2; i++ {
		boost, err := svc.UpdateStatus(ctx, res.Boost.ID, "failed")
		require.NoError(t, err)
		assert.Equal(t, model.BoostStatusFailed, boost.Status)
		assert.True(t, boost.RefundIssued)
	}

	balance, _ := testutil.Balances(t, db, user.ID)
	assert.Equal(t, int64(100), balance)
	assert.Equal(t, int64(1), countRows(t, db, &model.Transaction{},
		"entity_type = ? AND entity_id = ? AND type = ?", model.EntityBoost, res.Boost.ID, model.TransactionTypeRefund))
}

func TestBoostInsufficientBalanceLeavesNothingBehind(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewBoostService(db, nil, testConfig(), &fakeProvider{})
	user := testutil.SeedUser(t, db, model.RoleUser, 10, 500)

	_, err := svc.Create(context.Background(), principal(user), boostRequest("facebook", 30))
	assert.True(t, apperr.Is(err, apperr.KindInsufficientFunds))

	balance, wallet := testutil.Balances(t, db, user.ID)
	assert.Equal(t, int64(10), balance)
	assert.Equal(t, int64(500), wallet)
	assert.Equal(t, int64(0), countRows(t, db, &model.Boost{}, "user_id = ?", user.ID))
	assert.Equal(t, int64(0), countRows(t, db, &model.Transaction{}, "user_id = ?", user.ID))
}

func TestBoostValidation(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewBoostService(db, nil, testConfig(), &fakeProvider{})
	user := testutil.SeedUser(t, db, model.RoleUser, 100, 0)

	_, err := svc.Create(context.Background(), principal(user), boostRequest("myspace", 30))
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	req := boostRequest("x", 30)
	req.Type = "hugs"
	_, err = svc.Create(context.Background(), principal(user), req)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestAutomaticBoostDispatchAndSync(t *testing.T) {
	db := testutil.NewDB(t)
	provider := &fakeProvider{nextID: "9001", statuses: map[string]string{"9001": "Completed"}}
	svc := NewBoostService(db, nil, testConfig(), provider)
	ctx := context.Background()
	user := testutil.SeedUser(t, db, model.RoleUser, 100, 0)

	res, err := svc.Create(ctx, principal(user), boostRequest("tiktok", 40))
	require.NoError(t, err)
	assert.False(t, res.Boost.IsManual)
	assert.Equal(t, model.BoostStatusProcessing, res.Boost.Status)
	assert.Equal(t, "9001", res.Boost.APIOrderID)

	updated, err := svc.SyncDispatched(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, updated)

	boost, err := svc.boostRepo.GetByID(ctx, nil, res.Boost.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BoostStatusCompleted, boost.Status)
	assert.False(t, boost.IsManual)
	balance, _ := testutil.Balances(t, db, user.ID)
	assert.Equal(t, int64(60), balance)
}

func TestBoostManualFlagIsStored(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewBoostService(db, nil, testConfig(), &fakeProvider{nextID: "77"})
	ctx := context.Background()
	user := testutil.SeedUser(t, db, model.RoleUser, 100, 0)

	for platform, manual := range map[string]bool{"tiktok": false, "instagram": true} {
		res, err := svc.Create(ctx, principal(user), boostRequest(platform, 10))
		require.NoError(t, err)

		var stored model.Boost
		require.NoError(t, db.First(&stored, res.Boost.ID).Error)
		assert.Equal(t, manual, stored.IsManual, platform)
		assert.Equal(t, manual, res.Boost.IsManual, platform)
	}
}

func TestAutomaticBoostDispatchFailureKeepsDebit(t *testing.T) {
	db := testutil.NewDB(t)
	provider := &fakeProvider{orderErr: errors.New("panel unreachable")}
	svc := NewBoostService(db, nil, testConfig(), provider)
	ctx := context.Background()
	user := testutil.SeedUser(t, db, model.RoleUser, 100, 0)

	res, err := svc.Create(ctx, principal(user), boostRequest("tiktok", 30))
	assert.True(t, apperr.Is(err, apperr.KindUpstream))
	require.NotNil(t, res)
	assert.Equal(t, model.BoostStatusFailed, res.Boost.Status)
	assert.Equal(t, int64(70), res.NewBalance)

	balance, _ := testutil.Balances(t, db, user.ID)
	assert.Equal(t, int64(70), balance)

	// the admin rejection is what returns the money
	boost, err := svc.UpdateStatus(ctx, res.Boost.ID, "failed")
	require.NoError(t, err)
	assert.True(t, boost.RefundIssued)
	balance, _ = testutil.Balances(t, db, user.ID)
	assert.Equal(t, int64(100), balance)
}

func TestBoostUpdateStatus(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewBoostService(db, nil, testConfig(), &fakeProvider{})
	ctx := context.Background()
	user := testutil.SeedUser(t, db, model.RoleUser, 100, 0)

	res, err := svc.Create(ctx, principal(user), boostRequest("x", 20))
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, res.Boost.ID, "exploded")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	boost, err := svc.UpdateStatus(ctx, res.Boost.ID, "processing")
	require.NoError(t, err)
	assert.Equal(t, model.BoostStatusProcessing, boost.Status)

	boost, err = svc.UpdateStatus(ctx, res.Boost.ID, "completed")
	require.NoError(t, err)
	assert.Equal(t, model.BoostStatusCompleted, boost.Status)

	// completed boosts are not refundable
	_, err = svc.UpdateStatus(ctx, res.Boost.ID, "failed")
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	balance, _ := testutil.Balances(t, db, user.ID)
	assert.Equal(t, int64(80), balance)

	_, err = svc.UpdateStatus(ctx, 424242, "completed")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
