package service

import (
	"context"
	"testing"

	"linkmart/internal/infrastructure/mailer"
	"linkmart/internal/model"
	"linkmart/internal/testutil"
	"linkmart/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardAndAnalytics(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	user := testutil.SeedUser(t, db, model.RoleUser, 100, 500)
	p := principal(user)

	campaigns := NewCampaignService(db, testConfig(), mailer.Nop{})
	c, err := campaigns.Create(ctx, p, campaignRequest(200))
	require.NoError(t, err)
	_, err = campaigns.UpdateStatus(ctx, c.ID, "approved", "")
	require.NoError(t, err)

	boosts := NewBoostService(db, nil, testConfig(), &fakeProvider{})
	_, err = boosts.Create(ctx, p, boostRequest("facebook", 30))
	require.NoError(t, err)

	listings := NewListingService(db)
	l, err := listings.Create(ctx, p, &ListingRequest{Title: "Shoes", Category: "Product", Price: 40})
	require.NoError(t, err)
	require.NoError(t, db.Model(&model.Listing{}).Where("id = ?", l.ID).
		Updates(map[string]interface{}{"clicks": 5, "reach": 50}).Error)

	users := NewUserService(db)
	dash, err := users.Dashboard(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, int64(70), dash.Wallet.Balance)
	assert.Equal(t, int64(300), dash.Wallet.WalletBalance)
	assert.Equal(t, int64(1), dash.Listings)
	assert.Equal(t, int64(1), dash.Campaigns)
	assert.Equal(t, int64(1), dash.RunningCampaigns)
	assert.Equal(t, int64(1), dash.Boosts)
	assert.Len(t, dash.RecentTransactions, 2)

	page, err := users.Transactions(ctx, p, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Len(t, page.Items, 1)

	wallet, err := users.Wallet(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, int64(70), wallet.Balance)

	a, err := NewAnalyticsService(db).ForUser(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.Campaigns[model.CampaignStatusRunning])
	assert.Equal(t, int64(1), a.Boosts[model.BoostStatusPending])
	assert.Equal(t, int64(30), a.SpentBalance)
	assert.Equal(t, int64(200), a.SpentWallet)
	assert.Equal(t, int64(5), a.Clicks)
	assert.InDelta(t, 10.0, a.ConversionRate, 0.001)

	_, err = users.Profile(ctx, principal(&model.User{ID: 9999}))
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestListingModeration(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewListingService(db)
	ctx := context.Background()
	owner := testutil.SeedUser(t, db, model.RoleUser, 0, 0)
	other := testutil.SeedUser(t, db, model.RoleUser, 0, 0)
	admin := testutil.SeedUser(t, db, model.RoleAdmin, 0, 0)

	l, err := svc.Create(ctx, principal(owner), &ListingRequest{Title: "Haircut", Category: "service", Price: 15})
	require.NoError(t, err)
	assert.Equal(t, model.ListingStatusPending, l.Status)

	public, total, err := svc.ListPublic(ctx, "", 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, public)

	_, err = svc.Approve(ctx, l.ID)
	require.NoError(t, err)
	_, total, err = svc.ListPublic(ctx, "service", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	// approved is terminal
	_, err = svc.Reject(ctx, l.ID)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = svc.Update(ctx, principal(other), l.ID, &ListingRequest{Title: "Mine now", Category: "service"})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	updated, err := svc.Update(ctx, principal(admin), l.ID, &ListingRequest{Title: "Premium haircut", Category: "service", Price: 25})
	require.NoError(t, err)
	assert.Equal(t, model.ListingStatusApproved, updated.Status)

	_, err = svc.Create(ctx, principal(owner), &ListingRequest{Title: "x", Category: "weapons"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	require.NoError(t, svc.Delete(ctx, principal(owner), l.ID))
	_, err = svc.Approve(ctx, l.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
