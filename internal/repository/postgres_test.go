package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/loyalty-platform/internal/model"
)

// newTestRepository подключается к БД из TEST_DATABASE_URI; без неё интеграционные тесты пропускаются.
func newTestRepository(t *testing.T) *PostgresRepository {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URI")
	if dsn == "" {
		t.Skip("Integration test - requires TEST_DATABASE_URI")
	}

	repo, err := NewPostgresRepository(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	return repo
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func ptr[T any](v T) *T {
	return &v
}

func createTenant(t *testing.T, repo *PostgresRepository, name string) *model.Tenant {
	t.Helper()

	tenant := &model.Tenant{ID: uuid.NewString(), Name: name, CreatedAt: now()}
	require.NoError(t, repo.CreateTenant(context.Background(), tenant))
	return tenant
}

func createUser(t *testing.T, repo *PostgresRepository, tenantID string) *model.User {
	t.Helper()

	u := &model.User{
		ID:         uuid.NewString(),
		TenantID:   tenantID,
		Email:      ptr("shopper@example.com"),
		Attributes: model.Attributes{"tier": "gold"},
		CreatedAt:  now(),
	}
	require.NoError(t, repo.CreateUser(context.Background(), u))
	return u
}

func createOffer(t *testing.T, repo *PostgresRepository, tenantID string, benefit model.Benefit) *model.Offer {
	t.Helper()

	o := &model.Offer{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		Type:      model.OfferTypePersonal,
		Benefit:   benefit,
		Limits:    model.Limits{PerUser: ptr(int64(1))},
		AppliesTo: []string{},
		ValidFrom: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		ValidTo:   time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		CreatedAt: now(),
	}
	require.NoError(t, repo.CreateOffer(context.Background(), o))
	return o
}

func TestTenantNameUnique(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	name := "tenant-" + uuid.NewString()
	createTenant(t, repo, name)

	err := repo.CreateTenant(ctx, &model.Tenant{ID: uuid.NewString(), Name: name, CreatedAt: now()})
	assert.ErrorIs(t, err, ErrUniqueViolation)

	got, err := repo.GetTenantByName(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, name, got.Name)
}

func TestProductSKUUniquePerTenant(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	t1 := createTenant(t, repo, "t1-"+uuid.NewString())
	t2 := createTenant(t, repo, "t2-"+uuid.NewString())

	product := func(tenantID string) *model.Product {
		return &model.Product{
			ID:         uuid.NewString(),
			TenantID:   tenantID,
			SKU:        "X1",
			Name:       "Coffee",
			PriceCents: 5000,
			Attributes: model.Attributes{},
			CreatedAt:  now(),
		}
	}

	require.NoError(t, repo.CreateProduct(ctx, product(t1.ID)))
	assert.ErrorIs(t, repo.CreateProduct(ctx, product(t1.ID)), ErrUniqueViolation)
	assert.NoError(t, repo.CreateProduct(ctx, product(t2.ID)))

	got, err := repo.GetProductBySKU(ctx, t2.ID, "X1")
	require.NoError(t, err)
	assert.Equal(t, t2.ID, got.TenantID)
}

func TestVoucherReferentialIntegrity(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	tenant := createTenant(t, repo, "ri-"+uuid.NewString())
	user := createUser(t, repo, tenant.ID)
	offer := createOffer(t, repo, tenant.ID, model.Benefit{Kind: model.BenefitFixed, Value: 500})

	missingOffer := &model.Voucher{
		ID: uuid.NewString(), TenantID: tenant.ID, OfferID: uuid.NewString(), UserID: user.ID,
		Code: "RI-" + uuid.NewString(), State: model.VoucherStateIssued, IssuedAt: now(),
	}
	assert.ErrorIs(t, repo.CreateVoucher(ctx, missingOffer), ErrReferentialIntegrity)

	missingUser := &model.Voucher{
		ID: uuid.NewString(), TenantID: tenant.ID, OfferID: offer.ID, UserID: uuid.NewString(),
		Code: "RI-" + uuid.NewString(), State: model.VoucherStateIssued, IssuedAt: now(),
	}
	assert.ErrorIs(t, repo.CreateVoucher(ctx, missingUser), ErrReferentialIntegrity)
}

func TestCrossTenantReferenceRejected(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	owner := createTenant(t, repo, "owner-"+uuid.NewString())
	other := createTenant(t, repo, "other-"+uuid.NewString())
	offer := createOffer(t, repo, owner.ID, model.Benefit{Kind: model.BenefitPercentage, Value: 10})
	user := createUser(t, repo, other.ID)

	v := &model.Voucher{
		ID: uuid.NewString(), TenantID: other.ID, OfferID: offer.ID, UserID: user.ID,
		Code: "X-" + uuid.NewString(), State: model.VoucherStateIssued, IssuedAt: now(),
	}
	assert.ErrorIs(t, repo.CreateVoucher(ctx, v), ErrReferentialIntegrity)

	_, err := repo.GetOffer(ctx, other.ID, offer.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStructuredFieldsRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	tenant := createTenant(t, repo, "rt-"+uuid.NewString())
	offer := createOffer(t, repo, tenant.ID, model.Benefit{Kind: model.BenefitPercentage, Value: 15})

	got, err := repo.GetOffer(ctx, tenant.ID, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, model.Benefit{Kind: model.BenefitPercentage, Value: 15}, got.Benefit)
	assert.Equal(t, offer.Limits, got.Limits)
	assert.Equal(t, []string{}, got.AppliesTo)
	assert.True(t, offer.ValidFrom.Equal(got.ValidFrom))

	user := createUser(t, repo, tenant.ID)
	gotUser, err := repo.GetUser(ctx, tenant.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.Attributes{"tier": "gold"}, gotUser.Attributes)
}

func TestLoyaltyScenario(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	acme := createTenant(t, repo, "Acme-"+uuid.NewString())
	u1 := createUser(t, repo, acme.ID)
	o1 := createOffer(t, repo, acme.ID, model.Benefit{Kind: model.BenefitFixed, Value: 500})

	code := "ACME-001-" + uuid.NewString()
	v1 := &model.Voucher{
		ID: uuid.NewString(), TenantID: acme.ID, OfferID: o1.ID, UserID: u1.ID,
		Code: code, State: model.VoucherStateIssued, IssuedAt: now(),
	}
	require.NoError(t, repo.CreateVoucher(ctx, v1))

	r1 := &model.Redemption{
		ID: uuid.NewString(), TenantID: acme.ID, OfferID: o1.ID, UserID: &u1.ID, VoucherID: &v1.ID,
		Status: model.RedemptionApproved, RedeemedAt: now(),
	}
	require.NoError(t, repo.CreateRedemption(ctx, r1))
	require.NoError(t, repo.UpdateVoucherState(ctx, acme.ID, v1.ID, model.VoucherStateRedeemed, &r1.ID))

	tx1 := &model.Transaction{
		ID: uuid.NewString(), TenantID: acme.ID, UserID: &u1.ID, POSTxnID: "POS-1",
		PurchasedAt: now(), TotalCents: 4500, Currency: model.DefaultCurrency,
		Lines:        []model.TransactionLine{{SKU: "X1", Qty: 1, UnitPriceCents: 5000}},
		Attribution:  model.Attribution{OfferID: &o1.ID, RedemptionID: &r1.ID},
		RedemptionID: &r1.ID, CreatedAt: now(),
	}
	require.NoError(t, repo.CreateTransaction(ctx, tx1))

	gotVoucher, err := repo.GetVoucherByCode(ctx, acme.ID, code)
	require.NoError(t, err)
	assert.Equal(t, model.VoucherStateRedeemed, gotVoucher.State)
	require.NotNil(t, gotVoucher.RedemptionID)
	assert.Equal(t, r1.ID, *gotVoucher.RedemptionID)

	gotRedemption, err := repo.GetRedemptionByVoucher(ctx, acme.ID, v1.ID)
	require.NoError(t, err)
	assert.Equal(t, r1.ID, gotRedemption.ID)

	gotTx, err := repo.GetTransactionByRedemption(ctx, acme.ID, r1.ID)
	require.NoError(t, err)
	assert.Equal(t, tx1.Lines, gotTx.Lines)
	assert.Equal(t, tx1.Attribution, gotTx.Attribution)
	assert.Equal(t, int64(4500), gotTx.TotalCents)

	vouchers, err := repo.ListVouchersByUser(ctx, acme.ID, u1.ID)
	require.NoError(t, err)
	require.Len(t, vouchers, 1)
	assert.Equal(t, v1.ID, vouchers[0].ID)

	txs, err := repo.ListTransactions(ctx, acme.ID, model.Page{})
	require.NoError(t, err)
	require.Len(t, txs, 1)

	// Код ваучера уникален для всех тенантов.
	other := createTenant(t, repo, "Other-"+uuid.NewString())
	otherUser := createUser(t, repo, other.ID)
	otherOffer := createOffer(t, repo, other.ID, model.Benefit{Kind: model.BenefitFixed, Value: 100})
	dup := &model.Voucher{
		ID: uuid.NewString(), TenantID: other.ID, OfferID: otherOffer.ID, UserID: otherUser.ID,
		Code: code, State: model.VoucherStateIssued, IssuedAt: now(),
	}
	assert.ErrorIs(t, repo.CreateVoucher(ctx, dup), ErrUniqueViolation)

	// Одно погашение связано не более чем с одной покупкой.
	tx2 := *tx1
	tx2.ID = uuid.NewString()
	assert.ErrorIs(t, repo.CreateTransaction(ctx, &tx2), ErrUniqueViolation)
}

func TestRedeemVoucherAtomic(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	tenant := createTenant(t, repo, "atomic-"+uuid.NewString())
	user := createUser(t, repo, tenant.ID)
	offer := createOffer(t, repo, tenant.ID, model.Benefit{Kind: model.BenefitFixed, Value: 200})

	v := &model.Voucher{
		ID: uuid.NewString(), TenantID: tenant.ID, OfferID: offer.ID, UserID: user.ID,
		Code: "AT-" + uuid.NewString(), State: model.VoucherStateIssued, IssuedAt: now(),
	}
	require.NoError(t, repo.CreateVoucher(ctx, v))

	rd := &model.Redemption{
		ID: uuid.NewString(), TenantID: tenant.ID, OfferID: offer.ID, UserID: &user.ID,
		VoucherID: &v.ID, Status: model.RedemptionApproved, RedeemedAt: now(),
	}
	require.NoError(t, repo.RedeemVoucher(ctx, rd, model.VoucherStateRedeemed))

	got, err := repo.GetVoucher(ctx, tenant.ID, v.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VoucherStateRedeemed, got.State)
	assert.Equal(t, rd.ID, *got.RedemptionID)

	// Второе погашение того же ваучера нарушает связь один-к-одному и не оставляет следов.
	second := &model.Redemption{
		ID: uuid.NewString(), TenantID: tenant.ID, OfferID: offer.ID,
		VoucherID: &v.ID, Status: model.RedemptionApproved, RedeemedAt: now(),
	}
	assert.ErrorIs(t, repo.RedeemVoucher(ctx, second, model.VoucherStateRedeemed), ErrUniqueViolation)

	_, err = repo.GetRedemption(ctx, tenant.ID, second.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateMissingRecord(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	tenant := createTenant(t, repo, "missing-"+uuid.NewString())

	assert.ErrorIs(t, repo.UpdateCampaignStatus(ctx, tenant.ID, uuid.NewString(), model.CampaignStatusActive), ErrNotFound)
	assert.ErrorIs(t, repo.UpdateVoucherState(ctx, tenant.ID, uuid.NewString(), model.VoucherStateVoid, nil), ErrNotFound)
	assert.ErrorIs(t, repo.MarkPushNotificationSent(ctx, tenant.ID, uuid.NewString(), now()), ErrNotFound)
}
