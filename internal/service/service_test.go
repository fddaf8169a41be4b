package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/loyalty-platform/internal/events"
	"github.com/mmeshcher/loyalty-platform/internal/model"
	"github.com/mmeshcher/loyalty-platform/internal/repository"
)

// stubRepo реализует только те методы, которые нужны тесту; остальные вызовут панику на nil-интерфейсе.
type stubRepo struct {
	Repository

	createTenantErr error
	tenants         map[string]*model.Tenant
	getTenantCalls  int

	users         []*model.User
	createUserErr error

	campaigns []*model.Campaign
	offers    []*model.Offer
	vouchers  []*model.Voucher

	redeemed      *model.Redemption
	redeemedState model.VoucherState
	redeemErr     error

	transactions []*model.Transaction

	push        *model.PushNotification
	pushSentAt  *time.Time
	statusCalls int
}

func (s *stubRepo) CreateTenant(_ context.Context, t *model.Tenant) error {
	if s.createTenantErr != nil {
		return s.createTenantErr
	}
	if s.tenants == nil {
		s.tenants = map[string]*model.Tenant{}
	}
	s.tenants[t.ID] = t
	return nil
}

func (s *stubRepo) GetTenant(_ context.Context, id string) (*model.Tenant, error) {
	s.getTenantCalls++
	t, ok := s.tenants[id]
	if !ok {
		return nil, fmt.Errorf("get tenant: %w", repository.ErrNotFound)
	}
	return t, nil
}

func (s *stubRepo) CreateUser(_ context.Context, u *model.User) error {
	if s.createUserErr != nil {
		return s.createUserErr
	}
	s.users = append(s.users, u)
	return nil
}

func (s *stubRepo) CreateCampaign(_ context.Context, c *model.Campaign) error {
	s.campaigns = append(s.campaigns, c)
	return nil
}

func (s *stubRepo) UpdateCampaignStatus(_ context.Context, _, _ string, _ model.CampaignStatus) error {
	s.statusCalls++
	return nil
}

func (s *stubRepo) CreateOffer(_ context.Context, o *model.Offer) error {
	s.offers = append(s.offers, o)
	return nil
}

func (s *stubRepo) CreateVoucher(_ context.Context, v *model.Voucher) error {
	s.vouchers = append(s.vouchers, v)
	return nil
}

func (s *stubRepo) RedeemVoucher(_ context.Context, rd *model.Redemption, state model.VoucherState) error {
	if s.redeemErr != nil {
		return s.redeemErr
	}
	s.redeemed = rd
	s.redeemedState = state
	return nil
}

func (s *stubRepo) CreateTransaction(_ context.Context, t *model.Transaction) error {
	s.transactions = append(s.transactions, t)
	return nil
}

func (s *stubRepo) GetPushNotification(_ context.Context, _, _ string) (*model.PushNotification, error) {
	if s.push == nil {
		return nil, fmt.Errorf("get push notification: %w", repository.ErrNotFound)
	}
	n := *s.push
	return &n, nil
}

func (s *stubRepo) MarkPushNotificationSent(_ context.Context, _, _ string, sentAt time.Time) error {
	s.pushSentAt = &sentAt
	return nil
}

type stubCache struct {
	tenants map[string]*model.Tenant
	getErr  error
	sets    int
}

func (c *stubCache) Get(_ context.Context, id string) (*model.Tenant, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	t, ok := c.tenants[id]
	return t, ok, nil
}

func (c *stubCache) Set(_ context.Context, t *model.Tenant) error {
	if c.tenants == nil {
		c.tenants = map[string]*model.Tenant{}
	}
	c.tenants[t.ID] = t
	c.sets++
	return nil
}

type stubPublisher struct {
	published []events.Event
	err       error
}

func (p *stubPublisher) Publish(_ context.Context, e events.Event) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, e)
	return nil
}

func TestCreateTenant(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, nil)

	tenant, err := svc.CreateTenant(context.Background(), "Acme")
	require.NoError(t, err)

	_, err = uuid.Parse(tenant.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Acme", tenant.Name)
	assert.Equal(t, time.UTC, tenant.CreatedAt.Location())
	assert.Contains(t, repo.tenants, tenant.ID)
}

func TestCreateTenant_EmptyName(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, nil)

	_, err := svc.CreateTenant(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, repo.tenants)
}

func TestCreateTenant_PropagatesDuplicateError(t *testing.T) {
	repo := &stubRepo{
		createTenantErr: fmt.Errorf("create tenant: %w: uix_tenant_name", repository.ErrUniqueViolation),
	}
	svc := NewService(repo, nil)

	_, err := svc.CreateTenant(context.Background(), "Acme")
	if !errors.Is(err, repository.ErrUniqueViolation) {
		t.Fatalf("expected ErrUniqueViolation, got %v", err)
	}
}

func TestCreateUser_ScopedToCallerTenant(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, nil)

	u, err := svc.CreateUser(context.Background(), "tenant-a", model.User{TenantID: "tenant-b"})
	require.NoError(t, err)

	assert.Equal(t, "tenant-a", u.TenantID)
	require.Len(t, repo.users, 1)
	assert.Equal(t, "tenant-a", repo.users[0].TenantID)
	assert.NotNil(t, repo.users[0].Attributes)
}

func TestCreateUser_PropagatesReferentialError(t *testing.T) {
	repo := &stubRepo{createUserErr: fmt.Errorf("create user: %w", repository.ErrReferentialIntegrity)}
	svc := NewService(repo, nil)

	_, err := svc.CreateUser(context.Background(), "missing", model.User{})
	assert.ErrorIs(t, err, repository.ErrReferentialIntegrity)
}

func TestCreateCampaign_Defaults(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, nil)

	c, err := svc.CreateCampaign(context.Background(), "t1", model.Campaign{Name: "Spring"})
	require.NoError(t, err)

	assert.Equal(t, model.CampaignStatusDraft, c.Status)
	assert.Equal(t, model.TargetAll, c.Target.Kind)
}

func TestUpdateCampaignStatus(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, nil)
	ctx := context.Background()

	// Переход из ended обратно в active допустим: статусы не охраняются.
	require.NoError(t, svc.UpdateCampaignStatus(ctx, "t1", "c1", model.CampaignStatusEnded))
	require.NoError(t, svc.UpdateCampaignStatus(ctx, "t1", "c1", model.CampaignStatusActive))
	assert.Equal(t, 2, repo.statusCalls)

	err := svc.UpdateCampaignStatus(ctx, "t1", "c1", "archived")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, 2, repo.statusCalls)
}

func TestCreateOffer_Validation(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, nil)

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	offer := model.Offer{
		Type:      model.OfferTypePersonal,
		Benefit:   model.Benefit{Kind: model.BenefitFixed, Value: 500},
		ValidFrom: from,
		ValidTo:   from.AddDate(0, 0, -1),
	}

	_, err := svc.CreateOffer(context.Background(), "t1", offer)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, repo.offers)

	offer.ValidTo = from.AddDate(1, 0, 0)
	o, err := svc.CreateOffer(context.Background(), "t1", offer)
	require.NoError(t, err)
	assert.Equal(t, []string{}, o.AppliesTo)
	assert.Equal(t, model.Benefit{Kind: model.BenefitFixed, Value: 500}, o.Benefit)
}

func TestIssueVoucher_DefaultState(t *testing.T) {
	repo := &stubRepo{}
	pub := &stubPublisher{}
	svc := NewService(repo, nil, WithEventPublisher(pub))

	v, err := svc.IssueVoucher(context.Background(), "t1", model.Voucher{OfferID: "o1", UserID: "u1", Code: "ACME-001"})
	require.NoError(t, err)

	assert.Equal(t, model.VoucherStateIssued, v.State)
	require.Len(t, pub.published, 1)
	assert.Equal(t, "voucher", pub.published[0].Entity)
	assert.Equal(t, events.TypeCreated, pub.published[0].Type)
	assert.Equal(t, v.ID, pub.published[0].EntityID)
}

func TestRedeemVoucher(t *testing.T) {
	repo := &stubRepo{}
	pub := &stubPublisher{}
	svc := NewService(repo, nil, WithEventPublisher(pub))

	voucherID := "v1"
	userID := "u1"
	rd, err := svc.RedeemVoucher(context.Background(), "t1", model.Redemption{
		OfferID:   "o1",
		UserID:    &userID,
		VoucherID: &voucherID,
		Status:    model.RedemptionApproved,
	}, "")
	require.NoError(t, err)

	assert.Equal(t, model.VoucherStateRedeemed, repo.redeemedState)
	assert.Equal(t, rd.ID, repo.redeemed.ID)
	assert.Equal(t, "t1", repo.redeemed.TenantID)
	assert.False(t, rd.RedeemedAt.IsZero())

	require.Len(t, pub.published, 2)
	assert.Equal(t, "redemption", pub.published[0].Entity)
	assert.Equal(t, "voucher", pub.published[1].Entity)
	assert.Equal(t, events.TypeStatusChanged, pub.published[1].Type)
}

func TestRedeemVoucher_DuplicateRedemption(t *testing.T) {
	repo := &stubRepo{redeemErr: fmt.Errorf("create redemption: %w: uix_redemption_voucher", repository.ErrUniqueViolation)}
	pub := &stubPublisher{}
	svc := NewService(repo, nil, WithEventPublisher(pub))

	voucherID := "v1"
	_, err := svc.RedeemVoucher(context.Background(), "t1", model.Redemption{
		OfferID: "o1", VoucherID: &voucherID, Status: model.RedemptionApproved,
	}, model.VoucherStateRedeemed)
	assert.ErrorIs(t, err, repository.ErrUniqueViolation)
	assert.Empty(t, pub.published)
}

func TestRecordTransaction_DefaultCurrency(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, nil)

	tx, err := svc.RecordTransaction(context.Background(), "t1", model.Transaction{
		POSTxnID:    "POS-1",
		PurchasedAt: time.Now(),
		TotalCents:  4500,
		Lines:       []model.TransactionLine{{SKU: "X1", Qty: 1, UnitPriceCents: 5000}},
	})
	require.NoError(t, err)
	assert.Equal(t, "USD", tx.Currency)
	require.Len(t, repo.transactions, 1)
}

func TestRecordTransaction_EmptyLines(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, nil)

	_, err := svc.RecordTransaction(context.Background(), "t1", model.Transaction{
		POSTxnID: "POS-1", PurchasedAt: time.Now(), TotalCents: 100,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, repo.transactions)
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, nil, WithEventPublisher(&stubPublisher{err: errors.New("broker down")}))

	_, err := svc.CreateTenant(context.Background(), "Acme")
	assert.NoError(t, err)
}

func TestGetTenant_Cache(t *testing.T) {
	tenant := &model.Tenant{ID: "t1", Name: "Acme"}

	t.Run("miss populates cache", func(t *testing.T) {
		repo := &stubRepo{tenants: map[string]*model.Tenant{"t1": tenant}}
		cache := &stubCache{}
		svc := NewService(repo, nil, WithTenantCache(cache))

		got, err := svc.GetTenant(context.Background(), "t1")
		require.NoError(t, err)
		assert.Equal(t, "Acme", got.Name)
		assert.Equal(t, 1, cache.sets)

		_, err = svc.GetTenant(context.Background(), "t1")
		require.NoError(t, err)
		assert.Equal(t, 1, repo.getTenantCalls)
	})

	t.Run("cache error falls back to store", func(t *testing.T) {
		repo := &stubRepo{tenants: map[string]*model.Tenant{"t1": tenant}}
		svc := NewService(repo, nil, WithTenantCache(&stubCache{getErr: errors.New("redis down")}))

		got, err := svc.GetTenant(context.Background(), "t1")
		require.NoError(t, err)
		assert.Equal(t, "t1", got.ID)
		assert.Equal(t, 1, repo.getTenantCalls)
	})

	t.Run("not found is not cached", func(t *testing.T) {
		repo := &stubRepo{}
		cache := &stubCache{}
		svc := NewService(repo, nil, WithTenantCache(cache))

		_, err := svc.GetTenant(context.Background(), "missing")
		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.Zero(t, cache.sets)
	})
}

func TestMarkPushNotificationSent(t *testing.T) {
	scheduled := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	t.Run("before schedule", func(t *testing.T) {
		repo := &stubRepo{push: &model.PushNotification{ID: "n1", TenantID: "t1", ScheduledAt: &scheduled}}
		svc := NewService(repo, nil)

		_, err := svc.MarkPushNotificationSent(context.Background(), "t1", "n1", scheduled.Add(-time.Minute))
		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.Nil(t, repo.pushSentAt)
	})

	t.Run("after schedule", func(t *testing.T) {
		repo := &stubRepo{push: &model.PushNotification{ID: "n1", TenantID: "t1", ScheduledAt: &scheduled}}
		svc := NewService(repo, nil)

		n, err := svc.MarkPushNotificationSent(context.Background(), "t1", "n1", scheduled.Add(time.Minute))
		require.NoError(t, err)
		require.NotNil(t, n.SentAt)
		assert.True(t, n.SentAt.Equal(scheduled.Add(time.Minute)))
		require.NotNil(t, repo.pushSentAt)
	})

	t.Run("missing notification", func(t *testing.T) {
		svc := NewService(&stubRepo{}, nil)

		_, err := svc.MarkPushNotificationSent(context.Background(), "t1", "n1", time.Time{})
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func (s *stubRepo) GetTenantByName(_ context.Context, name string) (*model.Tenant, error) {
	for _, t := range s.tenants {
		if t.Name == name {
			return t, nil
		}
	}
	return nil, fmt.Errorf("get tenant by name: %w", repository.ErrNotFound)
}

func TestGetTenantByName(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, nil)

	created, err := svc.CreateTenant(context.Background(), "Acme")
	require.NoError(t, err)

	got, err := svc.GetTenantByName(context.Background(), "Acme")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = svc.GetTenantByName(context.Background(), "Globex")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCreate_TruncatesClientTimes(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, nil)
	ctx := context.Background()

	loc := time.FixedZone("UTC+3", 3*60*60)
	at := time.Date(2024, 1, 1, 12, 0, 0, 123456789, loc)
	later := at.Add(24 * time.Hour)
	want := time.Date(2024, 1, 1, 9, 0, 0, 123456000, time.UTC)

	c, err := svc.CreateCampaign(ctx, "t1", model.Campaign{Name: "Spring", StartAt: &at, EndAt: &later})
	require.NoError(t, err)
	assert.True(t, c.StartAt.Equal(want), "start_at = %v", c.StartAt)
	assert.Equal(t, time.UTC, c.StartAt.Location())
	assert.True(t, c.EndAt.Equal(want.Add(24*time.Hour)), "end_at = %v", c.EndAt)

	o, err := svc.CreateOffer(ctx, "t1", model.Offer{
		Type:      model.OfferTypePersonal,
		Benefit:   model.Benefit{Kind: model.BenefitFixed, Value: 500},
		ValidFrom: at,
		ValidTo:   later,
	})
	require.NoError(t, err)
	assert.True(t, o.ValidFrom.Equal(want), "valid_from = %v", o.ValidFrom)
	assert.Equal(t, time.UTC, o.ValidFrom.Location())
	assert.True(t, o.ValidTo.Equal(want.Add(24*time.Hour)), "valid_to = %v", o.ValidTo)
}
