// Package service реализует слой доступа платформы лояльности: идентификаторы, метки времени,
// значения по умолчанию, проверку входных данных и изоляцию тенантов.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/mmeshcher/loyalty-platform/internal/events"
	"github.com/mmeshcher/loyalty-platform/internal/metrics"
	"github.com/mmeshcher/loyalty-platform/internal/model"
	"github.com/mmeshcher/loyalty-platform/internal/repository"
	"github.com/mmeshcher/loyalty-platform/internal/validation"
)

// ErrInvalidInput возвращается, если запись не прошла проверку формы.
var ErrInvalidInput = errors.New("invalid input")

// Repository описывает контракт хранилища, используемый сервисом.
type Repository interface {
	Ping(ctx context.Context) error
	Close() error

	CreateTenant(ctx context.Context, t *model.Tenant) error
	GetTenant(ctx context.Context, id string) (*model.Tenant, error)
	GetTenantByName(ctx context.Context, name string) (*model.Tenant, error)

	CreateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, tenantID, id string) (*model.User, error)
	ListUsers(ctx context.Context, tenantID string, page model.Page) ([]model.User, error)

	CreateProduct(ctx context.Context, p *model.Product) error
	GetProduct(ctx context.Context, tenantID, id string) (*model.Product, error)
	GetProductBySKU(ctx context.Context, tenantID, sku string) (*model.Product, error)
	ListProducts(ctx context.Context, tenantID string, page model.Page) ([]model.Product, error)

	CreateCampaign(ctx context.Context, c *model.Campaign) error
	GetCampaign(ctx context.Context, tenantID, id string) (*model.Campaign, error)
	ListCampaigns(ctx context.Context, tenantID string, page model.Page) ([]model.Campaign, error)
	UpdateCampaignStatus(ctx context.Context, tenantID, id string, status model.CampaignStatus) error

	CreateOffer(ctx context.Context, o *model.Offer) error
	GetOffer(ctx context.Context, tenantID, id string) (*model.Offer, error)
	ListOffers(ctx context.Context, tenantID string, page model.Page) ([]model.Offer, error)
	ListOffersByCampaign(ctx context.Context, tenantID, campaignID string) ([]model.Offer, error)

	CreatePushNotification(ctx context.Context, n *model.PushNotification) error
	GetPushNotification(ctx context.Context, tenantID, id string) (*model.PushNotification, error)
	ListPushNotifications(ctx context.Context, tenantID string, page model.Page) ([]model.PushNotification, error)
	ListPushNotificationsByCampaign(ctx context.Context, tenantID, campaignID string) ([]model.PushNotification, error)
	MarkPushNotificationSent(ctx context.Context, tenantID, id string, sentAt time.Time) error

	CreateVoucher(ctx context.Context, v *model.Voucher) error
	GetVoucher(ctx context.Context, tenantID, id string) (*model.Voucher, error)
	GetVoucherByCode(ctx context.Context, tenantID, code string) (*model.Voucher, error)
	ListVouchersByUser(ctx context.Context, tenantID, userID string) ([]model.Voucher, error)
	ListVouchersByOffer(ctx context.Context, tenantID, offerID string) ([]model.Voucher, error)
	UpdateVoucherState(ctx context.Context, tenantID, id string, state model.VoucherState, redemptionID *string) error

	CreateRedemption(ctx context.Context, rd *model.Redemption) error
	RedeemVoucher(ctx context.Context, rd *model.Redemption, state model.VoucherState) error
	GetRedemption(ctx context.Context, tenantID, id string) (*model.Redemption, error)
	GetRedemptionByVoucher(ctx context.Context, tenantID, voucherID string) (*model.Redemption, error)
	ListRedemptions(ctx context.Context, tenantID string, page model.Page) ([]model.Redemption, error)
	ListRedemptionsByOffer(ctx context.Context, tenantID, offerID string) ([]model.Redemption, error)
	ListRedemptionsByUser(ctx context.Context, tenantID, userID string) ([]model.Redemption, error)
	UpdateRedemptionStatus(ctx context.Context, tenantID, id string, status model.RedemptionStatus, reason *string) error

	CreateTransaction(ctx context.Context, t *model.Transaction) error
	GetTransaction(ctx context.Context, tenantID, id string) (*model.Transaction, error)
	GetTransactionByRedemption(ctx context.Context, tenantID, redemptionID string) (*model.Transaction, error)
	ListTransactions(ctx context.Context, tenantID string, page model.Page) ([]model.Transaction, error)
	ListTransactionsByUser(ctx context.Context, tenantID, userID string) ([]model.Transaction, error)
}

// TenantCache — кэш записей тенантов.
type TenantCache interface {
	Get(ctx context.Context, id string) (*model.Tenant, bool, error)
	Set(ctx context.Context, t *model.Tenant) error
}

// EventPublisher принимает доменные события после успешной записи.
type EventPublisher interface {
	Publish(ctx context.Context, e events.Event) error
}

// Service содержит слой доступа платформы лояльности.
type Service struct {
	repo   Repository
	cache  TenantCache
	events EventPublisher
	logger *zap.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// Option настраивает необязательные зависимости сервиса.
type Option func(*Service)

// WithTenantCache включает кэширование тенантов.
func WithTenantCache(c TenantCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithEventPublisher включает публикацию доменных событий.
func WithEventPublisher(p EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

// NewService создаёт сервис поверх хранилища.
func NewService(repo Repository, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		repo:   repo,
		logger: logger,
		tracer: otel.Tracer("github.com/mmeshcher/loyalty-platform/internal/service"),
		now: func() time.Time {
			return time.Now().UTC().Truncate(time.Microsecond)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping проверяет доступность хранилища.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// storedTime приводит момент к точности PostgreSQL, чтобы ответ на запись совпадал с последующим чтением.
func storedTime(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC().Truncate(time.Microsecond)
}

func storedTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := storedTime(*t)
	return &v
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, repository.ErrUniqueViolation):
		return "unique_violation"
	case errors.Is(err, repository.ErrReferentialIntegrity):
		return "referential_integrity"
	case errors.Is(err, repository.ErrNotFound):
		return "not_found"
	default:
		return "internal"
	}
}

// traced выполняет fn внутри спана и отмечает в нём ошибку.
func traced[T any](ctx context.Context, s *Service, name, tenantID string, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := s.tracer.Start(ctx, name, trace.WithAttributes(attribute.String("tenant.id", tenantID)))
	defer span.End()

	v, err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, errorKind(err))
	}
	return v, err
}

// write проверяет запись, сохраняет её через store и сообщает о результате в метрики и шину событий.
func (s *Service) write(ctx context.Context, entity, op, eventType, tenantID, id string, data any, check error, store func(context.Context) error) error {
	_, err := traced(ctx, s, "service."+entity+"."+op, tenantID, func(ctx context.Context) (struct{}, error) {
		if check != nil {
			metrics.RecordStoreError(entity, errorKind(ErrInvalidInput))
			return struct{}{}, invalid(check)
		}
		if err := store(ctx); err != nil {
			metrics.RecordStoreError(entity, errorKind(err))
			return struct{}{}, err
		}
		metrics.RecordWrite(entity, op)
		s.publish(ctx, events.NewEvent(eventType, entity, id, tenantID, data))
		return struct{}{}, nil
	})
	return err
}

// publish отправляет событие. Ошибка шины не отменяет уже выполненную запись.
func (s *Service) publish(ctx context.Context, e events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, e); err != nil {
		metrics.EventsPublishedTotal.WithLabelValues("error").Inc()
		s.logger.Warn("publish event failed",
			zap.String("entity", e.Entity),
			zap.String("entity_id", e.EntityID),
			zap.String("type", e.Type),
			zap.Error(err),
		)
		return
	}
	metrics.EventsPublishedTotal.WithLabelValues("ok").Inc()
}

// CreateTenant регистрирует организацию. Имя уникально.
func (s *Service) CreateTenant(ctx context.Context, name string) (*model.Tenant, error) {
	t := model.Tenant{ID: uuid.NewString(), Name: name, CreatedAt: s.now()}
	err := s.write(ctx, "tenant", "create", events.TypeCreated, t.ID, t.ID, t, validation.Tenant(&t),
		func(ctx context.Context) error { return s.repo.CreateTenant(ctx, &t) })
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTenant возвращает тенанта, сначала обращаясь к кэшу. Ошибки кэша не мешают чтению из хранилища.
func (s *Service) GetTenant(ctx context.Context, id string) (*model.Tenant, error) {
	return traced(ctx, s, "service.tenant.get", id, func(ctx context.Context) (*model.Tenant, error) {
		if s.cache != nil {
			t, found, err := s.cache.Get(ctx, id)
			switch {
			case err != nil:
				metrics.TenantCacheRequestsTotal.WithLabelValues("error").Inc()
				s.logger.Warn("tenant cache get failed", zap.String("tenant_id", id), zap.Error(err))
			case found:
				metrics.TenantCacheRequestsTotal.WithLabelValues("hit").Inc()
				return t, nil
			default:
				metrics.TenantCacheRequestsTotal.WithLabelValues("miss").Inc()
			}
		}

		t, err := s.repo.GetTenant(ctx, id)
		if err != nil {
			return nil, err
		}

		if s.cache != nil {
			if err := s.cache.Set(ctx, t); err != nil {
				s.logger.Warn("tenant cache set failed", zap.String("tenant_id", id), zap.Error(err))
			}
		}
		return t, nil
	})
}

// GetTenantByName возвращает тенанта по уникальному имени.
func (s *Service) GetTenantByName(ctx context.Context, name string) (*model.Tenant, error) {
	return traced(ctx, s, "service.tenant.get_by_name", "", func(ctx context.Context) (*model.Tenant, error) {
		return s.repo.GetTenantByName(ctx, name)
	})
}
