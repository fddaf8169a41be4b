package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/mmeshcher/loyalty-platform/internal/events"
	"github.com/mmeshcher/loyalty-platform/internal/model"
	"github.com/mmeshcher/loyalty-platform/internal/validation"
)

// RecordTransaction сохраняет покупку с кассы. Валюта по умолчанию — USD.
func (s *Service) RecordTransaction(ctx context.Context, tenantID string, t model.Transaction) (*model.Transaction, error) {
	t.ID = uuid.NewString()
	t.TenantID = tenantID
	t.CreatedAt = s.now()
	if t.Currency == "" {
		t.Currency = model.DefaultCurrency
	}
	t.PurchasedAt = storedTime(t.PurchasedAt)

	err := s.write(ctx, "transaction", "create", events.TypeCreated, tenantID, t.ID, t, validation.Transaction(&t),
		func(ctx context.Context) error { return s.repo.CreateTransaction(ctx, &t) })
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTransaction возвращает покупку тенанта по идентификатору.
func (s *Service) GetTransaction(ctx context.Context, tenantID, id string) (*model.Transaction, error) {
	return traced(ctx, s, "service.transaction.get", tenantID, func(ctx context.Context) (*model.Transaction, error) {
		return s.repo.GetTransaction(ctx, tenantID, id)
	})
}

// GetTransactionByRedemption возвращает покупку, в которой было применено погашение.
func (s *Service) GetTransactionByRedemption(ctx context.Context, tenantID, redemptionID string) (*model.Transaction, error) {
	return traced(ctx, s, "service.transaction.get_by_redemption", tenantID, func(ctx context.Context) (*model.Transaction, error) {
		return s.repo.GetTransactionByRedemption(ctx, tenantID, redemptionID)
	})
}

// ListTransactions возвращает страницу покупок тенанта.
func (s *Service) ListTransactions(ctx context.Context, tenantID string, page model.Page) ([]model.Transaction, error) {
	return traced(ctx, s, "service.transaction.list", tenantID, func(ctx context.Context) ([]model.Transaction, error) {
		return s.repo.ListTransactions(ctx, tenantID, page)
	})
}

// ListTransactionsByUser возвращает покупки пользователя.
func (s *Service) ListTransactionsByUser(ctx context.Context, tenantID, userID string) ([]model.Transaction, error) {
	return traced(ctx, s, "service.transaction.list_by_user", tenantID, func(ctx context.Context) ([]model.Transaction, error) {
		return s.repo.ListTransactionsByUser(ctx, tenantID, userID)
	})
}
