package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/mmeshcher/loyalty-platform/internal/events"
	"github.com/mmeshcher/loyalty-platform/internal/model"
	"github.com/mmeshcher/loyalty-platform/internal/validation"
)

// IssueVoucher выпускает ваучер пользователю по предложению. Код должен быть уникален среди всех тенантов.
func (s *Service) IssueVoucher(ctx context.Context, tenantID string, v model.Voucher) (*model.Voucher, error) {
	v.ID = uuid.NewString()
	v.TenantID = tenantID
	v.IssuedAt = s.now()
	if v.State == "" {
		v.State = model.VoucherStateIssued
	}

	err := s.write(ctx, "voucher", "create", events.TypeCreated, tenantID, v.ID, v, validation.Voucher(&v),
		func(ctx context.Context) error { return s.repo.CreateVoucher(ctx, &v) })
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// GetVoucher возвращает ваучер тенанта по идентификатору.
func (s *Service) GetVoucher(ctx context.Context, tenantID, id string) (*model.Voucher, error) {
	return traced(ctx, s, "service.voucher.get", tenantID, func(ctx context.Context) (*model.Voucher, error) {
		return s.repo.GetVoucher(ctx, tenantID, id)
	})
}

// GetVoucherByCode ищет ваучер по коду среди ваучеров тенанта.
func (s *Service) GetVoucherByCode(ctx context.Context, tenantID, code string) (*model.Voucher, error) {
	return traced(ctx, s, "service.voucher.get_by_code", tenantID, func(ctx context.Context) (*model.Voucher, error) {
		return s.repo.GetVoucherByCode(ctx, tenantID, code)
	})
}

// ListVouchersByUser возвращает ваучеры пользователя.
func (s *Service) ListVouchersByUser(ctx context.Context, tenantID, userID string) ([]model.Voucher, error) {
	return traced(ctx, s, "service.voucher.list_by_user", tenantID, func(ctx context.Context) ([]model.Voucher, error) {
		return s.repo.ListVouchersByUser(ctx, tenantID, userID)
	})
}

// ListVouchersByOffer возвращает ваучеры, выпущенные по предложению.
func (s *Service) ListVouchersByOffer(ctx context.Context, tenantID, offerID string) ([]model.Voucher, error) {
	return traced(ctx, s, "service.voucher.list_by_offer", tenantID, func(ctx context.Context) ([]model.Voucher, error) {
		return s.repo.ListVouchersByOffer(ctx, tenantID, offerID)
	})
}

// UpdateVoucherState устанавливает состояние ваучера без проверки перехода.
// Непустой redemptionID связывает ваучер с погашением.
func (s *Service) UpdateVoucherState(ctx context.Context, tenantID, id string, state model.VoucherState, redemptionID *string) error {
	data := map[string]any{"state": state}
	if redemptionID != nil {
		data["redemption_id"] = *redemptionID
	}
	return s.write(ctx, "voucher", "update_state", events.TypeStatusChanged, tenantID, id, data,
		validation.VoucherState(state),
		func(ctx context.Context) error { return s.repo.UpdateVoucherState(ctx, tenantID, id, state, redemptionID) })
}

func (s *Service) newRedemption(tenantID string, rd model.Redemption) model.Redemption {
	rd.ID = uuid.NewString()
	rd.TenantID = tenantID
	rd.RedeemedAt = s.now()
	return rd
}

// CreateRedemption сохраняет погашение предложения. Ваучер, если указан, не изменяется.
func (s *Service) CreateRedemption(ctx context.Context, tenantID string, rd model.Redemption) (*model.Redemption, error) {
	rd = s.newRedemption(tenantID, rd)

	err := s.write(ctx, "redemption", "create", events.TypeCreated, tenantID, rd.ID, rd, validation.Redemption(&rd),
		func(ctx context.Context) error { return s.repo.CreateRedemption(ctx, &rd) })
	if err != nil {
		return nil, err
	}
	return &rd, nil
}

// RedeemVoucher одной транзакцией сохраняет погашение и переводит ваучер в состояние state
// (по умолчанию redeemed), связывая их друг с другом.
func (s *Service) RedeemVoucher(ctx context.Context, tenantID string, rd model.Redemption, state model.VoucherState) (*model.Redemption, error) {
	rd = s.newRedemption(tenantID, rd)
	if state == "" {
		state = model.VoucherStateRedeemed
	}

	check := validation.Redemption(&rd)
	if check == nil {
		check = validation.VoucherState(state)
	}

	err := s.write(ctx, "redemption", "redeem", events.TypeCreated, tenantID, rd.ID, rd, check,
		func(ctx context.Context) error { return s.repo.RedeemVoucher(ctx, &rd, state) })
	if err != nil {
		return nil, err
	}

	if rd.VoucherID != nil {
		s.publish(ctx, events.NewEvent(events.TypeStatusChanged, "voucher", *rd.VoucherID, tenantID,
			map[string]any{"state": state, "redemption_id": rd.ID}))
	}
	return &rd, nil
}

// GetRedemption возвращает погашение тенанта по идентификатору.
func (s *Service) GetRedemption(ctx context.Context, tenantID, id string) (*model.Redemption, error) {
	return traced(ctx, s, "service.redemption.get", tenantID, func(ctx context.Context) (*model.Redemption, error) {
		return s.repo.GetRedemption(ctx, tenantID, id)
	})
}

// GetRedemptionByVoucher возвращает погашение, связанное с ваучером.
func (s *Service) GetRedemptionByVoucher(ctx context.Context, tenantID, voucherID string) (*model.Redemption, error) {
	return traced(ctx, s, "service.redemption.get_by_voucher", tenantID, func(ctx context.Context) (*model.Redemption, error) {
		return s.repo.GetRedemptionByVoucher(ctx, tenantID, voucherID)
	})
}

// ListRedemptions возвращает страницу погашений тенанта.
func (s *Service) ListRedemptions(ctx context.Context, tenantID string, page model.Page) ([]model.Redemption, error) {
	return traced(ctx, s, "service.redemption.list", tenantID, func(ctx context.Context) ([]model.Redemption, error) {
		return s.repo.ListRedemptions(ctx, tenantID, page)
	})
}

// ListRedemptionsByOffer возвращает погашения предложения.
func (s *Service) ListRedemptionsByOffer(ctx context.Context, tenantID, offerID string) ([]model.Redemption, error) {
	return traced(ctx, s, "service.redemption.list_by_offer", tenantID, func(ctx context.Context) ([]model.Redemption, error) {
		return s.repo.ListRedemptionsByOffer(ctx, tenantID, offerID)
	})
}

// ListRedemptionsByUser возвращает погашения пользователя.
func (s *Service) ListRedemptionsByUser(ctx context.Context, tenantID, userID string) ([]model.Redemption, error) {
	return traced(ctx, s, "service.redemption.list_by_user", tenantID, func(ctx context.Context) ([]model.Redemption, error) {
		return s.repo.ListRedemptionsByUser(ctx, tenantID, userID)
	})
}

// UpdateRedemptionStatus устанавливает статус погашения и, если задана, причину.
func (s *Service) UpdateRedemptionStatus(ctx context.Context, tenantID, id string, status model.RedemptionStatus, reason *string) error {
	data := map[string]any{"status": status}
	if reason != nil {
		data["reason"] = *reason
	}
	return s.write(ctx, "redemption", "update_status", events.TypeStatusChanged, tenantID, id, data,
		validation.RedemptionStatus(status),
		func(ctx context.Context) error { return s.repo.UpdateRedemptionStatus(ctx, tenantID, id, status, reason) })
}
