package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mmeshcher/loyalty-platform/internal/events"
	"github.com/mmeshcher/loyalty-platform/internal/model"
	"github.com/mmeshcher/loyalty-platform/internal/validation"
)

// CreateCampaign создаёт кампанию. Без статуса кампания создаётся черновиком, без аудитории — для всех.
func (s *Service) CreateCampaign(ctx context.Context, tenantID string, c model.Campaign) (*model.Campaign, error) {
	c.ID = uuid.NewString()
	c.TenantID = tenantID
	c.CreatedAt = s.now()
	if c.Status == "" {
		c.Status = model.CampaignStatusDraft
	}
	if c.Target.Kind == "" {
		c.Target.Kind = model.TargetAll
	}
	c.StartAt = storedTimePtr(c.StartAt)
	c.EndAt = storedTimePtr(c.EndAt)

	err := s.write(ctx, "campaign", "create", events.TypeCreated, tenantID, c.ID, c, validation.Campaign(&c),
		func(ctx context.Context) error { return s.repo.CreateCampaign(ctx, &c) })
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetCampaign возвращает кампанию тенанта по идентификатору.
func (s *Service) GetCampaign(ctx context.Context, tenantID, id string) (*model.Campaign, error) {
	return traced(ctx, s, "service.campaign.get", tenantID, func(ctx context.Context) (*model.Campaign, error) {
		return s.repo.GetCampaign(ctx, tenantID, id)
	})
}

// ListCampaigns возвращает страницу кампаний тенанта.
func (s *Service) ListCampaigns(ctx context.Context, tenantID string, page model.Page) ([]model.Campaign, error) {
	return traced(ctx, s, "service.campaign.list", tenantID, func(ctx context.Context) ([]model.Campaign, error) {
		return s.repo.ListCampaigns(ctx, tenantID, page)
	})
}

// UpdateCampaignStatus устанавливает любой допустимый статус независимо от текущего.
func (s *Service) UpdateCampaignStatus(ctx context.Context, tenantID, id string, status model.CampaignStatus) error {
	return s.write(ctx, "campaign", "update_status", events.TypeStatusChanged, tenantID, id,
		map[string]any{"status": status}, validation.CampaignStatus(status),
		func(ctx context.Context) error { return s.repo.UpdateCampaignStatus(ctx, tenantID, id, status) })
}

// CreateOffer создаёт предложение, опционально привязанное к кампании тенанта.
func (s *Service) CreateOffer(ctx context.Context, tenantID string, o model.Offer) (*model.Offer, error) {
	o.ID = uuid.NewString()
	o.TenantID = tenantID
	o.CreatedAt = s.now()
	if o.AppliesTo == nil {
		o.AppliesTo = []string{}
	}
	o.ValidFrom = storedTime(o.ValidFrom)
	o.ValidTo = storedTime(o.ValidTo)

	err := s.write(ctx, "offer", "create", events.TypeCreated, tenantID, o.ID, o, validation.Offer(&o),
		func(ctx context.Context) error { return s.repo.CreateOffer(ctx, &o) })
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// GetOffer возвращает предложение тенанта по идентификатору.
func (s *Service) GetOffer(ctx context.Context, tenantID, id string) (*model.Offer, error) {
	return traced(ctx, s, "service.offer.get", tenantID, func(ctx context.Context) (*model.Offer, error) {
		return s.repo.GetOffer(ctx, tenantID, id)
	})
}

// ListOffers возвращает страницу предложений тенанта.
func (s *Service) ListOffers(ctx context.Context, tenantID string, page model.Page) ([]model.Offer, error) {
	return traced(ctx, s, "service.offer.list", tenantID, func(ctx context.Context) ([]model.Offer, error) {
		return s.repo.ListOffers(ctx, tenantID, page)
	})
}

// ListOffersByCampaign возвращает предложения кампании.
func (s *Service) ListOffersByCampaign(ctx context.Context, tenantID, campaignID string) ([]model.Offer, error) {
	return traced(ctx, s, "service.offer.list_by_campaign", tenantID, func(ctx context.Context) ([]model.Offer, error) {
		return s.repo.ListOffersByCampaign(ctx, tenantID, campaignID)
	})
}

// CreatePushNotification сохраняет уведомление. Доставка уведомлений вне зоны ответственности хранилища.
func (s *Service) CreatePushNotification(ctx context.Context, tenantID string, n model.PushNotification) (*model.PushNotification, error) {
	n.ID = uuid.NewString()
	n.TenantID = tenantID
	n.CreatedAt = s.now()
	n.ScheduledAt = storedTimePtr(n.ScheduledAt)
	n.SentAt = storedTimePtr(n.SentAt)

	err := s.write(ctx, "push_notification", "create", events.TypeCreated, tenantID, n.ID, n, validation.PushNotification(&n),
		func(ctx context.Context) error { return s.repo.CreatePushNotification(ctx, &n) })
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// GetPushNotification возвращает уведомление тенанта по идентификатору.
func (s *Service) GetPushNotification(ctx context.Context, tenantID, id string) (*model.PushNotification, error) {
	return traced(ctx, s, "service.push_notification.get", tenantID, func(ctx context.Context) (*model.PushNotification, error) {
		return s.repo.GetPushNotification(ctx, tenantID, id)
	})
}

// ListPushNotifications возвращает страницу уведомлений тенанта.
func (s *Service) ListPushNotifications(ctx context.Context, tenantID string, page model.Page) ([]model.PushNotification, error) {
	return traced(ctx, s, "service.push_notification.list", tenantID, func(ctx context.Context) ([]model.PushNotification, error) {
		return s.repo.ListPushNotifications(ctx, tenantID, page)
	})
}

// ListPushNotificationsByCampaign возвращает уведомления кампании.
func (s *Service) ListPushNotificationsByCampaign(ctx context.Context, tenantID, campaignID string) ([]model.PushNotification, error) {
	return traced(ctx, s, "service.push_notification.list_by_campaign", tenantID, func(ctx context.Context) ([]model.PushNotification, error) {
		return s.repo.ListPushNotificationsByCampaign(ctx, tenantID, campaignID)
	})
}

// MarkPushNotificationSent фиксирует время отправки; нулевое время заменяется текущим.
// Время отправки не может быть раньше запланированного.
func (s *Service) MarkPushNotificationSent(ctx context.Context, tenantID, id string, sentAt time.Time) (*model.PushNotification, error) {
	if sentAt.IsZero() {
		sentAt = s.now()
	}
	sentAt = storedTime(sentAt)

	n, err := s.GetPushNotification(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	var check error
	if n.ScheduledAt != nil && sentAt.Before(*n.ScheduledAt) {
		check = errors.New("sent_at: must not be before scheduled_at")
	}

	err = s.write(ctx, "push_notification", "mark_sent", events.TypeStatusChanged, tenantID, id,
		map[string]any{"sent_at": sentAt}, check,
		func(ctx context.Context) error { return s.repo.MarkPushNotificationSent(ctx, tenantID, id, sentAt) })
	if err != nil {
		return nil, err
	}
	n.SentAt = &sentAt
	return n, nil
}
