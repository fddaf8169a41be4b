// Package validation содержит проверки формы входных записей платформы лояльности.
// Проверяется только структура данных: бизнес-правила погашения и переходы статусов сюда не относятся.
package validation

import (
	"errors"
	"strconv"
	"strings"
	"time"

	ozzo "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/mmeshcher/loyalty-platform/internal/model"
)

// MaxVoucherCodeLength ограничивает длину кода ваучера. Формат кода не проверяется.
const MaxVoucherCodeLength = 255

// OneOf возвращает правило принадлежности значения перечислению.
func OneOf[T ~string](allowed []T) ozzo.Rule {
	values := make([]interface{}, len(allowed))
	names := make([]string, len(allowed))
	for i, v := range allowed {
		values[i] = v
		names[i] = string(v)
	}
	return ozzo.In(values...).Error("must be one of: " + strings.Join(names, ", "))
}

// notBefore проверяет, что момент не раньше start. Пустые значения пропускаются.
func notBefore(start *time.Time, what string) ozzo.Rule {
	return ozzo.By(func(value interface{}) error {
		end, _ := value.(*time.Time)
		if start == nil || end == nil {
			return nil
		}
		if end.Before(*start) {
			return errors.New("must not be before " + what)
		}
		return nil
	})
}

var nonNegative = ozzo.Min(int64(0))

// Tenant проверяет новую организацию.
func Tenant(t *model.Tenant) error {
	return ozzo.ValidateStruct(t,
		ozzo.Field(&t.Name, ozzo.Required, ozzo.Length(1, 255)),
	)
}

// User проверяет покупателя.
func User(u *model.User) error {
	return ozzo.ValidateStruct(u,
		ozzo.Field(&u.TenantID, ozzo.Required),
		ozzo.Field(&u.Email, is.EmailFormat),
		ozzo.Field(&u.Phone, ozzo.Length(0, 32)),
	)
}

// Product проверяет товар каталога.
func Product(p *model.Product) error {
	return ozzo.ValidateStruct(p,
		ozzo.Field(&p.TenantID, ozzo.Required),
		ozzo.Field(&p.SKU, ozzo.Required, ozzo.Length(1, 128)),
		ozzo.Field(&p.Name, ozzo.Required),
		ozzo.Field(&p.PriceCents, nonNegative),
	)
}

// Campaign проверяет кампанию.
func Campaign(c *model.Campaign) error {
	return ozzo.ValidateStruct(c,
		ozzo.Field(&c.TenantID, ozzo.Required),
		ozzo.Field(&c.Name, ozzo.Required),
		ozzo.Field(&c.Status, ozzo.Required, OneOf(model.CampaignStatuses)),
		ozzo.Field(&c.Target, ozzo.By(target)),
		ozzo.Field(&c.EndAt, notBefore(c.StartAt, "start_at")),
		ozzo.Field(&c.DeeplinkURL, is.URL),
	)
}

// CampaignStatus проверяет значение статуса кампании.
func CampaignStatus(s model.CampaignStatus) error {
	return ozzo.Validate(s, ozzo.Required, OneOf(model.CampaignStatuses))
}

func target(value interface{}) error {
	t, _ := value.(model.Target)
	return ozzo.ValidateStruct(&t,
		ozzo.Field(&t.Kind, ozzo.Required, OneOf(model.TargetKinds)),
	)
}

// Offer проверяет предложение. Окно действия должно быть непустым: valid_to не раньше valid_from.
func Offer(o *model.Offer) error {
	return ozzo.ValidateStruct(o,
		ozzo.Field(&o.TenantID, ozzo.Required),
		ozzo.Field(&o.Type, ozzo.Required, OneOf(model.OfferTypes)),
		ozzo.Field(&o.Benefit, ozzo.By(benefit)),
		ozzo.Field(&o.Limits, ozzo.By(limits)),
		ozzo.Field(&o.AppliesTo, ozzo.Each(ozzo.Required)),
		ozzo.Field(&o.ValidFrom, ozzo.Required),
		ozzo.Field(&o.ValidTo, ozzo.Required, ozzo.Min(o.ValidFrom).Error("must not be before valid_from")),
	)
}

func benefit(value interface{}) error {
	b, _ := value.(model.Benefit)
	return ozzo.ValidateStruct(&b,
		ozzo.Field(&b.Kind, ozzo.Required, OneOf(model.BenefitKinds)),
		ozzo.Field(&b.Value, nonNegative,
			ozzo.When(b.Kind == model.BenefitPercentage, ozzo.Max(int64(100)))),
	)
}

func limits(value interface{}) error {
	l, _ := value.(model.Limits)
	return ozzo.ValidateStruct(&l,
		ozzo.Field(&l.PerUser, nonNegative),
		ozzo.Field(&l.Total, nonNegative),
		ozzo.Field(&l.MinSpendCents, nonNegative),
	)
}

// Voucher проверяет ваучер.
func Voucher(v *model.Voucher) error {
	return ozzo.ValidateStruct(v,
		ozzo.Field(&v.TenantID, ozzo.Required),
		ozzo.Field(&v.OfferID, ozzo.Required),
		ozzo.Field(&v.UserID, ozzo.Required),
		ozzo.Field(&v.Code, ozzo.Required, ozzo.RuneLength(1, MaxVoucherCodeLength)),
		ozzo.Field(&v.State, ozzo.Required, OneOf(model.VoucherStates)),
	)
}

// VoucherState проверяет значение состояния ваучера.
func VoucherState(s model.VoucherState) error {
	return ozzo.Validate(s, ozzo.Required, OneOf(model.VoucherStates))
}

// PushNotification проверяет push-уведомление.
func PushNotification(n *model.PushNotification) error {
	return ozzo.ValidateStruct(n,
		ozzo.Field(&n.TenantID, ozzo.Required),
		ozzo.Field(&n.Payload, ozzo.By(pushPayload)),
		ozzo.Field(&n.SentAt, notBefore(n.ScheduledAt, "scheduled_at")),
	)
}

func pushPayload(value interface{}) error {
	p, _ := value.(model.PushPayload)
	return ozzo.ValidateStruct(&p,
		ozzo.Field(&p.Title, ozzo.Required),
		ozzo.Field(&p.Deeplink, is.URL),
	)
}

// Redemption проверяет погашение.
func Redemption(rd *model.Redemption) error {
	return ozzo.ValidateStruct(rd,
		ozzo.Field(&rd.TenantID, ozzo.Required),
		ozzo.Field(&rd.OfferID, ozzo.Required),
		ozzo.Field(&rd.Status, ozzo.Required, OneOf(model.RedemptionStatuses)),
	)
}

// RedemptionStatus проверяет значение статуса погашения.
func RedemptionStatus(s model.RedemptionStatus) error {
	return ozzo.Validate(s, ozzo.Required, OneOf(model.RedemptionStatuses))
}

// Transaction проверяет покупку. Чек должен содержать хотя бы одну позицию.
func Transaction(t *model.Transaction) error {
	return ozzo.ValidateStruct(t,
		ozzo.Field(&t.TenantID, ozzo.Required),
		ozzo.Field(&t.POSTxnID, ozzo.Required),
		ozzo.Field(&t.PurchasedAt, ozzo.Required),
		ozzo.Field(&t.TotalCents, nonNegative),
		ozzo.Field(&t.Currency, ozzo.Required, is.CurrencyCode),
		ozzo.Field(&t.Lines, ozzo.Required, ozzo.By(lines)),
	)
}

func lines(value interface{}) error {
	ls, _ := value.([]model.TransactionLine)
	errs := ozzo.Errors{}
	for i := range ls {
		l := ls[i]
		err := ozzo.ValidateStruct(&l,
			ozzo.Field(&l.SKU, ozzo.Required),
			ozzo.Field(&l.Qty, ozzo.Required, ozzo.Min(int64(1))),
			ozzo.Field(&l.UnitPriceCents, nonNegative),
		)
		if err != nil {
			errs[strconv.Itoa(i)] = err
		}
	}
	return errs.Filter()
}
