package model

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Extra хранит ключи структурированного поля, которые не описаны в его Go-типе.
// Значения сохраняются как есть, поэтому документ проходит через хранилище без потерь.
type Extra map[string]json.RawMessage

// decodeDocument раскладывает JSON-объект data в известные поля dst, а остальные ключи
// возвращает в Extra. Известные ключи сравниваются без учёта регистра, как в encoding/json.
func decodeDocument(data []byte, dst any, known ...string) (Extra, error) {
	if err := json.Unmarshal(data, dst); err != nil {
		return nil, err
	}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, nil
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}

	var extra Extra
	for k, v := range all {
		if isKnown(k, known) {
			continue
		}
		if extra == nil {
			extra = make(Extra)
		}
		extra[k] = v
	}
	return extra, nil
}

func isKnown(key string, known []string) bool {
	for _, k := range known {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}

// encodeDocument кодирует известные поля src и дописывает к ним ключи из extra.
// Известное поле имеет приоритет над одноимённым ключом extra.
func encodeDocument(src any, extra Extra) ([]byte, error) {
	data, err := json.Marshal(src)
	if err != nil || len(extra) == 0 {
		return data, err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for k, v := range extra {
		if _, ok := all[k]; !ok {
			all[k] = v
		}
	}
	return json.Marshal(all)
}

// UnmarshalJSON декодирует атрибуты, сохраняя числа как json.Number без потери точности.
func (a *Attributes) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return err
	}
	*a = m
	return nil
}

func (t Target) MarshalJSON() ([]byte, error) {
	type plain Target
	return encodeDocument(plain(t), t.Extra)
}

func (t *Target) UnmarshalJSON(data []byte) error {
	type plain Target
	var p plain
	extra, err := decodeDocument(data, &p, "type", "segment", "ids")
	if err != nil {
		return err
	}
	*t = Target(p)
	t.Extra = extra
	return nil
}

func (b Benefit) MarshalJSON() ([]byte, error) {
	type plain Benefit
	return encodeDocument(plain(b), b.Extra)
}

func (b *Benefit) UnmarshalJSON(data []byte) error {
	type plain Benefit
	var p plain
	extra, err := decodeDocument(data, &p, "kind", "value")
	if err != nil {
		return err
	}
	*b = Benefit(p)
	b.Extra = extra
	return nil
}

func (l Limits) MarshalJSON() ([]byte, error) {
	type plain Limits
	return encodeDocument(plain(l), l.Extra)
}

func (l *Limits) UnmarshalJSON(data []byte) error {
	type plain Limits
	var p plain
	extra, err := decodeDocument(data, &p, "per_user", "total", "min_spend_cents")
	if err != nil {
		return err
	}
	*l = Limits(p)
	l.Extra = extra
	return nil
}

func (p PushPayload) MarshalJSON() ([]byte, error) {
	type plain PushPayload
	return encodeDocument(plain(p), p.Extra)
}

func (p *PushPayload) UnmarshalJSON(data []byte) error {
	type plain PushPayload
	var v plain
	extra, err := decodeDocument(data, &v, "title", "body", "deeplink")
	if err != nil {
		return err
	}
	*p = PushPayload(v)
	p.Extra = extra
	return nil
}

func (l TransactionLine) MarshalJSON() ([]byte, error) {
	type plain TransactionLine
	return encodeDocument(plain(l), l.Extra)
}

func (l *TransactionLine) UnmarshalJSON(data []byte) error {
	type plain TransactionLine
	var p plain
	extra, err := decodeDocument(data, &p, "sku", "qty", "unit_price_cents")
	if err != nil {
		return err
	}
	*l = TransactionLine(p)
	l.Extra = extra
	return nil
}

func (a Attribution) MarshalJSON() ([]byte, error) {
	type plain Attribution
	return encodeDocument(plain(a), a.Extra)
}

func (a *Attribution) UnmarshalJSON(data []byte) error {
	type plain Attribution
	var p plain
	extra, err := decodeDocument(data, &p, "campaign_id", "offer_id", "redemption_id")
	if err != nil {
		return err
	}
	*a = Attribution(p)
	a.Extra = extra
	return nil
}
