package qdrant

import (
	"time"

	"github.com/lenslook/go-backend/internal/domain"
	"github.com/qdrant/go-client/qdrant"
)

// payloadToMap разворачивает снимок продукта в плоскую карту полезной нагрузки Qdrant.
// Отсутствующие опциональные поля не записываются.
func payloadToMap(p domain.ProductPayload) map[string]any {
	m := map[string]any{
		"id":          p.ID,
		"name":        p.Name,
		"description": p.Description,
		"images":      stringsToAny(p.Images),
		"code":        p.Code,
		"shop_id":     p.ShopID,
		"shop_name":   p.ShopName,
		"status":      p.Status,
		"region":      p.Region,
		"currency":    p.Currency,
		"update_date": p.UpdateDate.UTC().Format(time.RFC3339),
	}

	if p.Material != nil {
		m["material"] = *p.Material
	}
	if p.Rating != nil {
		m["rating"] = *p.Rating
	}
	if p.BrandID != nil {
		m["brand_id"] = *p.BrandID
	}
	if p.BrandName != nil {
		m["brand_name"] = *p.BrandName
	}
	if p.CategoryID != nil {
		m["category_id"] = *p.CategoryID
	}
	if p.CategoryName != nil {
		m["category_name"] = *p.CategoryName
	}
	if p.GenderID != nil {
		m["gender_id"] = *p.GenderID
	}
	if p.GenderName != nil {
		m["gender_name"] = *p.GenderName
	}
	if p.Link != nil {
		m["link"] = *p.Link
	}
	if len(p.Colors) > 0 {
		m["colors"] = stringsToAny(p.Colors)
	}
	if len(p.Sizes) > 0 {
		m["sizes"] = stringsToAny(p.Sizes)
	}
	if p.CurrentPrice != nil {
		m["current_price"] = *p.CurrentPrice
	}
	if p.OldPrice != nil {
		m["old_price"] = *p.OldPrice
	}
	if p.OffPercent != nil {
		m["off_percent"] = *p.OffPercent
	}

	return m
}

// payloadFromValues восстанавливает снимок продукта из полезной нагрузки точки Qdrant.
func payloadFromValues(values map[string]*qdrant.Value) domain.ProductPayload {
	p := domain.ProductPayload{
		ID:           intValue(values, "id"),
		Name:         stringValue(values, "name"),
		Description:  stringValue(values, "description"),
		Images:       stringListValue(values, "images"),
		Code:         stringValue(values, "code"),
		ShopID:       intValue(values, "shop_id"),
		ShopName:     stringValue(values, "shop_name"),
		Status:       stringValue(values, "status"),
		Region:       stringValue(values, "region"),
		Currency:     stringValue(values, "currency"),
		Material:     optStringValue(values, "material"),
		BrandID:      optIntValue(values, "brand_id"),
		BrandName:    optStringValue(values, "brand_name"),
		CategoryID:   optIntValue(values, "category_id"),
		CategoryName: optStringValue(values, "category_name"),
		GenderID:     optIntValue(values, "gender_id"),
		GenderName:   optStringValue(values, "gender_name"),
		Link:         optStringValue(values, "link"),
		Colors:       stringListValue(values, "colors"),
		Sizes:        stringListValue(values, "sizes"),
		Rating:       optDoubleValue(values, "rating"),
		CurrentPrice: optDoubleValue(values, "current_price"),
		OldPrice:     optDoubleValue(values, "old_price"),
		OffPercent:   optIntValue(values, "off_percent"),
	}

	if raw := stringValue(values, "update_date"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			p.UpdateDate = t
		}
	}

	return p
}

func stringsToAny(in []string) []any {
	out := make([]any, 0, len(in))
	for _, s := range in {
		out = append(out, s)
	}

	return out
}

func stringValue(values map[string]*qdrant.Value, key string) string {
	if v, ok := values[key]; ok {
		return v.GetStringValue()
	}

	return ""
}

func intValue(values map[string]*qdrant.Value, key string) int64 {
	if v, ok := values[key]; ok {
		return v.GetIntegerValue()
	}

	return 0
}

func optStringValue(values map[string]*qdrant.Value, key string) *string {
	if v, ok := values[key]; ok {
		s := v.GetStringValue()
		return &s
	}

	return nil
}

func optIntValue(values map[string]*qdrant.Value, key string) *int64 {
	if v, ok := values[key]; ok {
		i := v.GetIntegerValue()
		return &i
	}

	return nil
}

func optDoubleValue(values map[string]*qdrant.Value, key string) *float64 {
	v, ok := values[key]
	if !ok {
		return nil
	}

	// Целые значения, записанные как IntegerValue, тоже читаются как число.
	var f float64
	switch v.Kind.(type) {
	case *qdrant.Value_IntegerValue:
		f = float64(v.GetIntegerValue())
	default:
		f = v.GetDoubleValue()
	}

	return &f
}

func stringListValue(values map[string]*qdrant.Value, key string) []string {
	v, ok := values[key]
	if !ok {
		return nil
	}

	list := v.GetListValue()
	if list == nil {
		return nil
	}

	out := make([]string, 0, len(list.Values))
	for _, item := range list.Values {
		out = append(out, item.GetStringValue())
	}

	return out
}
