package domain

import "time"

// VectorSize — размерность векторов изображений и текста (CLIP ViT-B/32).
const VectorSize = 512

// ProductPayload — неизменяемый снимок атрибутов одного продукта каталога.
// Опциональные поля представлены указателями и могут отсутствовать.
type ProductPayload struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Material     *string   `json:"material,omitempty"`
	Rating       *float64  `json:"rating,omitempty"`
	Images       []string  `json:"images"`
	Code         string    `json:"code"`
	BrandID      *int64    `json:"brand_id,omitempty"`
	BrandName    *string   `json:"brand_name,omitempty"`
	CategoryID   *int64    `json:"category_id,omitempty"`
	CategoryName *string   `json:"category_name,omitempty"`
	GenderID     *int64    `json:"gender_id,omitempty"`
	GenderName   *string   `json:"gender_name,omitempty"`
	ShopID       int64     `json:"shop_id"`
	ShopName     string    `json:"shop_name"`
	Link         *string   `json:"link,omitempty"`
	Status       string    `json:"status"`
	Colors       []string  `json:"colors,omitempty"`
	Sizes        []string  `json:"sizes,omitempty"`
	Region       string    `json:"region"`
	Currency     string    `json:"currency"`
	CurrentPrice *float64  `json:"current_price,omitempty"`
	OldPrice     *float64  `json:"old_price,omitempty"`
	OffPercent   *int64    `json:"off_percent,omitempty"`
	UpdateDate   time.Time `json:"update_date"`
}

// ProductPoint описывает запись векторного хранилища: идентификатор продукта,
// вектор его главного изображения и снимок атрибутов.
// Идентификатор продукта переиспользуется как id точки, что делает
// повторную загрузку идемпотентной (create-or-replace).
// Инвариант: ненулевой Vector имеет длину VectorSize.
type ProductPoint struct {
	ID      int64          `json:"id"`
	Vector  []float32      `json:"vector,omitempty"`
	Payload ProductPayload `json:"payload"`
}

func NewProductPoint(id int64, vector []float32, payload ProductPayload) *ProductPoint {
	return &ProductPoint{
		ID:      id,
		Vector:  vector,
		Payload: payload,
	}
}
