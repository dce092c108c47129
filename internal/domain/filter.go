package domain

import (
	"fmt"

	"github.com/lenslook/go-backend/pkg/e"
)

// Operation — операция фильтрации атрибутов.
// Неизвестные операции отклоняются на этапе конструирования, а не в глубине запроса.
type Operation string

const (
	OpEq  Operation = "eq"
	OpGt  Operation = "gt"
	OpGte Operation = "gte"
	OpLt  Operation = "lt"
	OpLte Operation = "lte"
)

const (
	// FieldSearchText — маркер текстового запроса: клауза с этим полем
	// направляется кодировщику, а не в дерево предикатов.
	FieldSearchText = "search_text"

	// FieldPrice — выделенное ценовое поле: все диапазонные клаузы по нему
	// сливаются в один диапазонный предикат.
	FieldPrice = "current_price"
)

// IsRange сообщает, является ли операция диапазонной (gt/gte/lt/lte).
func (op Operation) IsRange() bool {
	switch op {
	case OpGt, OpGte, OpLt, OpLte:
		return true
	default:
		return false
	}
}

// ParseOperation валидирует строковое представление операции.
func ParseOperation(s string) (Operation, error) {
	switch Operation(s) {
	case OpEq, OpGt, OpGte, OpLt, OpLte:
		return Operation(s), nil
	default:
		return "", e.Wrap(fmt.Sprintf("operation %q", s), e.ErrUnsupportedOperation)
	}
}

// FilterClause — одна клауза фильтра: поле, операция и скалярное значение.
// Несколько диапазонных клауз по одному полю семантически объединяются
// в один ограниченный диапазон при трансляции.
type FilterClause struct {
	Field string
	Op    Operation
	Value any
}

// NewFilterClause создает клаузу, отклоняя неизвестные операции.
func NewFilterClause(field string, op string, value any) (*FilterClause, error) {
	parsed, err := ParseOperation(op)
	if err != nil {
		return nil, err
	}

	return &FilterClause{
		Field: field,
		Op:    parsed,
		Value: value,
	}, nil
}
