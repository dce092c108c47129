package qdrant

import (
	"fmt"
	"math"

	"github.com/lenslook/go-backend/internal/domain"
	"github.com/lenslook/go-backend/pkg/e"
	"github.com/qdrant/go-client/qdrant"
)

// TranslateFilters транслирует клаузы фильтра в дерево предикатов Qdrant.
// Клаузы по полю search_text пропускаются: текст запроса кодируется в вектор
// и не участвует в фильтрации. Диапазонные клаузы по одному полю сливаются
// в один диапазонный предикат. Пустой результат возвращается как nil.
func TranslateFilters(clauses []domain.FilterClause) (*qdrant.Filter, error) {
	if len(clauses) == 0 {
		return nil, nil
	}

	var (
		matches     []*qdrant.Condition
		ranges      = make(map[string]*qdrant.Range)
		rangeFields []string // порядок первого появления поля
	)

	for _, clause := range clauses {
		if clause.Field == domain.FieldSearchText {
			continue
		}

		if clause.Op.IsRange() {
			// Nil-значение границы означает отсутствие ограничения с этой стороны.
			if clause.Value == nil {
				continue
			}

			bound, err := numericValue(clause)
			if err != nil {
				return nil, err
			}

			r, ok := ranges[clause.Field]
			if !ok {
				r = &qdrant.Range{}
				ranges[clause.Field] = r
				rangeFields = append(rangeFields, clause.Field)
			}

			switch clause.Op {
			case domain.OpGt:
				r.Gt = &bound
			case domain.OpGte:
				r.Gte = &bound
			case domain.OpLt:
				r.Lt = &bound
			case domain.OpLte:
				r.Lte = &bound
			}

			continue
		}

		cond, err := matchCondition(clause)
		if err != nil {
			return nil, err
		}

		matches = append(matches, cond)
	}

	conditions := matches
	for _, field := range rangeFields {
		conditions = append(conditions, qdrant.NewRange(field, ranges[field]))
	}

	if len(conditions) == 0 {
		return nil, nil
	}

	return &qdrant.Filter{Must: conditions}, nil
}

// matchCondition строит предикат точного совпадения для eq-клаузы.
// Дробные значения для eq отклоняются: точное сравнение чисел с плавающей
// точкой в хранилище не поддерживается.
func matchCondition(clause domain.FilterClause) (*qdrant.Condition, error) {
	switch v := clause.Value.(type) {
	case string:
		return qdrant.NewMatch(clause.Field, v), nil
	case bool:
		return qdrant.NewMatchBool(clause.Field, v), nil
	case int:
		return qdrant.NewMatchInt(clause.Field, int64(v)), nil
	case int64:
		return qdrant.NewMatchInt(clause.Field, v), nil
	case float64:
		if v != math.Trunc(v) {
			return nil, e.Wrap(fmt.Sprintf("field %q: eq with fractional value %v", clause.Field, v), e.ErrInvalidFilterValue)
		}

		return qdrant.NewMatchInt(clause.Field, int64(v)), nil
	default:
		return nil, e.Wrap(fmt.Sprintf("field %q: unsupported value type %T", clause.Field, clause.Value), e.ErrInvalidFilterValue)
	}
}

// numericValue извлекает числовую границу диапазонной клаузы.
func numericValue(clause domain.FilterClause) (float64, error) {
	switch v := clause.Value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, e.Wrap(fmt.Sprintf("field %q: range bound must be numeric, got %T", clause.Field, clause.Value), e.ErrInvalidFilterValue)
	}
}
