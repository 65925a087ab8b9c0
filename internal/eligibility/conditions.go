package eligibility

import "dialogue-service/internal/models"

// EvaluateAll reports whether every condition holds against the variable
// bag. An empty condition list always holds, which matches the historical
// behavior of dialogues authored without conditions.
func EvaluateAll(conditions []models.Condition, vars map[string]models.Value) bool {
	for _, c := range conditions {
		if !Evaluate(c, vars) {
			return false
		}
	}
	return true
}

// Evaluate checks a single condition. A condition on an unset variable fails,
// except the negative operators (ne, not_in) which hold vacuously. Ordering
// operators require both sides to be numbers.
func Evaluate(c models.Condition, vars map[string]models.Value) bool {
	current, ok := vars[c.Variable]
	if !ok {
		return c.Operator == models.OpNe || c.Operator == models.OpNotIn
	}
	switch c.Operator {
	case models.OpEq:
		return current.Equal(c.Value)
	case models.OpNe:
		return !current.Equal(c.Value)
	case models.OpGt:
		return bothNumbers(current, c.Value) && current.Num > c.Value.Num
	case models.OpLt:
		return bothNumbers(current, c.Value) && current.Num < c.Value.Num
	case models.OpGte:
		return bothNumbers(current, c.Value) && current.Num >= c.Value.Num
	case models.OpLte:
		return bothNumbers(current, c.Value) && current.Num <= c.Value.Num
	case models.OpIn:
		return contains(c.Value, current)
	case models.OpNotIn:
		return !contains(c.Value, current)
	}
	// unknown operator: treat as not satisfied rather than guessing
	return false
}

func bothNumbers(a, b models.Value) bool {
	return a.Kind == models.KindNumber && b.Kind == models.KindNumber
}

func contains(list models.Value, v models.Value) bool {
	if list.Kind != models.KindList {
		return false
	}
	for _, item := range list.List {
		if item.Equal(v) {
			return true
		}
	}
	return false
}
