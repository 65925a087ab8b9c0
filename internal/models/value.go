package models

import (
	"encoding/json"
	"fmt"
)

type ValueKind string

const (
	KindString ValueKind = "string"
	KindNumber ValueKind = "number"
	KindBool   ValueKind = "bool"
	KindList   ValueKind = "list"
)

// Value is a closed variant for condition/consequence operands and session
// variables. Stored in Mongo in tagged form; marshals to plain JSON values
// on the API surface.
type Value struct {
	Kind ValueKind `bson:"kind"`
	Str  string    `bson:"str,omitempty"`
	Num  float64   `bson:"num,omitempty"`
	Bool bool      `bson:"bool,omitempty"`
	List []Value   `bson:"list,omitempty"`
}

func StringValue(s string) Value  { return Value{Kind: KindString, Str: s} }
func NumberValue(n float64) Value { return Value{Kind: KindNumber, Num: n} }
func BoolValue(b bool) Value      { return Value{Kind: KindBool, Bool: b} }
func ListValue(vs ...Value) Value { return Value{Kind: KindList, List: vs} }

// Equal compares two values by kind and content.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindString:
		return v.Str == o.Str
	case KindNumber:
		return v.Num == o.Num
	case KindBool:
		return v.Bool == o.Bool
	case KindList:
		if len(v.List) != len(o.List) {
			return false
		}
		for i := range v.List {
			if !v.List[i].Equal(o.List[i]) {
				return false
			}
		}
		return true
	}
	return false
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindString:
		return json.Marshal(v.Str)
	case KindNumber:
		return json.Marshal(v.Num)
	case KindBool:
		return json.Marshal(v.Bool)
	case KindList:
		if v.List == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.List)
	}
	return []byte("null"), nil
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := valueFromAny(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func valueFromAny(raw any) (Value, error) {
	switch t := raw.(type) {
	case string:
		return StringValue(t), nil
	case float64:
		return NumberValue(t), nil
	case bool:
		return BoolValue(t), nil
	case []any:
		list := make([]Value, 0, len(t))
		for _, item := range t {
			v, err := valueFromAny(item)
			if err != nil {
				return Value{}, err
			}
			list = append(list, v)
		}
		return Value{Kind: KindList, List: list}, nil
	case nil:
		return Value{}, fmt.Errorf("null is not a valid value")
	}
	return Value{}, fmt.Errorf("unsupported value type %T", raw)
}

// Condition operators understood by the eligibility resolver.
const (
	OpEq    = "eq"
	OpNe    = "ne"
	OpGt    = "gt"
	OpLt    = "lt"
	OpGte   = "gte"
	OpLte   = "lte"
	OpIn    = "in"
	OpNotIn = "not_in"
)

// Condition gates visibility of a node or response against the session
// variable bag.
type Condition struct {
	Variable string `bson:"variable" json:"variable"`
	Operator string `bson:"operator" json:"operator"`
	Value    Value  `bson:"value" json:"value"`
}

// Consequence operations applied to the variable bag when a response is taken.
const (
	ConsequenceSet      = "set"
	ConsequenceAdd      = "add"
	ConsequenceSubtract = "subtract"
	ConsequenceMultiply = "multiply"
	ConsequenceDivide   = "divide"
)

// Consequence mutates one named variable. Consequences on a response are
// applied in declaration order.
type Consequence struct {
	Operation string `bson:"operation" json:"operation"`
	Variable  string `bson:"variable" json:"variable"`
	Value     Value  `bson:"value" json:"value"`
}
