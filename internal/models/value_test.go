package models

import (
	"encoding/json"
	"testing"
)

func TestValueJSONIsUntagged(t *testing.T) {
	cases := []struct {
		name string
		v    Value
		want string
	}{
		{"string", StringValue("juicio"), `"juicio"`},
		{"number", NumberValue(42.5), `42.5`},
		{"bool", BoolValue(true), `true`},
		{"list", ListValue(StringValue("a"), NumberValue(1)), `["a",1]`},
		{"empty list", ListValue(), `[]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := json.Marshal(tc.v)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			if string(data) != tc.want {
				t.Fatalf("got %s, want %s", data, tc.want)
			}

			var back Value
			if err := json.Unmarshal(data, &back); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if !back.Equal(tc.v) {
				t.Fatalf("round trip: got %+v, want %+v", back, tc.v)
			}
		})
	}
}

func TestValueUnmarshalRejectsNullAndObjects(t *testing.T) {
	for _, raw := range []string{`null`, `{"a":1}`, `[null]`} {
		var v Value
		if err := json.Unmarshal([]byte(raw), &v); err == nil {
			t.Errorf("%s: expected error", raw)
		}
	}
}

func TestValueEqual(t *testing.T) {
	if StringValue("1").Equal(NumberValue(1)) {
		t.Error("cross-kind values compared equal")
	}
	if !ListValue(NumberValue(1), NumberValue(2)).Equal(ListValue(NumberValue(1), NumberValue(2))) {
		t.Error("identical lists compared unequal")
	}
	if ListValue(NumberValue(1)).Equal(ListValue(NumberValue(1), NumberValue(2))) {
		t.Error("lists of different length compared equal")
	}
	var zero Value
	if zero.Equal(BoolValue(false)) {
		t.Error("zero value compared equal to false")
	}
}
