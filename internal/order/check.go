package order

import (
	"bytes"
	"encoding/json"
)

// Check is the pre-flight structural check run before assembly. It verifies
// that the record has a recognised container key and that the header fields,
// the customer block and the product list exist with the right JSON types.
// Records of the quasi-invoiced shape must also carry a "totalen" object with
// all three total fields.
//
// Every failure wraps ErrStructuralValidation. Check has no side effects.
func Check(raw []byte) error {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return structural("$", nil, "record is not a JSON object")
	}

	shape := DetectShape(top)
	if shape == ShapeUnknown {
		return structural("order|factuur", nil, ErrUnknownShape.Error())
	}
	f := shape.fields()

	var body map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader(top[f.container]))
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil || body == nil {
		return structural(f.container, nil, "must be an object")
	}

	at := func(key string) string { return f.container + "." + key }

	if !isScalar(body[f.number]) {
		return structural(at(f.number), body[f.number], "must be a string or number")
	}
	for _, key := range []string{f.date, keyPaymentTerm} {
		if _, ok := body[key].(string); !ok {
			return structural(at(key), body[key], "must be a string")
		}
	}
	if _, ok := body[keyCustomer].(map[string]interface{}); !ok {
		return structural(at(keyCustomer), nil, "must be an object")
	}

	products, ok := body[keyProducts].([]interface{})
	if !ok {
		return structural(at(keyProducts), nil, "must be a list")
	}
	for _, p := range products {
		if _, ok := p.(map[string]interface{}); !ok {
			return structural(at(keyProducts), p, "entries must be objects")
		}
	}

	if shape == ShapeAmountBased {
		totals, ok := body[keyTotals].(map[string]interface{})
		if !ok {
			return structural(at(keyTotals), nil, "must be an object")
		}
		for _, key := range totalKeys {
			if !isScalar(totals[key]) {
				return structural(at(keyTotals)+"."+key, totals[key], "required")
			}
		}
	}

	return nil
}

// Validate reports whether raw passes Check.
func Validate(raw []byte) bool {
	return Check(raw) == nil
}

func isScalar(v interface{}) bool {
	switch s := v.(type) {
	case json.Number:
		return true
	case string:
		return s != ""
	default:
		return false
	}
}
