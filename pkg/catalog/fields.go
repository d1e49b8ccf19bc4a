package catalog

import "encoding/json"

// FieldValue holds one auxiliary record field: either a trimmed scalar
// or a list split from a semicolon-delimited raw value. It serializes to
// a JSON string or array accordingly.
type FieldValue struct {
	Scalar string
	List   []string
}

// ScalarField wraps a plain string value.
func ScalarField(s string) FieldValue { return FieldValue{Scalar: s} }

// ListField wraps a multi-valued field.
func ListField(values []string) FieldValue { return FieldValue{List: values} }

// IsList reports whether the field was multi-valued in the source row.
func (v FieldValue) IsList() bool { return v.List != nil }

// Values returns the field as a list regardless of shape.
func (v FieldValue) Values() []string {
	if v.IsList() {
		return v.List
	}
	if v.Scalar == "" {
		return nil
	}
	return []string{v.Scalar}
}

func (v FieldValue) clone() FieldValue {
	if v.IsList() {
		return FieldValue{List: append([]string(nil), v.List...)}
	}
	return v
}

func (v FieldValue) MarshalJSON() ([]byte, error) {
	if v.IsList() {
		return json.Marshal(v.List)
	}
	return json.Marshal(v.Scalar)
}

func (v *FieldValue) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*v = FieldValue{List: list}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*v = FieldValue{Scalar: s}
	return nil
}
