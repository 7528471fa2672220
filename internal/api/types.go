// types.go defines the JSON wire shapes the HTTP surface accepts and
// returns. They stand in for the structured requests a SQL parser
// would otherwise hand the engine directly.
package api

import (
	"fmt"

	"github.com/cabewaldrop/microdb/internal/catalog"
	"github.com/cabewaldrop/microdb/internal/record"
)

// FieldSpec is one field of a CreateTableRequest's schema.
type FieldSpec struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

func (f FieldSpec) toFieldInfo() (catalog.FieldInfo, error) {
	dt, err := parseDataType(f.Type)
	if err != nil {
		return catalog.FieldInfo{}, err
	}
	return catalog.FieldInfo{Name: f.Name, Type: dt}, nil
}

// CreateTableRequest is the body of POST /tables.
type CreateTableRequest struct {
	Name   string      `json:"name"`
	Fields []FieldSpec `json:"fields"`
}

// FieldValue is one field's value in an InsertRequest or a Record
// response, carrying exactly one of IntValue/StringValue depending on
// Type.
type FieldValue struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	IntValue    int64  `json:"intValue,omitempty"`
	StringValue string `json:"stringValue,omitempty"`
}

func (v FieldValue) toFieldData() (record.FieldData, error) {
	dt, err := parseDataType(v.Type)
	if err != nil {
		return record.FieldData{}, err
	}
	return record.FieldData{Name: v.Name, Type: dt, IntValue: v.IntValue, StringValue: v.StringValue}, nil
}

func fieldDataToValue(fd record.FieldData) FieldValue {
	return FieldValue{
		Name:        fd.Name,
		Type:        fd.Type.String(),
		IntValue:    fd.IntValue,
		StringValue: fd.StringValue,
	}
}

// InsertRequest is the body of POST /tables/{name}/rows.
type InsertRequest struct {
	Values []FieldValue `json:"values"`
}

// ConditionRequest is the predicate body shared by select and delete
// requests.
type ConditionRequest struct {
	FieldName   string `json:"fieldName"`
	Type        string `json:"type"`
	Operator    string `json:"operator"`
	IntValue    int64  `json:"intValue,omitempty"`
	StringValue string `json:"stringValue,omitempty"`
	Distinct    bool   `json:"distinct,omitempty"`
}

func (c ConditionRequest) toCondition() (record.Condition, error) {
	dt, err := parseDataType(c.Type)
	if err != nil {
		return record.Condition{}, err
	}
	op, err := parseOperator(c.Operator)
	if err != nil {
		return record.Condition{}, err
	}
	return record.Condition{
		FieldName:   c.FieldName,
		Type:        dt,
		Operator:    op,
		IntValue:    c.IntValue,
		StringValue: c.StringValue,
		Distinct:    c.Distinct,
	}, nil
}

// SelectResponse is the body returned by POST /tables/{name}/query.
type SelectResponse struct {
	Records [][]FieldValue `json:"records"`
}

func recordSetToResponse(rs record.RecordSet) SelectResponse {
	out := make([][]FieldValue, len(rs.Records))
	for i, rec := range rs.Records {
		values := make([]FieldValue, len(rec.Fields))
		for j, fd := range rec.Fields {
			values[j] = fieldDataToValue(fd)
		}
		out[i] = values
	}
	return SelectResponse{Records: out}
}

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Error string `json:"error"`
}

func parseDataType(s string) (catalog.DataType, error) {
	switch s {
	case "INTEGER":
		return catalog.TypeInteger, nil
	case "STRING":
		return catalog.TypeString, nil
	default:
		return catalog.TypeUnknown, fmt.Errorf("unknown field type %q", s)
	}
}

func parseOperator(s string) (record.Operator, error) {
	switch s {
	case "=":
		return record.OpEqual, nil
	case "!=":
		return record.OpNotEqual, nil
	case ">":
		return record.OpGreaterThan, nil
	case "<":
		return record.OpLessThan, nil
	default:
		return 0, fmt.Errorf("unknown operator %q", s)
	}
}
