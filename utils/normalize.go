package utils

import (
	"reflect"
	"strings"

	"github.com/shopspring/decimal"
)

var decimalType = reflect.TypeOf(decimal.Decimal{})

// NormalizePtrDTO trims *string fields and rounds *decimal.Decimal fields on a pointer-to-struct DTO.
// Only non-nil pointer fields are touched; nils stay nil so GORM won't update them.
func NormalizePtrDTO(dto any) {
	s, ok := structElem(dto)
	if !ok {
		return
	}
	for i := 0; i < s.NumField(); i++ {
		f := s.Field(i)
		if f.Kind() != reflect.Ptr || f.IsNil() || !f.CanSet() {
			continue
		}
		normalizeValue(f.Elem())
	}
}

// NormalizeDTO trims string fields and rounds decimal fields on a pointer-to-struct DTO.
// Nested structs and slices of structs (e.g. line entries) are normalized too.
func NormalizeDTO(dto any) {
	s, ok := structElem(dto)
	if !ok {
		return
	}
	normalizeStruct(s)
}

func normalizeStruct(s reflect.Value) {
	for i := 0; i < s.NumField(); i++ {
		f := s.Field(i)
		if !f.CanSet() {
			continue
		}
		switch {
		case f.Kind() == reflect.Ptr && !f.IsNil():
			normalizeValue(f.Elem())
		case f.Kind() == reflect.Slice:
			for j := 0; j < f.Len(); j++ {
				normalizeValue(f.Index(j))
			}
		default:
			normalizeValue(f)
		}
	}
}

func normalizeValue(v reflect.Value) {
	switch {
	case v.Type() == decimalType:
		v.Set(reflect.ValueOf(Round2(v.Interface().(decimal.Decimal))))
	case v.Kind() == reflect.String:
		v.SetString(strings.TrimSpace(v.String()))
	case v.Kind() == reflect.Struct:
		normalizeStruct(v)
	}
}

func structElem(dto any) (reflect.Value, bool) {
	v := reflect.ValueOf(dto)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return reflect.Value{}, false
	}
	s := v.Elem()
	return s, s.Kind() == reflect.Struct
}
