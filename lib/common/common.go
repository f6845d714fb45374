package common

import (
	"reflect"
	"strconv"
	"unicode/utf8"

	"github.com/google/uuid"
)

func StrToUint(strNum string) uint {
	num, err := strconv.ParseUint(strNum, 10, 0)
	if err != nil {
		return 0
	}
	return uint(num)
}

func CountUTF8Chars(s string) int {
	return utf8.RuneCountInString(s)
}

func GenUUID() *string {
	u := uuid.New().String()
	return &u
}

func IsEmpty(val any) bool {
	if val == nil {
		return true
	}
	if IsNumeric(val) {
		return false
	}
	switch v := reflect.ValueOf(val); v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return false
	default:
		return reflect.DeepEqual(val, reflect.Zero(reflect.TypeOf(val)).Interface())
	}
}

func IsNumeric(val any) bool {
	switch val.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, uintptr,
		float32, float64, complex64, complex128:
		return true
	default:
		return false
	}
}
