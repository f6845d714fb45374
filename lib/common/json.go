package common

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
)

func ParseJson[T any](jsonStr *string) (T, error) {
	var obj T
	err := json.Unmarshal([]byte(*jsonStr), &obj)
	return obj, err
}

func ToJson[T any](obj T) (string, error) {
	b, err := json.Marshal(obj)
	if err != nil {
		return "", fmt.Errorf("Failed to marshal to json: %s", err.Error())
	}
	return string(b), nil
}

func ToJsonIndent[T any](obj T) (string, error) {
	b, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return "", fmt.Errorf("Failed to marshal to json: %s", err.Error())
	}
	return string(b), nil
}

func ParseDatatypesJson[T any](jsonData *datatypes.JSON) (T, error) {
	var obj T
	if jsonData == nil || len(*jsonData) == 0 {
		return obj, nil
	}
	err := json.Unmarshal(*jsonData, &obj)
	return obj, err
}
