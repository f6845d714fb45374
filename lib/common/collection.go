package common

func InArray[T comparable](val *T, arr *[]T) bool {
	if arr == nil {
		return false
	}
	if len(*arr) == 0 {
		return false
	}
	for _, item := range *arr {
		if item == *val {
			return true
		}
	}
	return false
}
