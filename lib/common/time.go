package common

import (
	"time"
)

const DATETIME_FORMAT = "2006-01-02T15:04:05"

func ParseDatetimeToStr(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(DATETIME_FORMAT)
}

func GetNow() time.Time {
	return time.Now()
}

func GetNowStr() string {
	now := GetNow()
	return ParseDatetimeToStr(&now)
}
