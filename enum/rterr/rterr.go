package rterr

import (
	"fmt"

	"github.com/t-kawata/intelligraph/config"
)

type err struct {
	code uint16
	msg  string
}

var (
	BadRequest          = err{code: 1, msg: "Bad Request."}
	Unauthorized        = err{code: 2, msg: "Failed to authenticate."}
	Forbidden           = err{code: 3, msg: "Forbidden."}
	NotFound            = err{code: 4, msg: "Not Found."}
	SystemError         = err{code: 5, msg: "System error."}
	InternalServerError = err{code: 6, msg: "Internal Server Error."}
	Required            = err{code: 7, msg: "This field is required."}
	Number              = err{code: 8, msg: "This field must be a number."}
	Regexp              = err{code: 9, msg: "This field must be match the correct format: %s"}
	Email               = err{code: 10, msg: "This field must be email format."}
	Min                 = err{code: 11, msg: "This field must be at least %s characters."}
	Max                 = err{code: 12, msg: "This field must be %s characters or less."}
	Password            = err{code: 13, msg: fmt.Sprintf("This field must be match the correct password format: %s", config.PW_REGEXP)}
	HttpUrl             = err{code: 14, msg: "This field must be http url format."}
	Oneof               = err{code: 15, msg: "This field must match one of (%s)."}
	Gte                 = err{code: 16, msg: "This field must be greater than or equal to %s."}
	Lte                 = err{code: 17, msg: "This field must be less than or equal to %s."}
	Boolean             = err{code: 18, msg: "This field must be boolean format."}
	CollectionName      = err{code: 19, msg: fmt.Sprintf("This field must be match the correct collection name format: %s", config.COLLECTION_NAME_REGEXP)}
	AlreadyRunning      = err{code: 20, msg: "Indexing is already in progress for this collection."}
	NoInput             = err{code: 21, msg: "No ingestible documents found in this collection."}
)

func (e *err) Code() uint16 {
	return e.code
}

func (e *err) Msg() string {
	return e.msg
}
