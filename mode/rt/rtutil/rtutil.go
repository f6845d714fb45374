package rtutil

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/iancoleman/strcase"
	"github.com/t-kawata/intelligraph/config"
	"github.com/t-kawata/intelligraph/enum/rterr"
	"github.com/t-kawata/intelligraph/lib/eventbus"
	"github.com/t-kawata/intelligraph/lib/httpclient"
	"github.com/t-kawata/intelligraph/mode/rt/rtres"
	"github.com/t-kawata/intelligraph/pkg/docstore"
	"github.com/t-kawata/intelligraph/pkg/graphrag/ingestion"
	"github.com/t-kawata/intelligraph/pkg/graphrag/jobs"
	"github.com/t-kawata/intelligraph/pkg/graphrag/query"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RtUtil struct {
	Logger       *zap.Logger
	Env          *config.Env
	Client       *httpclient.HttpClient
	DB           *gorm.DB
	SKey         string
	Store        *docstore.Store
	Tracker      *jobs.Tracker
	Orchestrator *query.Orchestrator
	Pipeline     *ingestion.Pipeline
	Bus          *eventbus.EventBus
	Hostname     *string
}

type JwtUsr struct {
	UsrID   *uint
	Email   string
	IsStaff bool
	Exp     time.Time
}

var (
	RegexpChecker = func(str string, exp string) bool {
		re := regexp.MustCompile(exp)
		return re.MatchString(str)
	}
	IsJwtFormat = func(str string) bool {
		return RegexpChecker(str, "^[A-Za-z0-9-_]+\\.[A-Za-z0-9-_]+\\.[A-Za-z0-9-_]*$")
	}
	RegexpValidator = func() validator.Func {
		return func(fl validator.FieldLevel) bool {
			if f, ok := fl.Field().Interface().(string); ok {
				if len(f) == 0 {
					return true
				}
				p := fl.Param()
				return RegexpChecker(f, p)
			}
			return false
		}
	}
	PasswordValidator = func() validator.Func {
		return func(fl validator.FieldLevel) bool {
			if f, ok := fl.Field().Interface().(string); ok {
				if len(f) == 0 {
					return true
				}
				return RegexpChecker(f, config.PW_REGEXP)
			}
			return false
		}
	}
	EmailValidator = func() validator.Func {
		return func(fl validator.FieldLevel) bool {
			if f, ok := fl.Field().Interface().(string); ok {
				if len(f) == 0 {
					return true
				}
				return RegexpChecker(f, "^(?:(?:(?:(?:[a-zA-Z]|\\d|[!#\\$%&'\\*\\+\\-\\/=\\?\\^_`{\\|}~]|[\\x{00A0}-\\x{D7FF}\\x{F900}-\\x{FDCF}\\x{FDF0}-\\x{FFEF}])+(?:\\.([a-zA-Z]|\\d|[!#\\$%&'\\*\\+\\-\\/=\\?\\^_`{\\|}~]|[\\x{00A0}-\\x{D7FF}\\x{F900}-\\x{FDCF}\\x{FDF0}-\\x{FFEF}])+)*)|(?:(?:\\x22)(?:(?:(?:(?:\\x20|\\x09)*(?:\\x0d\\x0a))?(?:\\x20|\\x09)+)?(?:(?:[\\x01-\\x08\\x0b\\x0c\\x0e-\\x1f\\x7f]|\\x21|[\\x23-\\x5b]|[\\x5d-\\x7e]|[\\x{00A0}-\\x{D7FF}\\x{F900}-\\x{FDCF}\\x{FDF0}-\\x{FFEF}])|(?:(?:[\\x01-\\x09\\x0b\\x0c\\x0d-\\x7f]|[\\x{00A0}-\\x{D7FF}\\x{F900}-\\x{FDCF}\\x{FDF0}-\\x{FFEF}]))))*(?:(?:(?:\\x20|\\x09)*(?:\\x0d\\x0a))?(\\x20|\\x09)+)?(?:\\x22))))@(?:(?:(?:[a-zA-Z]|\\d|[\\x{00A0}-\\x{D7FF}\\x{F900}-\\x{FDCF}\\x{FDF0}-\\x{FFEF}])|(?:(?:[a-zA-Z]|\\d|[\\x{00A0}-\\x{D7FF}\\x{F900}-\\x{FDCF}\\x{FDF0}-\\x{FFEF}])(?:[a-zA-Z]|\\d|-|\\.|~|[\\x{00A0}-\\x{D7FF}\\x{F900}-\\x{FDCF}\\x{FDF0}-\\x{FFEF}])*(?:[a-zA-Z]|\\d|[\\x{00A0}-\\x{D7FF}\\x{F900}-\\x{FDCF}\\x{FDF0}-\\x{FFEF}])))\\.)+(?:(?:[a-zA-Z]|[\\x{00A0}-\\x{D7FF}\\x{F900}-\\x{FDCF}\\x{FDF0}-\\x{FFEF}])|(?:(?:[a-zA-Z]|[\\x{00A0}-\\x{D7FF}\\x{F900}-\\x{FDCF}\\x{FDF0}-\\x{FFEF}])(?:[a-zA-Z]|\\d|-|\\.|~|[\\x{00A0}-\\x{D7FF}\\x{F900}-\\x{FDCF}\\x{FDF0}-\\x{FFEF}])*(?:[a-zA-Z]|[\\x{00A0}-\\x{D7FF}\\x{F900}-\\x{FDCF}\\x{FDF0}-\\x{FFEF}])))\\.?$")
			}
			return false
		}
	}
	HttpUrlValidator = func() validator.Func {
		return func(fl validator.FieldLevel) bool {
			if f, ok := fl.Field().Interface().(string); ok {
				if len(f) == 0 {
					return true
				}
				return RegexpChecker(f, `^https?://[\w/:%#\$&\?\(\)~\.=\+\-]+$`)
			}
			return false
		}
	}
	CollectionNameValidator = func() validator.Func {
		return func(fl validator.FieldLevel) bool {
			if f, ok := fl.Field().Interface().(string); ok {
				if len(f) == 0 {
					return true
				}
				return RegexpChecker(f, config.COLLECTION_NAME_REGEXP)
			}
			return false
		}
	}
)

func (u *RtUtil) HashPassword(password string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return ""
	}
	return string(hash)
}

func (u *RtUtil) IsEqualHashAndPassword(hash string, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func (u *RtUtil) GetRequestID(c *gin.Context) (requestID *string) {
	rID := ""
	requestID = &rID
	v, ok := c.Get("RequestID")
	if !ok || v == nil {
		*requestID = ""
		return
	}
	rID, ok = v.(string)
	if !ok {
		*requestID = ""
		return
	}
	requestID = &rID
	return
}

func (u *RtUtil) GetToken(c *gin.Context) string {
	a := c.Request.Header.Get("Authorization")
	if !u.RegexpChecker(a, "^Bearer +.+$") || len(a) <= 7 {
		return ""
	}
	return a[7:]
}

func (u *RtUtil) GetValidationErrs(err error) []rtres.Err {
	rtn := []rtres.Err{}
	if err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range ve {
				code, msg := CreateCodeMsg(fe.Tag(), fe.Param())
				rtn = append(rtn, rtres.Err{Field: strcase.ToSnake(fe.Field()), Code: code, Message: msg})
			}
		} else {
			rtn = append(rtn, rtres.Err{Field: "system", Code: 9999, Message: "Any of the parameters sent may have fatal formatting errors."})
		}
	}
	return rtn
}

func (u *RtUtil) RegexpChecker(str string, exp string) bool {
	re := regexp.MustCompile(exp)
	return re.MatchString(str)
}

func (j *JwtUsr) IsOwnerOf(ownerID uint) bool {
	return j.UsrID != nil && *j.UsrID == ownerID
}

func GenerateToken(skey string, lifeTime uint, u *JwtUsr) (string, error) {
	claims := jwt.MapClaims{
		"usr_id":   u.UsrID,
		"email":    u.Email,
		"is_staff": u.IsStaff,
		"exp":      time.Now().Add(time.Hour * time.Duration(lifeTime)).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(skey))
	if err != nil {
		return "", err
	}
	return tokenString, nil
}

func GetToken(c *gin.Context) string {
	a := c.Request.Header.Get("Authorization")
	if !RegexpChecker(a, "^Bearer +.+$") || len(a) <= 7 {
		return ""
	}
	return a[7:]
}

func ParseToken(skey string, tokenString string) (*jwt.Token, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("Unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(skey), nil
	})
	if err != nil {
		return nil, err
	}
	return token, nil
}

func CreateCodeMsg(tag string, param string) (uint16, string) {
	switch tag {
	case "required":
		return rterr.Required.Code(), rterr.Required.Msg()
	case "number":
		return rterr.Number.Code(), rterr.Number.Msg()
	case "regexp":
		return rterr.Regexp.Code(), fmt.Sprintf(rterr.Regexp.Msg(), param)
	case "email":
		return rterr.Email.Code(), rterr.Email.Msg()
	case "min":
		return rterr.Min.Code(), fmt.Sprintf(rterr.Min.Msg(), param)
	case "max":
		return rterr.Max.Code(), fmt.Sprintf(rterr.Max.Msg(), param)
	case "password":
		return rterr.Password.Code(), rterr.Password.Msg()
	case "http_url":
		return rterr.HttpUrl.Code(), rterr.HttpUrl.Msg()
	case "oneof":
		return rterr.Oneof.Code(), fmt.Sprintf(rterr.Oneof.Msg(), strings.ReplaceAll(param, " ", ", "))
	case "gte":
		return rterr.Gte.Code(), fmt.Sprintf(rterr.Gte.Msg(), param)
	case "lte":
		return rterr.Lte.Code(), fmt.Sprintf(rterr.Lte.Msg(), param)
	case "boolean":
		return rterr.Boolean.Code(), rterr.Boolean.Msg()
	case "collectionname":
		return rterr.CollectionName.Code(), rterr.CollectionName.Msg()
	}
	return 0, ""
}

func RegisterValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("regexp", RegexpValidator())
		v.RegisterValidation("password", PasswordValidator())
		v.RegisterValidation("email", EmailValidator())
		v.RegisterValidation("http_url", HttpUrlValidator())
		v.RegisterValidation("collectionname", CollectionNameValidator())
	}
}
