package rtres

type AuthUsrResData struct {
	Token string `json:"token" swaggertype:"string" format:"" example:"???????????????"`
} // @name AuthUsrResData

type AuthUsrRes struct {
	Data   AuthUsrResData `json:"data"`
	Errors []Err          `json:"errors"`
} // @name AuthUsrRes
