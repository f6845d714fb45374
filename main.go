package main

import (
	"fmt"
	"os"

	"github.com/t-kawata/intelligraph/config"
	"github.com/t-kawata/intelligraph/enum/mode"
	"github.com/t-kawata/intelligraph/mode/am"
	"github.com/t-kawata/intelligraph/mode/ev"
	"github.com/t-kawata/intelligraph/mode/rt"
)

// @title IntelliGraph API
// @version v0.2.1
// @description ドキュメントQAサービス IntelliGraph の REST API です。
// @BasePath /
func main() {
	if len(os.Args) < 2 {
		fmt.Print(mode.Help())
		return
	}
	m := os.Args[1]
	if m == "-v" {
		fmt.Println(config.VERSION)
		return
	}
	switch m {
	case mode.RT.Val():
		rt.MainOfRT()
	case mode.AM.Val():
		am.MainOfAM()
	case mode.EV.Val():
		ev.MainOfEV()
	default:
		fmt.Print(mode.Help())
	}
}
