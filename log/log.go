package log

import (
	"io"
	"log"
	"os"

	"github.com/fatih/color"
)

var (
	Info  *log.Logger
	Warn  *log.Logger
	Error *log.Logger
	Debug *log.Logger
)

func init() {
	Info = log.New(os.Stdout,
		color.GreenString("[INFO] "),
		log.Ldate|log.Ltime|log.Lshortfile)
	Warn = log.New(os.Stdout,
		color.YellowString("[WARN] "),
		log.Ldate|log.Ltime|log.Lshortfile)
	Error = log.New(os.Stderr,
		color.RedString("[ERROR] "),
		log.Ldate|log.Ltime|log.Lshortfile)

	var dbg io.Writer = io.Discard
	if os.Getenv("DEBUG") != "" {
		dbg = os.Stdout
	}
	Debug = log.New(dbg,
		color.CyanString("[DEBUG] "),
		log.Ldate|log.Ltime|log.Lshortfile)
}
