package main

import (
	"os"

	"github.com/CMSgov/scrub-app/log"
	"github.com/CMSgov/scrub-app/scrub/scrubcli"
)

func main() {
	app := scrubcli.GetApp()
	if err := app.Run(os.Args); err != nil {
		log.API.Fatal(err)
	}
}
