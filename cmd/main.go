package main

import (
	"flag"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/165cm/fxarchive/internal/app"
)

func main() {
	update := flag.Bool("update", false, "run one rate update and exit")
	from := flag.String("from", "", "re-fetch start date (YYYY-MM-DD), implies -update")
	flag.Parse()

	if *update || *from != "" {
		if err := app.RunOnce(*from); err != nil {
			logrus.WithError(err).Error("Update run failed")
			os.Exit(1)
		}
		return
	}

	if err := app.Run(); err != nil {
		logrus.WithError(err).Error("Application exited with error")
		os.Exit(1)
	}
}
