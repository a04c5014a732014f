// Package main is the entry point for the paperqa document ingester.
package main

import (
	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/kart-io/paperqa/cmd/paperqa-ingest/app"
)

func main() {
	app.NewApp().Run()
}
