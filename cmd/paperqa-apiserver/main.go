// Package main is the entry point for the paperqa API server.
package main

import (
	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/kart-io/paperqa/cmd/paperqa-apiserver/app"
)

func main() {
	app.NewApp().Run()
}
