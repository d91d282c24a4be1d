package main

import (
	"github.com/marketly/fulfillment/internal/notification/app"
	"github.com/marketly/fulfillment/internal/notification/config"
)

func main() {
	config.MustInit()
	app.MustNewApp().Run()
}
