package main

import (
	"github.com/marketly/fulfillment/internal/order/app"
	"github.com/marketly/fulfillment/internal/order/config"
)

func main() {
	config.MustInit()
	app.MustNewApp().Run()
}
