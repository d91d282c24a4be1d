package main

import (
	"github.com/marketly/fulfillment/internal/payment/app"
	"github.com/marketly/fulfillment/internal/payment/config"
)

func main() {
	config.MustInit()
	app.MustNewApp().Run()
}
