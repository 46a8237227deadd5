package main

import (
	"github.com/corray333/backend-labs/storefront/internal/app"
	"github.com/corray333/backend-labs/storefront/internal/config"
)

func main() {
	config.MustInit("storefront")
	app.MustNewApp().Run()
}
