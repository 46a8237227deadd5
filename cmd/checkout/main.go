package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/corray333/backend-labs/storefront/internal/app"
	"github.com/corray333/backend-labs/storefront/internal/config"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func main() {
	flags := pflag.NewFlagSet("checkout", pflag.ExitOnError)
	flags.String("name", "", "customer name")
	flags.String("phone", "", "customer phone number")
	flags.String("address", "", "delivery address typed by the customer")
	flags.Float64("lat", 0, "device latitude")
	flags.Float64("lng", 0, "device longitude")
	flags.Float64("accuracy", 50, "device accuracy radius in meters")
	flags.Bool("pin", false, "treat --lat/--lng as a location picked on the map")
	flags.StringSlice("item", nil, "product id or name, optionally with =quantity (repeatable)")
	flags.Bool("direct", false, "order the first item directly, leaving the cart untouched")
	flags.Bool("list", false, "list placed orders and exit")
	flags.String("api", "", "storefront API base URL")
	flags.String("history", "", "order history backend: file or redis")
	_ = flags.Parse(os.Args[1:])

	config.MustInit("storefront-checkout")

	bindings := map[string]string{
		"checkout.customer_name":    "name",
		"checkout.customer_phone":   "phone",
		"checkout.customer_address": "address",
		"checkout.device_lat":       "lat",
		"checkout.device_lng":       "lng",
		"checkout.device_accuracy":  "accuracy",
		"checkout.manual_pin":       "pin",
		"checkout.items":            "item",
		"checkout.direct":           "direct",
		"checkout.list_orders":      "list",
		"api.base_url":              "api",
		"history.backend":           "history",
	}
	for key, name := range bindings {
		if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic("error while binding flag " + name + ": " + err.Error())
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.MustNewCheckoutApp(os.Stdout).Run(ctx); err != nil {
		slog.Error("Checkout failed", "error", err)
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
