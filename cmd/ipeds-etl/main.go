// Command ipeds-etl loads the IPEDS institution export into the universities
// table and enriches stored rows with their IANA timezone.
//
// Usage:
//
//	ipeds-etl validate data/ipeds_2020.csv
//	ipeds-etl migrate data/ipeds_2020.csv universities.db
//	ipeds-etl migrate --database postgres data/ipeds_2020.csv postgres://clime@localhost/clime
//	ipeds-etl timezones --create-column universities.db my-geonames-user
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		if !errors.Is(err, errValidationFailed) {
			slog.Error("command failed", "error", err)
		}
		os.Exit(1)
	}
}
