// Command sweep runs one forced sweep over every collection and exits. It
// reads the same configuration as the server.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/dmitrijs2005/gophvault/internal/server"
	"github.com/dmitrijs2005/gophvault/internal/server/config"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	reports, sweepErr := app.SweepOnce(ctx)
	for _, r := range reports {
		fmt.Printf("%-14s trash_purged=%d age_purged=%d evicted=%d\n",
			r.Collection, r.TrashPurged, r.AgePurged, r.Evicted)
	}

	if err := app.Close(); err != nil {
		log.Printf("close: %v", err)
	}
	if sweepErr != nil {
		log.Printf("sweep: %v", sweepErr)
		os.Exit(1)
	}
}
