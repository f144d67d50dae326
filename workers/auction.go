package workers

import (
	"context"
	"time"

	"gometwallet/bridge"
	"gometwallet/bus"
	"gometwallet/config"

	"github.com/rs/zerolog/log"
)

// Worker_auctionStatus publishes the daily auction's remaining supply
// and timing fields.
func Worker_auctionStatus(est *bridge.AuctionEstimator, b *bus.Bus) {
	interval := time.Duration(config.Config.Poll.Auction) * time.Second

	for !WorkerShutdown {
		time.Sleep(interval)

		status, err := est.AuctionStatus(context.Background())
		if err != nil {
			log.Warn().Err(err).Msg("cannot fetch auction status")
			continue
		}
		b.Publish(bus.EventAuctionStatusUpdated, status)
	}
}
