package workers

import (
	"context"
	"time"

	"gometwallet/bridge"
	"gometwallet/bus"
	"gometwallet/config"
	"gometwallet/types"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var weiPerCoin = decimal.New(1, 18)

// Worker_pollPrice republishes the auction's current MET price,
// denominated in the source chain's coin.
func Worker_pollPrice(est *bridge.AuctionEstimator, b *bus.Bus) {
	interval := time.Duration(config.Config.Poll.Price) * time.Second

	for !WorkerShutdown {
		time.Sleep(interval)

		status, err := est.AuctionStatus(context.Background())
		if err != nil {
			log.Warn().Err(err).Msg("cannot fetch MET price")
			continue
		}

		price := decimal.NewFromBigInt(status.CurrentPrice, 0).Div(weiPerCoin)
		b.Publish(bus.EventCoinPriceUpdated, &types.CoinPriceUpdated{
			Token:    "MET",
			Currency: config.EVMChains[est.ChainID].Name,
			Price:    price,
		})
	}
}
