package main

import (
	"os"
	"time"

	"gometwallet/config"
	"gometwallet/core"
	"gometwallet/redis"
	"gometwallet/workers"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	log.Info().Msg("Starting MET wallet core")

	config.Init()

	// connect to Redis, without burn retention do not continue
	redis.Init()

	c := core.New(redis.NewStore())
	go c.Start()

	// worker threads:
	// * watch source and destination chain heads
	// * poll MET price and auction status
	// * status API serving HTTP server (serves as main worker thread)
	go workers.Worker_watchBlocks(config.Config.Bridge.SourceChain, c.Bus)
	go workers.Worker_watchBlocks(config.Config.Bridge.DestChain, c.Bus)
	go workers.Worker_watchUTXOBlocks(c.Bus)
	go workers.Worker_pollPrice(c.Estimator, c.Bus)
	go workers.Worker_auctionStatus(c.Estimator, c.Bus)

	workers.Worker_HTTP(c.Tracker, c.Estimator, c.Bridge)

	c.Bus.Close()
}
