package handlers

import (
	"gometwallet/bridge"
	"gometwallet/tracker"
)

var (
	walletTracker *tracker.Tracker
	estimator     *bridge.AuctionEstimator
	met           *bridge.Bridge
)

// Init wires the shared collaborators before the router starts.
func Init(t *tracker.Tracker, est *bridge.AuctionEstimator, b *bridge.Bridge) {
	walletTracker = t
	estimator = est
	met = b
}
