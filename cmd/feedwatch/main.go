package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trading-simulator/src/feedclient"
	"trading-simulator/src/logger"
	"trading-simulator/src/models"
)

// -----------------------------------------------------------------------------
// feedwatch tails the live price feed from the command line, riding out
// server restarts through the reconnecting client.
// -----------------------------------------------------------------------------

func main() {

	url := flag.String("url", "ws://localhost:5001/ws", "feed websocket url")
	symbol := flag.String("symbol", "", "switch the feed to this symbol after connecting")
	delay := flag.Duration("retry-delay", time.Second, "delay between reconnect attempts")
	maxAttempts := flag.Int("max-attempts", 0, "cap on consecutive failed reconnects (0 = retry forever)")
	flag.Parse()

	appLogger := logger.NewLogger(nil, "feedwatch")

	client := feedclient.NewClient(*url, feedclient.RetryPolicy{
		Delay:       *delay,
		MaxAttempts: *maxAttempts,
	}, appLogger)

	requested := false
	client.OnTick = func(tick models.MTick) {
		appLogger.Info("%s price=%.2f open=%.2f high=%.2f low=%.2f close=%.2f",
			tick.Symbol, tick.Price, tick.Open, tick.High, tick.Low, tick.Close)

		if *symbol != "" && !requested && tick.Symbol != *symbol {
			client.Send(models.MControlMessage{Type: "change_symbol", Symbol: *symbol})
			requested = true
		}
	}

	go client.Run()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	client.Close()
}
