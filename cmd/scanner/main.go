// Command scanner is a terminal scan client: it runs the capture pipeline
// against image files standing in for camera frames, validates decoded
// payloads against the inventory service, and submits the stock transaction
// once a product is detected. A manual payload can be supplied for
// environments without a usable camera.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"inventory-service/internal/scanner"
	"inventory-service/pkg/config"
	"inventory-service/pkg/logger"
)

func main() {
	var (
		serverURL = flag.String("server", "http://localhost:8080", "inventory service base URL")
		token     = flag.String("token", os.Getenv("INVENTORY_TOKEN"), "bearer token for the inventory service")
		frames    = flag.String("frames", "", "comma-separated image files used as camera frames")
		manual    = flag.String("payload", "", "manually entered payload, used when the camera path fails")
		txType    = flag.String("type", "remove", "transaction type: add or remove")
		quantity  = flag.Int("quantity", 0, "quantity to apply after detection (0 = validate only)")
		timeout   = flag.Duration("timeout", time.Minute, "give up after this long without a detection")
	)
	flag.Parse()

	appConfig, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	logger.InitLogger(appConfig)
	log := logger.GetLogger()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, *timeout)
	defer cancelTimeout()

	client := newAPIClient(*serverURL, *token, log)

	session := scanner.NewSession(scanner.Config{
		DebounceWindow:  appConfig.Scanner.DebounceWindow,
		InvalidCooldown: appConfig.Scanner.InvalidCooldown,
	}, client, log)

	var paths []string
	if *frames != "" {
		paths = strings.Split(*frames, ",")
	}
	loop := scanner.NewCaptureLoop(
		newFileSource(paths),
		scanner.NewQRDecoder(),
		session,
		appConfig.Scanner.SampleInterval,
		log,
	)

	if err := loop.Start(ctx); err != nil {
		log.Warn("camera path unavailable", zap.Error(err))
	}

	exitCode := run(ctx, session, loop, client, *manual, *txType, *quantity)

	// os.Exit skips deferred calls, so tear down explicitly
	loop.Stop()
	session.Close()
	_ = log.Sync()
	os.Exit(exitCode)
}

func run(ctx context.Context, session *scanner.Session, loop *scanner.CaptureLoop, client *apiClient, manual, txType string, quantity int) int {
	for {
		select {
		case <-ctx.Done():
			fmt.Println("scan cancelled")
			return 1
		case ev, ok := <-session.Events():
			if !ok {
				return 1
			}
			switch ev.State {
			case scanner.StateReady:
				fmt.Println("scanning... position the code in frame")
			case scanner.StateInvalid:
				fmt.Printf("invalid code %q: %s (scanning will resume)\n", ev.Payload, ev.Reason)
			case scanner.StateError:
				fmt.Printf("camera error: %v\n", ev.Err)
				if manual == "" {
					fmt.Println("no manual payload supplied; giving up")
					return 1
				}
				if err := session.EnterManual(); err != nil {
					fmt.Printf("manual entry unavailable: %v\n", err)
					return 1
				}
			case scanner.StateManual:
				result, err := session.SubmitManual(ctx, manual)
				if err != nil {
					fmt.Printf("manual entry failed: %v\n", err)
					return 1
				}
				if !result.Valid {
					fmt.Printf("manual payload rejected: %s\n", result.Reason)
					return 1
				}
				// the detected event follows on the channel
			case scanner.StateDetected:
				loop.Stop()
				product := ev.Result.Product
				fmt.Printf("detected %q -> %s (stock %d)\n", ev.Payload, product.Name, product.CurrentStock)
				if quantity <= 0 {
					return 0
				}
				result, err := client.Apply(ctx, product.ID, txType, quantity)
				if err != nil {
					fmt.Printf("transaction failed: %v\n", err)
					return 1
				}
				fmt.Printf("stock updated: %d -> %d\n",
					result.Transaction.PreviousStock,
					result.Transaction.ResultingStock)
				if result.Alert != nil {
					fmt.Printf("low stock alert: only %d units remaining (threshold %d)\n",
						result.Alert.CurrentStock, result.Alert.Threshold)
				}
				return 0
			}
		}
	}
}
