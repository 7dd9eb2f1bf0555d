package main

import (
	"context"
	"moff.io/wallet-connector/internal/config"
	"moff.io/wallet-connector/internal/connector"
	"moff.io/wallet-connector/internal/connector/ethereum"
	"moff.io/wallet-connector/internal/http"
	"moff.io/wallet-connector/internal/provider/wsprovider"
	"moff.io/wallet-connector/internal/starter"
	"moff.io/wallet-connector/pkg/errors"
	"moff.io/wallet-connector/pkg/log"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	log.Infof("Starting wallet connector")
	startApp()
}

func startApp() {
	defer func() {
		if i := recover(); i != nil {
			log.Fatal(errors.ErrorfAndReport("%v", i))
		}
	}()
	config.Read()
	log.SetLevel(config.Global.LogLevel)
	if err := errors.NewSentryReporter(config.Global.SentryDSN, time.Minute); err != nil {
		log.Fatal(err)
	}

	ethConfig, err := config.Global.Connector.Ethereum()
	if err != nil {
		log.Fatal(err)
	}
	conn := ethereum.New(ethConfig,
		wsprovider.Detect(config.Global.Connector.ProviderURL),
		ethereum.WithPollOptions(config.Global.Connector.Poll.Options()),
	)
	go logChanges(conn)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	stop, err := starter.Start(ctx,
		starter.Funcs(conn.Initialize, conn.Close),
		http.NewServer(config.Global.HTTP.Address, conn, config.Global.HTTP.RequestTimeout),
	)
	if err != nil {
		log.Fatal(err)
	}
	<-ctx.Done()
	log.Info("Shutting down")
	stop()
}

func logChanges(observer connector.Observer) {
	statuses := make(chan connector.StatusEvent, 8)
	signers := make(chan connector.SignerEvent, 8)
	statusSub := observer.SubscribeStatus(statuses)
	signerSub := observer.SubscribeSigner(signers)
	defer statusSub.Unsubscribe()
	defer signerSub.Unsubscribe()
	for {
		select {
		case ev := <-statuses:
			log.Infof("wallet status changed to %v", ev.Status)
		case ev := <-signers:
			if ev.Signer == nil {
				log.Info("wallet signer cleared")
				continue
			}
			log.Infof("wallet signer %s (%s)", ev.Signer.Address(), ev.Signer.NativeAddress())
		case err := <-statusSub.Err():
			log.Errorf("status subscription:%v", err)
			return
		case err := <-signerSub.Err():
			log.Errorf("signer subscription:%v", err)
			return
		}
	}
}
