package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"gpsfeed/internal/config"
	"gpsfeed/internal/feed"
	"gpsfeed/internal/mqttpub"
	"gpsfeed/internal/nmea"
	"gpsfeed/internal/pps"
	"gpsfeed/internal/transport"
	"gpsfeed/internal/web"
)

func main() {
	var configPath string
	var logUpdates bool
	flag.StringVar(&configPath, "config", "./gpsfeed.yaml", "Path to YAML config")
	flag.BoolVar(&logUpdates, "log-updates", false, "Log every positioning update")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	receivers := []nmea.PositionReceiver{}
	tracker := feed.NewTracker()
	receivers = append(receivers, tracker)

	if cfg.MQTT.Enable {
		pub, err := mqttpub.New(mqttpub.Config{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Prefix:   cfg.MQTT.Prefix,
		})
		if err != nil {
			log.Fatalf("mqtt init failed: %v", err)
		}
		defer pub.Close()
		receivers = append(receivers, pub)
		log.Printf("mqtt broker=%s prefix=%s", cfg.MQTT.Broker, cfg.MQTT.Prefix)
	}

	if logUpdates {
		receivers = append(receivers, feed.LogReceiver{})
	}

	adapter, err := nmea.NewAdapter(feed.NewMultiReceiver(receivers...), adapterConfig(cfg.Adapter))
	if err != nil {
		log.Fatalf("adapter init failed: %v", err)
	}

	source, err := newSource(cfg.Source)
	if err != nil {
		log.Fatalf("source init failed: %v", err)
	}

	var ppsMon *pps.Monitor
	if cfg.PPS.Enable {
		ppsMon, err = pps.New(pps.Config{Chip: cfg.PPS.Chip, Line: cfg.PPS.Line})
		if err != nil {
			// PPS is a diagnostic aid, not a prerequisite for decoding.
			log.Printf("pps unavailable: %v", err)
		} else {
			defer ppsMon.Close()
			log.Printf("pps chip=%s line=%d", cfg.PPS.Chip, cfg.PPS.Line)
		}
	}

	svc := feed.New(source, adapter)

	if cfg.Web.Enable {
		go func() {
			if err := web.Serve(ctx, cfg.Web.Listen, svc, tracker, ppsMon); err != nil && ctx.Err() == nil {
				log.Printf("web server stopped: %v", err)
				cancel()
			}
		}()
	}

	log.Printf("gpsfeed starting")
	if err := svc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("feed stopped: %v", err)
	}
	log.Printf("gpsfeed stopping")
}

func adapterConfig(cfg config.AdapterConfig) nmea.AdapterConfig {
	out := nmea.AdapterConfig{DateThreshold: cfg.DateThreshold}
	switch cfg.DatestampPolicy {
	case "19xx":
		out.DatestampPolicy = nmea.Datestamp19xx
	case "20xx":
		out.DatestampPolicy = nmea.Datestamp20xx
	default:
		out.DatestampPolicy = nmea.DatestampIntelligent
	}
	return out
}

func newSource(cfg config.SourceConfig) (transport.Source, error) {
	switch cfg.Kind {
	case "serial":
		return transport.NewSerial(transport.SerialConfig{Device: cfg.Device, Baud: cfg.Baud})
	case "tcp":
		return transport.NewTCP(transport.TCPConfig{Addr: cfg.Addr, ReconnectDelay: cfg.ReconnectDelay})
	default:
		return transport.NewReplay(transport.ReplayConfig{Path: cfg.Path, Pace: cfg.Pace, Loop: cfg.Loop})
	}
}
