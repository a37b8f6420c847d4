package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dude613/avoda-desktop/internal/capture"
	"github.com/dude613/avoda-desktop/internal/config"
	"github.com/dude613/avoda-desktop/internal/history"
	"github.com/dude613/avoda-desktop/internal/hook"
	"github.com/dude613/avoda-desktop/internal/session"
	"github.com/dude613/avoda-desktop/internal/synthetic"
	"github.com/dude613/avoda-desktop/internal/sysinfo"
	"github.com/dude613/avoda-desktop/internal/ws"
	"github.com/joho/godotenv"
)

func main() {
	syntheticMode := flag.Bool("synthetic", false, "Use generated frames and input instead of real capture")
	configPath := flag.String("config", "config.yaml", "Path to config file")
	port := flag.Int("port", 0, "Override server port")
	dbPath := flag.String("db", "", "Record history to this SQLite database")
	flag.Parse()

	if err := godotenv.Load(); err == nil {
		log.Println("Loaded .env file")
	}

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg.ApplyEnv()

	if *port > 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.History.Enabled = true
		cfg.History.Path = *dbPath
	}

	counter := session.NewCounter()
	store := capture.NewStore(cfg.Capture.Retain)
	broadcaster := ws.NewBroadcaster(cfg.Server.MaxConnections)

	var recorder session.Recorder
	var sink capture.Sink
	var hist *history.Store
	if cfg.History.Enabled {
		h, err := history.Open(cfg.History.Path)
		if err != nil {
			log.Fatalf("Failed to open history database: %v", err)
		}
		hist = h
		recorder = h
		sink = h
		log.Printf("Recording history to %s", cfg.History.Path)
	}

	caps := capture.Capabilities{
		Grabber:   &capture.ScreenGrabber{},
		Encoder:   &capture.PNGEncoder{},
		Inspector: sysinfo.ProcessInspector{},
		Sink:      sink,
	}
	if *syntheticMode {
		caps.Grabber = synthetic.NewFrameSource(0, 0)
	}

	scheduler := capture.NewScheduler(cfg, caps, store, broadcaster)
	engine := session.NewEngine(counter, store, scheduler, broadcaster, recorder)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *syntheticMode {
		log.Println("Starting in synthetic mode")
		feeder := synthetic.NewInputFeeder(hook.Callbacks{
			OnKeyPress:   counter.RecordKeyPress,
			OnMouseClick: counter.RecordMouseClick,
		})
		go feeder.Run(ctx)
	} else {
		listener := hook.New(hook.Callbacks{
			OnKeyPress:   counter.RecordKeyPress,
			OnMouseClick: counter.RecordMouseClick,
		})
		go func() {
			if err := listener.Start(ctx); err != nil {
				if errors.Is(err, hook.ErrUnavailable) {
					log.Printf("Input hooks unavailable, activity counters stay at zero: %v", err)
					return
				}
				log.Printf("Input hook error: %v", err)
			}
		}()
	}

	server := ws.NewServer(cfg, engine, store, broadcaster)
	mux := http.NewServeMux()
	server.SetupRoutes(mux)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutting down...")
		cancel()
		engine.Close()
		broadcaster.Stop()
		if hist != nil {
			hist.Close()
		}
		os.Exit(0)
	}()

	if err := ws.ListenAndServe(cfg.Server.Host, cfg.Server.Port, mux); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
