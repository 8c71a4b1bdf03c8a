package main

import (
	"context"
	"errors"
	"strconv"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"nearby_go/internal/beacon"
	"nearby_go/internal/config"
	"nearby_go/internal/coordinator"
	"nearby_go/internal/httpapi"
	"nearby_go/internal/ipc"
	"nearby_go/internal/lifecycle"
	"nearby_go/internal/notify"
	"nearby_go/internal/store"
	"nearby_go/internal/telemetry"
	"nearby_go/internal/track"
	"nearby_go/internal/tui"
)

func run(parent context.Context, cfg config.Config) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	registry := telemetry.NewRegistry()
	items := store.New()
	states := lifecycle.NewBroadcaster()
	notes := notify.NewBroadcaster(cfg.LaunchedFromNotification)
	caps := cfg.Capabilities()

	schedule, err := beacon.LoadSchedule(cfg.SchedulePath)
	if err != nil {
		return err
	}
	schedule.Loop = cfg.Loop

	var resolver beacon.Resolver = beacon.OfflineResolver{}
	if cfg.ResolverURL != "" {
		resolver = beacon.NewHTTPResolver(cfg.ResolverURL, cfg.ResolverTimeout, cfg.ResolverRetries)
	}

	var scanner *beacon.Scanner
	factory := beacon.Factory(schedule, resolver, func(s *beacon.Scanner) { scanner = s })

	var (
		alerter coordinator.Alerter = coordinator.LogAlerter{}
		bridge  *tui.Bridge
	)
	if !cfg.Headless {
		bridge = tui.NewBridge()
		unsubscribe := items.Subscribe(bridge.Listen)
		defer unsubscribe()
		alerter = bridge
	}

	coord := coordinator.New(factory, items, items,
		coordinator.WithInitialScanPeriod(cfg.InitialScanPeriod),
		coordinator.WithAlertCooldown(cfg.AlertCooldown),
		coordinator.WithStartTimeout(cfg.StartTimeout),
		coordinator.WithKeepsBackgroundScanningAlive(caps.KeepsBackgroundScanningAlive),
		coordinator.WithAlerter(alerter),
		coordinator.WithTracker(track.NewRecorder(registry)),
		coordinator.WithLifecycle(states),
		coordinator.WithNotifications(notes),
		coordinator.WithMetrics(telemetry.NewScanMetrics(registry)),
	)
	if scanner == nil {
		return errors.New("scanner was not built")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return coord.Run(gctx)
	})
	g.Go(func() error {
		return ipc.New(cfg.IPCSocket, coord, items, states, notes).Run(gctx)
	})
	g.Go(func() error {
		return httpapi.New(cfg.HTTPAddr, httpapi.Deps{
			Controller:    coord,
			Items:         items,
			Lifecycle:     states,
			Notifications: notes,
			Scanner:       scanner,
			Gatherer:      registry,
		}).Run(gctx)
	})

	coord.Mount()

	g.Go(func() error {
		defer cancel()
		if cfg.Headless {
			log.WithField("component", "app").Info("running headless")
			<-gctx.Done()
			return nil
		}
		return tui.Run(gctx, tui.Options{
			Controller:   coord,
			Store:        items,
			Lifecycle:    states,
			Bridge:       bridge,
			Scanner:      scanner,
			Capabilities: caps,
			Settings:     settingsOf(cfg),
		})
	})

	err = g.Wait()
	scanner.Wait()
	return err
}

func settingsOf(cfg config.Config) []tui.Setting {
	resolver := cfg.ResolverURL
	if resolver == "" {
		resolver = "offline"
	}
	schedule := cfg.SchedulePath
	if schedule == "" {
		schedule = "built-in demo"
	}
	orNone := func(s string) string {
		if s == "" {
			return "disabled"
		}
		return s
	}
	return []tui.Setting{
		{Label: "Initial scan period", Value: cfg.InitialScanPeriod.String()},
		{Label: "Start timeout", Value: cfg.StartTimeout.String()},
		{Label: "Alert cooldown", Value: cfg.AlertCooldown.String()},
		{Label: "Schedule", Value: schedule},
		{Label: "Loop", Value: strconv.FormatBool(cfg.Loop)},
		{Label: "Resolver", Value: resolver},
		{Label: "HTTP", Value: orNone(cfg.HTTPAddr)},
		{Label: "IPC socket", Value: orNone(cfg.IPCSocket)},
		{Label: "Log file", Value: cfg.LogFile},
	}
}
