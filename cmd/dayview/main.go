package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dayview/internal/capture"
	"dayview/internal/config"
	"dayview/internal/ics"
	appLog "dayview/internal/log"
	"dayview/internal/metrics"
	"dayview/internal/raster"
	"dayview/internal/schedule"
	"dayview/internal/web"
)

const version = "0.1.0"

type flagConfig struct {
	configPath string
	listen     string
	once       bool
	date       string
	dump       string
}

func main() {
	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if lvl, ok := appLog.ParseLevel(conf.LogLevel); ok {
		appLog.SetLevel(lvl)
	} else {
		appLog.Warn("unknown log_level; using INFO", "log_level", conf.LogLevel)
	}

	appLog.Info("dayview starting", "version", version)
	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"refresh", conf.RefreshCron,
		"horizon_days", conf.HorizonDays,
		"show_all_day", conf.ShowAllDay,
		"ics_count", len(conf.ICS),
		"day_view", fmt.Sprintf("%dx%d ruler=%d %02d-%02dh/%dm",
			conf.DayView.Width, conf.DayView.Height, conf.DayView.SlotWidth,
			conf.DayView.StartHour, conf.DayView.EndHour, conf.DayView.IncrementMinutes),
		"once", flags.once,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.NewManager()
	svc := schedule.New(conf, ics.NewFetcher(conf.CacheDir), schedule.WithMetrics(m))
	server := web.NewServer(conf, svc, m)

	if flags.once {
		if err := runOnce(ctx, svc, server, flags); err != nil {
			appLog.Error("run failed", err)
			os.Exit(1)
		}
		return
	}

	// Bind before the first refresh so the capture hook can reach /day.
	ln, err := server.Listen()
	if err != nil {
		appLog.Error("failed to start http server", err)
		os.Exit(1)
	}
	if conf.Preview.Chromium {
		opts := previewOptions(conf)
		svc.OnRefresh(func(ctx context.Context, _ schedule.Snapshot) {
			if err := capture.CaptureDayPNG(ctx, opts); err != nil {
				appLog.Error("preview capture failed", err, "base_url", opts.BaseURL)
			}
		})
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Serve(ctx, ln) }()

	if err := svc.Refresh(ctx); err != nil {
		appLog.Error("initial refresh failed", err)
	}
	if err := svc.Start(ctx); err != nil {
		appLog.Error("failed to schedule refresh", err)
		stop()
	}

	if err := <-errCh; err != nil {
		appLog.Error("http server stopped", err)
	}
	svc.Stop()
	appLog.Info("dayview exiting")
}

// runOnce refreshes the feeds, lays out one day, prints a summary and
// optionally writes the raster preview.
func runOnce(ctx context.Context, svc *schedule.Service, server *web.Server, flags flagConfig) error {
	if err := svc.Refresh(ctx); err != nil {
		appLog.Error("refresh completed with errors", err)
	}

	date := time.Now().In(svc.Location())
	if flags.date != "" {
		d, err := time.ParseInLocation(time.DateOnly, flags.date, svc.Location())
		if err != nil {
			return fmt.Errorf("-date %q: %w", flags.date, err)
		}
		date = d
	}

	table, err := server.BuildDay(date)
	if err != nil {
		return err
	}
	for _, r := range table.Occurrences {
		appLog.Info("occurrence",
			"start", r.Occurrence.Start.Format("15:04"),
			"end", r.Occurrence.End.Format("15:04"),
			"summary", r.Occurrence.Summary,
			"level", r.Level,
			"columns", r.MaxColumns,
			"box", fmt.Sprintf("%d,%d %dx%d", r.Box.Left, r.Box.Top, r.Box.Width, r.Box.Height),
			"class", r.Class,
		)
	}
	appLog.Info("day laid out", "date", date.Format(time.DateOnly),
		"occurrences", len(table.Occurrences), "all_day", len(table.AllDay), "slots", len(table.Slots))

	if flags.dump == "" {
		return nil
	}
	f, err := os.Create(flags.dump)
	if err != nil {
		return err
	}
	if err := raster.EncodePNG(f, table); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	appLog.Info("preview written", "path", flags.dump)
	return nil
}

// previewOptions builds capture options for the configured day view. When
// basic auth protects /day, the capture sends the same credentials.
func previewOptions(conf *config.Config) capture.Options {
	base := conf.Preview.BaseURL
	if base == "" {
		base = "http://" + conf.Listen
	}
	opts := capture.Options{
		BaseURL:    base,
		OutputPath: conf.Preview.Path,
		Width:      conf.DayView.Width,
		Height:     conf.DayView.Height,
	}
	if conf.BasicAuth != nil {
		opts.Username = conf.BasicAuth.Username
		opts.Password = conf.BasicAuth.Password
	}
	return opts
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/dayview/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Refresh feeds, lay out one day and exit")
	flag.StringVar(&cfg.date, "date", "", "Day to lay out with -once (YYYY-MM-DD, default today)")
	flag.StringVar(&cfg.dump, "dump", "", "With -once, write a PNG preview of the day to this path")

	flag.Parse()

	return cfg
}
