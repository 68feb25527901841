package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"schnooty-agent/internal/alertchannel"
	"schnooty-agent/internal/alerter"
	"schnooty-agent/internal/apiclient"
	"schnooty-agent/internal/config"
	"schnooty-agent/internal/configurator"
	"schnooty-agent/internal/executor"
	"schnooty-agent/internal/logging"
	"schnooty-agent/internal/scheduler"
	"schnooty-agent/internal/session"
	"schnooty-agent/internal/shared"
	"schnooty-agent/internal/timer"
	"schnooty-agent/internal/uploader"
	"schnooty-agent/internal/version"
)

func main() {
	app := &cli.App{
		Name:    "schnooty-agent",
		Usage:   "long-running health-check agent",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Usage:    "path to the YAML configuration file",
				Required: true,
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Printf("fatal: %v", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.New(cfg)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Sync()

	container := dig.New()

	providers := []any{
		func() *config.Config { return cfg },
		func() *zap.SugaredLogger { return logger },
		provideTimer,
		provideScheduler,
		provideExecutor,
		provideAlertChannels,
		provideAlerter,
		provideAPIClient,
		provideUploader,
		provideSession,
		provideConfigurator,
	}
	for _, p := range providers {
		if err := container.Provide(p); err != nil {
			return fmt.Errorf("wiring dependency: %w", err)
		}
	}

	return container.Invoke(func(
		sch *scheduler.Scheduler,
		exec *executor.Executor,
		al *alerter.Alerter,
		up *uploader.Uploader,
		sess *session.Session,
		api *apiclient.Client,
		cfgr *configurator.Configurator,
		logger *zap.SugaredLogger,
	) error {
		exec.AddRecipient(func(msg shared.StatusMsg) { up.Receive(msg) })
		exec.AddRecipient(al.Receive)
		sch.AddRecipient(func(batch shared.ExecuteBatch) {
			exec.ExecuteBatch(context.Background(), batch)
		})

		cfgr.ApplySessionConfig(cfg.SessionName, cfg.AgentID, cfg.GroupID)
		if err := cfgr.ApplyFileConfig(cfg.Monitors, cfg.Alerts); err != nil {
			logger.Warnw("configuration applied with errors", "error", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		if cfg.UploadStatuses {
			up.Start(ctx)
		}
		if cfg.CreateSession {
			sess.Start(ctx)
		}
		if cfg.BaseURL != "" {
			go pollAPIConfig(ctx, api, cfgr, apiConfigPollInterval, logger)
		}

		logger.Infow("agent started", "version", version.Version)

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutdown signal received")
		return nil
	})
}

// apiConfigPollInterval governs how often monitors/alerts are re-fetched
// from the control-plane API per spec §4.2. Not specified by the spec; set
// in line with the Session heartbeat's 30s cadence.
const apiConfigPollInterval = 30 * time.Second

// pollAPIConfig periodically re-fetches the monitor and alert lists from
// the API and fans them through the Configurator as the "api://monitors"
// source_id, independent from the config file's "config://monitors" per
// spec §4.2/§9 union semantics. Transport errors are logged, not fatal.
func pollAPIConfig(ctx context.Context, api *apiclient.Client, cfgr *configurator.Configurator, interval time.Duration, logger *zap.SugaredLogger) {
	poll := func() {
		monitors, err := api.GetMonitors(ctx)
		if err != nil {
			logger.Warnw("polling API monitors failed", "error", err)
			return
		}
		alerts, err := api.GetAlerts(ctx)
		if err != nil {
			logger.Warnw("polling API alerts failed", "error", err)
			return
		}
		if err := cfgr.ApplyAPIConfig(monitors, alerts); err != nil {
			logger.Warnw("applying API configuration failed", "error", err)
		}
	}

	poll()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			poll()
		}
	}
}

func provideTimer(logger *zap.SugaredLogger) *timer.Timer {
	return timer.New(logger)
}

func provideScheduler(t *timer.Timer, logger *zap.SugaredLogger) *scheduler.Scheduler {
	return scheduler.New(t, logger)
}

func provideExecutor(logger *zap.SugaredLogger) *executor.Executor {
	return executor.New(logger)
}

func provideAlertChannels() map[shared.AlertKind]alertchannel.Sender {
	return map[shared.AlertKind]alertchannel.Sender{
		shared.AlertEmail:   alertchannel.NewEmailSender(),
		shared.AlertMSTeams: alertchannel.NewTeamsSender(),
		shared.AlertWebhook: alertchannel.NewWebhookSender(),
	}
}

func provideAlerter(channels map[shared.AlertKind]alertchannel.Sender, logger *zap.SugaredLogger) *alerter.Alerter {
	return alerter.New(logger, channels)
}

func provideAPIClient(cfg *config.Config) *apiclient.Client {
	return apiclient.New(cfg.BaseURL, cfg.APIKey)
}

func provideUploader(api *apiclient.Client, logger *zap.SugaredLogger) *uploader.Uploader {
	return uploader.New(api, logger)
}

// provideSession builds the Session with no identity yet: the Configurator
// owns pushing name/agentID/groupID into it via ApplySessionConfig once
// wiring completes, per spec §4.8.
func provideSession(cfg *config.Config, api *apiclient.Client, logger *zap.SugaredLogger) *session.Session {
	var poster session.Poster
	if cfg.BaseURL != "" {
		poster = api
	}
	return session.New("", "", "", poster, logger)
}

func provideConfigurator(sch *scheduler.Scheduler, al *alerter.Alerter, sess *session.Session, logger *zap.SugaredLogger) *configurator.Configurator {
	return configurator.New(sch, al, sess, logger)
}
