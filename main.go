package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/wfunc/gamehub/api"
	"github.com/wfunc/gamehub/broadcast"
	"github.com/wfunc/gamehub/config"
	"github.com/wfunc/gamehub/game"
	"github.com/wfunc/gamehub/logger"
	"github.com/wfunc/gamehub/monitor"
	"github.com/wfunc/gamehub/persistence"
	"github.com/wfunc/gamehub/registry"
	"github.com/wfunc/gamehub/rpc"
	"github.com/wfunc/gamehub/server"
	"github.com/wfunc/gamehub/services"
	"github.com/wfunc/gamehub/session"
	"github.com/wfunc/gamehub/timer"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// .env 不存在时忽略
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		os.Stderr.WriteString("warning: loading .env: " + err.Error() + "\n")
	}

	cmd := &cli.Command{
		Name:  "gamehub",
		Usage: "multi-game real-time session server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   ".",
				Usage:   "directory containing config.yaml",
			},
			&cli.StringFlag{
				Name:  "http",
				Usage: "override server.http_address",
			},
			&cli.BoolFlag{
				Name:  "dev",
				Usage: "human readable debug logging",
			},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logger.Log.Errorf("gamehub exited: %v", err)
		logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.LoadConfig(cmd.String("config"))
	if err != nil {
		return err
	}
	if addr := cmd.String("http"); addr != "" {
		cfg.Server.HTTPAddress = addr
	}
	if cmd.Bool("dev") {
		cfg.Log.Level, cfg.Log.Development = "debug", true
	}

	logger.Init(cfg.Log.Level, cfg.Log.Development)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 对局存档
	db, err := persistence.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Log.Infof("match archive ready (driver=%s)", cfg.Database.Driver)
	records := services.NewRecordService(db)

	mon := monitor.NewMonitor("gamehub")
	sessions := session.NewManager()
	broadcaster := broadcast.NewClientBroadcaster(sessions)

	reg := registry.New(registry.Options{
		Factory: game.NewFactory(game.FactoryConfig{
			SprintDuration: cfg.Engine.SprintDuration,
		}),
		Broadcaster: broadcaster,
		Recorder:    mon,
		Archiver:    records,
		GracePeriod: cfg.Engine.GracePeriod,
	})

	// 定时任务：截止时间检查与空闲清理
	sched := timer.NewScheduler(time.Now, cfg.Engine.TickInterval)
	sched.Every(cfg.Engine.TickInterval, reg.Tick)
	sched.Every(cfg.Engine.SweepInterval, func(now time.Time) {
		if n := reg.SweepIdle(now, cfg.Engine.IdleThreshold); n > 0 {
			logger.Log.Infof("closed %d idle sessions", n)
		}
	})
	go sched.Run(ctx)

	rpcServer, err := rpc.NewServer(cfg.Server.RPCAddress)
	if err != nil {
		return err
	}
	if err := rpcServer.Register(rpc.NewCatalogService(reg, records)); err != nil {
		return err
	}
	go rpcServer.Start()
	defer rpcServer.Stop()

	gateway := server.NewGameServer(server.Options{
		Registry:       reg,
		SessionManager: sessions,
		Broadcaster:    broadcaster,
		Clients:        mon,
	})

	httpAPI := api.New(reg, records, mon.Handler())
	router := httpAPI.Router()
	router.Get("/ws", gateway.HandleWebSocket)

	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddress,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Log.Infof("Game server listening on %s", cfg.Server.HTTPAddress)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Log.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Log.Warnf("http shutdown: %v", err)
	}
	if err := gateway.Shutdown(shutdownCtx); err != nil {
		logger.Log.Warnf("gateway shutdown: %v", err)
	}
	return nil
}
