package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/questx-lab/rolebot/pkg/gateway"
	"github.com/questx-lab/rolebot/pkg/prometheus"
	"github.com/questx-lab/rolebot/pkg/xcontext"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func (s *srv) startBot(cctx *cli.Context) error {
	if err := s.loadConfig(cctx); err != nil {
		return err
	}
	s.loadLogger()

	s.ctx = xcontext.WithDB(s.ctx, s.newDatabase())
	s.migrateDB()
	s.loadRedisClient()
	s.loadRepos()
	s.loadEndpoint()
	s.loadSession()
	s.loadDomains()

	ctx, stop := signal.NotifyContext(s.ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := xcontext.Logger(ctx)
	cfg := xcontext.Configs(ctx)

	me, err := s.discordEndpoint.GetMe(ctx)
	if err != nil {
		logger.Errorf("Cannot authenticate the bot: %v", err)
		return err
	}
	logger.Infof("Authenticated as %s (%s)", me.Username, me.ID)

	// The gateway sends READY again after every new session, but
	// reconciliation only runs for the first one.
	var reconcileOnce sync.Once
	s.session.OnReady(func(ctx context.Context, ev *gateway.Ready) {
		logger.Infof("Gateway ready as %s", ev.User.Username)
		reconcileOnce.Do(func() {
			if err := s.reconcileDomain.Reconcile(ctx); err != nil {
				logger.Errorf("Cannot reconcile tracked message: %v", err)
			}
		})
	})
	s.session.OnMessageCreate(s.commandDomain.HandleMessage)
	s.session.OnReactionAdd(s.reactionDomain.HandleReactionAdd)
	s.session.OnReactionRemove(s.reactionDomain.HandleReactionRemove)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.session.Run(ctx)
	})

	if cfg.PrometheusServer.Port != "" {
		httpSrv := &http.Server{
			Addr:    cfg.PrometheusServer.Address(),
			Handler: prometheus.NewHandler(),
		}

		g.Go(func() error {
			logger.Infof("Starting prometheus on port: %s", cfg.PrometheusServer.Port)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			logger.Infof("Server prometheus stop")
			return nil
		})

		g.Go(func() error {
			<-ctx.Done()
			return httpSrv.Shutdown(context.Background())
		})
	}

	if err := g.Wait(); err != nil {
		logger.Errorf("Bot stopped: %v", err)
		return err
	}

	logger.Infof("Bot stopped")
	return nil
}
