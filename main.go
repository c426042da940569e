package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"ayush-backend/internal/cache"
	"ayush-backend/internal/config"
	"ayush-backend/internal/events"
	"ayush-backend/internal/seed"
	"ayush-backend/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := newLogger(cfg.Log)

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func run(cfg *config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := st.Close(closeCtx); err != nil {
			log.WithError(err).Warn("close store")
		}
	}()

	if cfg.SeedDemo {
		if _, err := seed.Demo(ctx, st, log); err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
	}

	products := st.Products
	if cfg.CacheEnabled() {
		rdb, err := cache.ConnectRedis(ctx, cache.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			log.WithError(err).Warn("redis unavailable, serving products without cache")
		} else {
			defer rdb.Close()
			products = cache.NewProducts(st.Products, rdb, cfg.Cache.TTL, log)
			log.WithField("addr", cfg.Cache.RedisAddr).Info("product cache enabled")
		}
	}

	var pub events.Publisher = events.NewLogPublisher(log)
	if cfg.EventsEnabled() {
		rp, err := events.NewRabbitPublisher(cfg.Events.RabbitURL, cfg.Events.Exchange)
		if err != nil {
			log.WithError(err).Warn("rabbitmq unavailable, events will only be logged")
		} else {
			pub = rp
			log.WithField("exchange", cfg.Events.Exchange).Info("publishing events")
		}
	}
	defer pub.Close()

	if err := os.MkdirAll(cfg.Upload.Dir, 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}

	srv := newServer(cfg, st, products, pub, log)
	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      srv.routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Server.Port).Info("server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*store.Store, error) {
	switch cfg.StoreDriver {
	case "memory":
		log.Warn("using in-memory store, data is lost on exit")
		return store.NewMemory(), nil
	case "mongo", "":
		log.WithField("database", cfg.Mongo.Database).Info("connecting to MongoDB")
		client, err := store.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.ConnectTimeout)
		if err != nil {
			return nil, err
		}
		st, err := store.NewMongo(ctx, client.Database(cfg.Mongo.Database))
		if err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		return st, nil
	}
	return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
}
