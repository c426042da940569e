// Command seed loads the demo product catalog and pooja list into MongoDB.
// Collections that already hold data are left untouched.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"

	"ayush-backend/internal/seed"
	"ayush-backend/internal/store"
)

type config struct {
	MongoURI       string        `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	Database       string        `envconfig:"MONGO_DB" default:"ayush"`
	ConnectTimeout time.Duration `envconfig:"MONGO_CONNECT_TIMEOUT" default:"10s"`
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"info"`
}

func main() {
	godotenv.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	var cfg config
	if err := envconfig.Process("", &cfg); err != nil {
		log.WithError(err).Fatal("load config")
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Error("seed failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config, log *logrus.Logger) error {
	client, err := store.Connect(ctx, cfg.MongoURI, cfg.ConnectTimeout)
	if err != nil {
		return err
	}
	st, err := store.NewMongo(ctx, client.Database(cfg.Database))
	if err != nil {
		_ = client.Disconnect(context.Background())
		return err
	}
	defer st.Close(context.Background())

	_, err = seed.Demo(ctx, st, log.WithField("database", cfg.Database))
	return err
}
