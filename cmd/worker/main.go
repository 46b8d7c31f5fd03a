package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"afrimart/internal/config"
	"afrimart/internal/jobs"
	"afrimart/internal/logger"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting AfriMart email worker",
		zap.String("env", cfg.Server.Env),
		zap.String("redis", cfg.Redis.Addr()),
	)

	mailer := jobs.NewSMTPMailer(&cfg.SMTP)

	worker := jobs.NewWorker(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, mailer, log)

	// Shut the worker down on SIGINT/SIGTERM; in-flight jobs get to finish
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig

		log.Info("Shutting down worker")
		worker.Shutdown()
	}()

	if err := worker.Run(); err != nil {
		log.Fatal("Worker exited with error", zap.Error(err))
	}

	log.Info("Worker exiting")
}
