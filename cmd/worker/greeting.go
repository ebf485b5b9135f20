package worker

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kmutua/feedback-gateway/internal/config"
	"github.com/kmutua/feedback-gateway/internal/db"
	"github.com/kmutua/feedback-gateway/internal/dispatcher"
	"github.com/kmutua/feedback-gateway/internal/kafka"
	"github.com/kmutua/feedback-gateway/internal/logger"
	"github.com/kmutua/feedback-gateway/internal/metrics"
	"github.com/kmutua/feedback-gateway/internal/repository"
	"github.com/kmutua/feedback-gateway/internal/service/greeting"
	"github.com/kmutua/feedback-gateway/internal/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var greetingCmd = &cobra.Command{
	Use:   "greeting",
	Short: "Run the greeting SMS sender worker",
	RunE:  runGreeting,
}

func runGreeting(cmd *cobra.Command, args []string) error {
	// 1) load config
	cfgPath, _ := cmd.Root().PersistentFlags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger.Init(cfg.LogLevel)
	defer logger.Sync()

	metrics.MustRegister(prometheus.DefaultRegisterer)

	// 2) DB connection (MySQL)
	dbx, err := db.NewMySQLConnection(db.SQLOpts{
		DSN:             cfg.MySQL.DSN,
		MaxOpenConns:    cfg.MySQL.MaxOpenConns,
		MaxIdleConns:    cfg.MySQL.MaxIdleConns,
		ConnMaxLifetime: cfg.MySQL.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.MySQL.ConnMaxIdleTime,
		PingTimeout:     cfg.MySQL.PingTimeout,
	})
	if err != nil {
		return fmt.Errorf("mysql connect: %w", err)
	}
	defer dbx.Close()

	// 3) repositories
	notificationsRepo := repository.NewNotificationsRepository(dbx)

	// 4) providers → dispatcher
	var provs []dispatcher.Provider
	for _, pc := range cfg.Providers {
		if !pc.Enabled || strings.TrimSpace(pc.BaseURL) == "" {
			continue
		}
		provs = append(provs,
			dispatcher.NewHTTPProvider(
				pc.Name,
				strings.TrimRight(pc.BaseURL, "/"),
				pc.SendPath,
				pc.APIToken,
				pc.TimeoutMs,
				pc.Breaker.FailThreshold,
				pc.Breaker.OpenForMs,
			),
		)
	}
	if len(provs) == 0 {
		return fmt.Errorf("no providers enabled in config")
	}
	disp := dispatcher.NewDispatcher(provs)

	// 5) kafka consumer
	topic := cfg.Kafka.Topic
	if topic == "" {
		topic = greeting.KafkaTopic
	}
	groupID := cfg.Kafka.GroupID
	if groupID == "" {
		groupID = "fbgw-greeting"
	}

	consumer := kafka.NewConsumer(kafka.Config{
		Brokers:        cfg.Kafka.Brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       cfg.Kafka.MinBytes,
		MaxBytes:       cfg.Kafka.MaxBytes,
		CommitInterval: time.Duration(cfg.Kafka.CommitInterval) * time.Millisecond,
	})
	defer consumer.Close()

	w := worker.NewGreetingSender(dbx, consumer, notificationsRepo, disp)

	// tune knobs
	if cfg.Worker.WorkerCount > 0 {
		w.Workers = cfg.Worker.WorkerCount
	}
	if cfg.Worker.BatchSize > 0 {
		w.BatchSize = cfg.Worker.BatchSize
	}
	if cfg.Worker.BatchWait > 0 {
		w.BatchWait = cfg.Worker.BatchWait
	}

	// 6) graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf(">> greeting sender started topic=%s group=%s workers=%d batchSize=%d batchWait=%s",
		topic, groupID, w.Workers, w.BatchSize, w.BatchWait)

	return w.Run(ctx)
}
