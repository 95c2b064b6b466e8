// Formflow Listener — AMQP-вход для callback Form Service.
//
// Потребляет события forms.submitted и применяет переход
// markSubmitted через тот же lifecycle-сервис, что и HTTP API.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Formflow/internal/lifecycle"
	"github.com/shaiso/Formflow/internal/listener"
	"github.com/shaiso/Formflow/internal/mq"
	"github.com/shaiso/Formflow/internal/repo"
	"github.com/shaiso/Formflow/internal/telemetry"
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting formflow-listener")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// DB pool
	pool, err := repo.NewPool(ctx)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	// Создаём репозитории
	workflowRepo := repo.NewWorkflowRepo(pool)
	runRepo := repo.NewRunRepo(pool)
	itemRepo := repo.NewItemRepo(pool)

	// RabbitMQ обязателен: без очереди listener бесполезен
	mqURL := os.Getenv("MQ_URL")
	if mqURL == "" {
		mqURL = mq.DefaultURL()
	}

	mqConn, err := mq.NewConnection(mqURL, logger)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer mqConn.Close()
	logger.Info("RabbitMQ connected")

	if err := mq.SetupTopology(ctx, mqConn); err != nil {
		logger.Error("failed to setup topology", "error", err)
		os.Exit(1)
	}
	logger.Debug("mq topology", "layout", mq.TopologyInfo())

	publisher := mq.NewPublisher(mqConn, logger)

	// Lifecycle-сервис: Sessions не нужен, listener не делает start
	lifecycleSvc := lifecycle.New(lifecycle.Config{
		Pool:         pool,
		WorkflowRepo: workflowRepo,
		RunRepo:      runRepo,
		ItemRepo:     itemRepo,
		Publisher:    publisher,
		Logger:       logger,
	})

	// Запускаем listener
	l := listener.New(listener.Config{
		Submitter: lifecycleSvc,
		Conn:      mqConn,
		Logger:    logger,
	})

	if err := l.Start(ctx); err != nil {
		logger.Error("failed to start listener", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8083"
	if v := os.Getenv("LISTENER_PORT"); v != "" {
		port = ":" + v
	}

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()

	l.Stop()
	logger.Info("formflow-listener stopped")
}
