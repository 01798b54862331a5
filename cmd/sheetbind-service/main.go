package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Shopify/sarama"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/google/uuid"
	"github.com/kelseyhightower/envconfig"

	"github.com/geoirb/sheetbind/internal/config"
	"github.com/geoirb/sheetbind/internal/kafka"
	"github.com/geoirb/sheetbind/internal/logger"
	"github.com/geoirb/sheetbind/internal/parser"
	"github.com/geoirb/sheetbind/internal/path"
	"github.com/geoirb/sheetbind/internal/qrcode"
	"github.com/geoirb/sheetbind/internal/response"
	"github.com/geoirb/sheetbind/internal/templater"
	"github.com/geoirb/sheetbind/internal/templater/httpapi"
	"github.com/geoirb/sheetbind/internal/templater/mq"
	"github.com/geoirb/sheetbind/internal/xlsx"
)

type configuration struct {
	MQHost   string `envconfig:"MQ_HOST" default:"localhost"`
	MQPort   int    `envconfig:"MQ_PORT" default:"9093"`
	MQOldest bool   `envconfig:"MQ_OLDEST" default:"false"`

	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`

	TmpDir      string `envconfig:"TMP_DIR" default:"/tmp"`
	TemplateDir string `envconfig:"TEMPLATE_DIR" default:"/template"`
	SchemaDir   string `envconfig:"SCHEMA_DIR" default:"/schema"`

	FillInTopicRequest  string `envconfig:"FILL_IN_TOPIC_REQUEST" default:"request"`
	FillInTopicResponse string `envconfig:"FILL_IN_TOPIC_RESPONSE" default:"response"`
	ExportTopicRequest  string `envconfig:"EXPORT_TOPIC_REQUEST" default:"export-request"`
	ExportTopicResponse string `envconfig:"EXPORT_TOPIC_RESPONSE" default:"export-response"`
	ImportTopicRequest  string `envconfig:"IMPORT_TOPIC_REQUEST" default:"import-request"`
	ImportTopicResponse string `envconfig:"IMPORT_TOPIC_RESPONSE" default:"import-response"`
}

const serviceName = "sheetbind"

func main() {
	opts, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuration:", err)
		os.Exit(1)
	}
	logger, err := logger.New(os.Stdout, opts.LogFormat, opts.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	logger = log.WithPrefix(logger, "service", serviceName)

	var cfg configuration
	if err = envconfig.Process(config.Prefix, &cfg); err != nil {
		level.Error(logger).Log("msg", "configuration", "err", err)
		os.Exit(1)
	}

	level.Info(logger).Log("msg", "initialization")

	path, err := path.NewBuilder(
		cfg.TemplateDir,
		cfg.SchemaDir,
		cfg.TmpDir,
		uuid.New().String,
	)
	if err != nil {
		level.Error(logger).Log("msg", "path init", "err", err)
		os.Exit(1)
	}

	parser, err := parser.New()
	if err != nil {
		level.Error(logger).Log("msg", "parser init", "err", err)
		os.Exit(1)
	}

	convertCfg, err := opts.Registry()
	if err != nil {
		level.Error(logger).Log("msg", "converter configuration", "err", err)
		os.Exit(1)
	}

	x := xlsx.NewFacade(
		convertCfg,
		qrcode.NewCreator(),
		nil,
		logger,
	)

	svc := templater.NewService(
		path,
		parser,
		x.FillIn,
		x.Export,
		x.Import,
		opts.Writer(),
		opts.Reader(),
		logger,
	)

	offset := sarama.OffsetNewest
	if cfg.MQOldest {
		offset = sarama.OffsetOldest
	}
	address := fmt.Sprintf("%s:%d", cfg.MQHost, cfg.MQPort)
	mqKafka, err := kafka.NewMessageQueue(
		[]string{address},
		offset,
		logger,
	)
	if err != nil {
		level.Error(logger).Log("msg", "kafka init", "address", address, "err", err)
		os.Exit(1)
	}

	fillInHandler := mq.NewFillInHandler(
		svc,
		mq.NewFillInTransport(
			response.Build,
		),
		mqKafka.NewPublish(cfg.FillInTopicResponse),
		logger,
	)
	if err = mqKafka.Consume(cfg.FillInTopicRequest, fillInHandler); err != nil {
		level.Error(logger).Log("msg", "kafka consume", "topic", cfg.FillInTopicRequest, "err", err)
		os.Exit(1)
	}

	exportHandler := mq.NewExportHandler(
		svc,
		mq.NewExportTransport(
			response.Build,
		),
		mqKafka.NewPublish(cfg.ExportTopicResponse),
		logger,
	)
	if err = mqKafka.Consume(cfg.ExportTopicRequest, exportHandler); err != nil {
		level.Error(logger).Log("msg", "kafka consume", "topic", cfg.ExportTopicRequest, "err", err)
		os.Exit(1)
	}

	importHandler := mq.NewImportHandler(
		svc,
		mq.NewImportTransport(
			response.Build,
		),
		mqKafka.NewPublish(cfg.ImportTopicResponse),
		logger,
	)
	if err = mqKafka.Consume(cfg.ImportTopicRequest, importHandler); err != nil {
		level.Error(logger).Log("msg", "kafka consume", "topic", cfg.ImportTopicRequest, "err", err)
		os.Exit(1)
	}

	level.Info(logger).Log("msg", "kafka listener turn on")
	mqKafka.ListenAndServe()

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewHandler(svc, logger),
		ReadHeaderTimeout: 15 * time.Second,
	}
	go func() {
		level.Info(logger).Log("msg", "http server turn on", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			level.Error(logger).Log("msg", "http server", "err", err)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGTERM, syscall.SIGINT)
	level.Info(logger).Log("msg", "received signal", "signal", <-c)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	level.Info(logger).Log("msg", "http server shutdown")
	if err = server.Shutdown(ctx); err != nil {
		level.Error(logger).Log("msg", "http server shutdown", "err", err)
	}
	level.Info(logger).Log("msg", "kafka listener shutdown")
	if err = mqKafka.Shutdown(); err != nil {
		level.Error(logger).Log("msg", "kafka listener shutdown", "err", err)
	}
	level.Info(logger).Log("msg", "stop service")
}
