package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wyfcoding/paymentsengine/internal/ledger/application"
	"github.com/wyfcoding/paymentsengine/internal/ledger/infrastructure/csvio"
	"github.com/wyfcoding/paymentsengine/internal/ledger/infrastructure/sink"
	"github.com/wyfcoding/paymentsengine/internal/ledger/interfaces/pipeline"
	"github.com/wyfcoding/paymentsengine/pkg/cache"
	"github.com/wyfcoding/paymentsengine/pkg/config"
	"github.com/wyfcoding/paymentsengine/pkg/db"
	"github.com/wyfcoding/paymentsengine/pkg/logger"
	"github.com/wyfcoding/paymentsengine/pkg/metrics"
	"github.com/wyfcoding/paymentsengine/pkg/mq"
)

var configPath = flag.String("config", "configs/paymentsengine/config.toml", "config file path")

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-config path] <transactions.csv>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	// 1. 初始化配置
	explicit := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			explicit = true
		}
	})
	cfg, err := loadConfig(*configPath, explicit)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	if err := logger.Init(loggerConfig(cfg)); err != nil {
		slog.Error("failed to init logger", "error", err)
		os.Exit(1)
	}

	// 3. 初始化指标
	m := metrics.New(cfg.ServiceName)
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		slog.Error("failed to register metrics", "error", err)
		os.Exit(1)
	}
	if cfg.Metrics.Enabled {
		srv := metrics.StartHTTPServer(cfg.Metrics.Port, cfg.Metrics.Path, reg)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, m, flag.Arg(0), os.Stdout); err != nil {
		slog.Error("paymentsengine failed", "error", err)
		stop()
		os.Exit(1)
	}
}

// loadConfig 显式指定的配置文件必须存在，默认路径缺失时使用默认值
func loadConfig(path string, explicit bool) (*config.Config, error) {
	if explicit {
		return config.Load(path)
	}
	return config.LoadWithDefaults(path)
}

// run 读取交易文件，应用到引擎并输出账户快照
func run(ctx context.Context, cfg *config.Config, m *metrics.Metrics, path string, stdout io.Writer) error {
	// 每次运行一个 trace_id，贯穿全部日志
	ctx = logger.ContextWithTraceID(ctx, uuid.NewString())
	runLogger := logger.WithContext(ctx)
	if !cfg.HasSink(config.SinkCSV) {
		logger.Info(ctx, "csv sink disabled, snapshot will not be written to stdout", "sinks", cfg.Output.Sinks)
	}

	// 4. 初始化输出
	sinks, closeSinks, err := buildSinks(ctx, cfg, stdout)
	if err != nil {
		return err
	}
	defer closeSinks()

	source, err := csvio.Open(path)
	if err != nil {
		return err
	}
	defer source.Close()

	// 5. 初始化引擎与流水线
	engine := application.NewEngine(
		application.WithLogger(runLogger),
		application.WithObserver(application.NewMetricsObserver(m)),
	)
	p := pipeline.New(
		pipeline.WithBufferSize(cfg.Pipeline.BufferSize),
		pipeline.WithLogger(runLogger),
		pipeline.WithSkipHook(func(error) { m.RecordParseError() }),
	)

	// 6. 处理交易
	start := time.Now()
	done := logger.LogDuration(ctx, "transactions applied", "path", path)
	stats, err := p.Run(ctx, source, engine)
	m.ObserveRun(time.Since(start))
	done()
	if err != nil {
		return fmt.Errorf("failed to process %s: %w", path, err)
	}

	// 7. 输出快照
	accounts := engine.Accounts()
	summary := application.Summarize(accounts)
	m.SetAccounts(summary.Accounts, summary.Locked)

	out := sink.NewMulti(sinks, sink.WithObserver(m.ObserveSink))
	if err := out.Write(ctx, accounts); err != nil {
		return err
	}

	logger.Info(ctx, "run completed",
		"delivered", stats.Delivered,
		"skipped", stats.Skipped,
		"processed", stats.Processed,
		"accounts", summary.Accounts,
		"locked", summary.Locked,
		"duration", time.Since(start),
	)
	return nil
}

// buildSinks 按配置顺序创建快照输出，返回的关闭函数释放所有连接
func buildSinks(ctx context.Context, cfg *config.Config, stdout io.Writer) ([]sink.Named, func(), error) {
	var (
		sinks   []sink.Named
		closers []func() error
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Warn(ctx, "failed to close sink", "error", err)
			}
		}
	}

	for _, name := range cfg.Output.Sinks {
		switch name {
		case config.SinkCSV:
			sinks = append(sinks, sink.Named{Name: name, Sink: csvio.NewWriter(stdout)})

		case config.SinkKafka:
			producer, err := mq.NewProducer(mq.KafkaConfig{
				Brokers:      cfg.Kafka.Brokers,
				MaxRetries:   cfg.Kafka.MaxRetries,
				RetryBackoff: cfg.Kafka.RetryBackoff,
			})
			if err != nil {
				closeAll()
				return nil, nil, fmt.Errorf("failed to init kafka: %w", err)
			}
			closers = append(closers, producer.Close)
			sinks = append(sinks, sink.Named{Name: name, Sink: sink.NewKafkaSink(producer, cfg.Kafka.Topic)})

		case config.SinkRedis:
			redisCache, err := cache.New(cache.Config{
				Host:         cfg.Redis.Host,
				Port:         cfg.Redis.Port,
				Password:     cfg.Redis.Password,
				DB:           cfg.Redis.DB,
				MaxPoolSize:  cfg.Redis.MaxPoolSize,
				ConnTimeout:  cfg.Redis.ConnTimeout,
				ReadTimeout:  cfg.Redis.ReadTimeout,
				WriteTimeout: cfg.Redis.WriteTimeout,
			})
			if err != nil {
				closeAll()
				return nil, nil, fmt.Errorf("failed to init redis: %w", err)
			}
			closers = append(closers, redisCache.Close)
			ttl := time.Duration(cfg.Redis.TTL) * time.Second
			sinks = append(sinks, sink.Named{Name: name, Sink: sink.NewRedisSink(redisCache, cfg.Redis.KeyPrefix, ttl)})

		case config.SinkMySQL:
			database, err := db.Init(db.Config{
				Driver:             cfg.Database.Driver,
				DSN:                cfg.Database.DSN,
				MaxOpenConns:       cfg.Database.MaxOpenConns,
				MaxIdleConns:       cfg.Database.MaxIdleConns,
				ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
				LogEnabled:         cfg.Database.LogEnabled,
				SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
			})
			if err != nil {
				closeAll()
				return nil, nil, fmt.Errorf("failed to init database: %w", err)
			}
			closers = append(closers, database.Close)
			if cfg.Environment == "dev" {
				if err := database.WithContext(ctx).AutoMigrate(&sink.AccountSnapshotPO{}); err != nil {
					logger.Error(ctx, "failed to migrate database", "error", err)
				}
			}
			sinks = append(sinks, sink.Named{Name: name, Sink: sink.NewMySQLSink(database, cfg.Database.BatchSize)})

		default:
			closeAll()
			return nil, nil, fmt.Errorf("unknown output sink: %s", name)
		}
	}
	return sinks, closeAll, nil
}

func loggerConfig(cfg *config.Config) logger.Config {
	return logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}
}
