// Package metrics 提供 Prometheus 指标与 HTTP 暴露
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wyfcoding/paymentsengine/pkg/logger"
)

// 交易处理结果标签
const (
	OutcomeApplied  = "applied"
	OutcomeRejected = "rejected"
)

// Metrics 指标集合
type Metrics struct {
	// 按类型与结果统计的交易数
	TransactionsTotal *prometheus.CounterVec
	// 解析失败被跳过的记录数
	ParseErrorsTotal prometheus.Counter
	// 已知账户数
	Accounts prometheus.Gauge
	// 已锁定账户数
	LockedAccounts prometheus.Gauge
	// 单次运行耗时
	RunDuration prometheus.Histogram
	// 快照输出耗时
	SinkDuration *prometheus.HistogramVec
}

// New 创建指标实例
func New(serviceName string) *Metrics {
	return &Metrics{
		TransactionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "payments",
			Subsystem: serviceName,
			Name:      "transactions_total",
			Help:      "Transactions handled by the ledger engine",
		}, []string{"kind", "outcome"}),
		ParseErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "payments",
			Subsystem: serviceName,
			Name:      "parse_errors_total",
			Help:      "Input records skipped because they could not be parsed",
		}),
		Accounts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "payments",
			Subsystem: serviceName,
			Name:      "accounts",
			Help:      "Number of known client accounts",
		}),
		LockedAccounts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "payments",
			Subsystem: serviceName,
			Name:      "locked_accounts",
			Help:      "Number of accounts locked by a chargeback",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "payments",
			Subsystem: serviceName,
			Name:      "run_duration_seconds",
			Help:      "Time spent applying the whole input",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		SinkDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "payments",
			Subsystem: serviceName,
			Name:      "sink_duration_seconds",
			Help:      "Time spent writing the account snapshot per sink",
			Buckets:   prometheus.DefBuckets,
		}, []string{"sink"}),
	}
}

// Register 注册所有指标
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.TransactionsTotal,
		m.ParseErrorsTotal,
		m.Accounts,
		m.LockedAccounts,
		m.RunDuration,
		m.SinkDuration,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("failed to register metric: %w", err)
		}
	}
	return nil
}

// RecordTransaction 记录一笔交易的处理结果
func (m *Metrics) RecordTransaction(kind string, applied bool) {
	outcome := OutcomeRejected
	if applied {
		outcome = OutcomeApplied
	}
	m.TransactionsTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordParseError 记录一条解析失败
func (m *Metrics) RecordParseError() {
	m.ParseErrorsTotal.Inc()
}

// SetAccounts 更新账户数
func (m *Metrics) SetAccounts(total, locked int) {
	m.Accounts.Set(float64(total))
	m.LockedAccounts.Set(float64(locked))
}

// ObserveRun 记录运行耗时
func (m *Metrics) ObserveRun(d time.Duration) {
	m.RunDuration.Observe(d.Seconds())
}

// ObserveSink 记录快照输出耗时
func (m *Metrics) ObserveSink(sink string, d time.Duration) {
	m.SinkDuration.WithLabelValues(sink).Observe(d.Seconds())
}

// Server 指标 HTTP 服务
type Server struct {
	srv *http.Server
}

// NewHandler 创建暴露 /health 与指标路径的 gin 路由
func NewHandler(gatherer prometheus.Gatherer, path string) http.Handler {
	if path == "" {
		path = "/metrics"
	}
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	r.GET(path, gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	return r
}

// StartHTTPServer 在后台启动 Prometheus HTTP 服务
func StartHTTPServer(port int, path string, gatherer prometheus.Gatherer) *Server {
	addr := fmt.Sprintf(":%d", port)
	s := &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           NewHandler(gatherer, path),
		ReadHeaderTimeout: 5 * time.Second,
	}}

	logger.Info(context.Background(), "Starting Prometheus HTTP server", "addr", addr, "path", path)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(context.Background(), "Failed to start Prometheus HTTP server", "error", err)
		}
	}()
	return s
}

// Shutdown 关闭 HTTP 服务
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
