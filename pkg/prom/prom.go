package prom

import (
	"sync"

	xhttp "github.com/nimasrn/split-ledger/pkg/http"
	"github.com/nimasrn/split-ledger/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

const (
	SystemAchievements = "achievement"
	SystemEvents       = "event"
	SystemLedger       = "ledger"
)

const (
	MetricAchievementEvaluations  = "evaluations_total"
	MetricAchievementUnlocks      = "unlocks_total"
	MetricAchievementUnlockErrors = "unlock_errors_total"
	MetricAchievementCheckSeconds = "check_duration_seconds"
	MetricSweepSeconds            = "sweep_duration_seconds"
	MetricEventsPublished         = "published_total"
	MetricNotificationsSent       = "notifications_total"
	MetricTransactionsCreated     = "transactions_created_total"
)

var metricsMu = &sync.Mutex{}
var namespace = "none"

var MetricSystemEnabled = false

var registry = prometheus.NewRegistry()

var MetricCollectionCounterVec = make(map[string]*prometheus.CounterVec)
var MetricCollectionHistogram = make(map[string]prometheus.Histogram)
var MetricCollectionHistogramVec = make(map[string]*prometheus.HistogramVec)

var defaultLabels prometheus.Labels

// Create registers the application metrics on a fresh registry. Calling it
// again replaces the registry, which keeps tests independent.
func Create(host string, env string, nameSpace string) error {
	metricsMu.Lock()
	defaultLabels = prometheus.Labels{"env": env, "instance": host}
	namespace = nameSpace
	registry = prometheus.NewRegistry()
	MetricCollectionCounterVec = make(map[string]*prometheus.CounterVec)
	MetricCollectionHistogram = make(map[string]prometheus.Histogram)
	MetricCollectionHistogramVec = make(map[string]*prometheus.HistogramVec)
	metricsMu.Unlock()

	var err error
	hasError := func(e error) {
		if err == nil && e != nil {
			err = e
		}
	}

	hasError(registry.Register(collectors.NewGoCollector()))

	hasError(createCounterVec(SystemAchievements, MetricAchievementEvaluations, []string{"trigger", "result"}))
	hasError(createCounterVec(SystemAchievements, MetricAchievementUnlocks, []string{"achievement"}))
	hasError(createCounterVec(SystemAchievements, MetricAchievementUnlockErrors, []string{"reason"}))
	hasError(createHistogramVec(SystemAchievements, MetricAchievementCheckSeconds, []string{"trigger"}))
	hasError(createHistogram(SystemAchievements, MetricSweepSeconds))
	hasError(createCounterVec(SystemEvents, MetricEventsPublished, []string{"trigger", "status"}))
	hasError(createCounterVec(SystemEvents, MetricNotificationsSent, []string{"channel", "status"}))
	hasError(createCounterVec(SystemLedger, MetricTransactionsCreated, []string{"type"}))

	MetricSystemEnabled = err == nil
	return err
}

// Gatherer exposes the active registry.
func Gatherer() prometheus.Gatherer {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	return registry
}

func ListenAndServer(port string, url string) {
	hh := fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(Gatherer(), promhttp.HandlerOpts{}))
	s := xhttp.CreateServer()
	s.GET(url, hh)
	logger.Info("[metrics-server] listening...", "url", url, "port", port)
	if err := s.ListenAndServe(port); err != nil {
		logger.Panic("[metrics-server] http listen error", "error", err)
	}
}

func createCounterVec(subsystem, name string, labels []string) error {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	MetricCollectionCounterVec[subsystem+name] = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		ConstLabels: defaultLabels,
	}, labels)
	return registry.Register(MetricCollectionCounterVec[subsystem+name])
}

func createHistogram(subsystem, name string) error {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	MetricCollectionHistogram[subsystem+name] = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		ConstLabels: defaultLabels,
		Buckets:     prometheus.DefBuckets,
	})
	return registry.Register(MetricCollectionHistogram[subsystem+name])
}

func createHistogramVec(subsystem, name string, labels []string) error {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	MetricCollectionHistogramVec[subsystem+name] = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		ConstLabels: defaultLabels,
	}, labels)
	return registry.Register(MetricCollectionHistogramVec[subsystem+name])
}

func AddCounterVec(subsystem, name string, num float64, labelValues ...string) {
	if !MetricSystemEnabled {
		return
	}
	if v, ok := MetricCollectionCounterVec[subsystem+name]; ok {
		v.WithLabelValues(labelValues...).Add(num)
		return
	}
	logger.Warn("[metrics-server] counter vec not found", "subsystem", subsystem, "name", name)
}

func IncCounterVec(subsystem, name string, labelValues ...string) {
	AddCounterVec(subsystem, name, 1, labelValues...)
}

func AddHistogram(subsystem, name string, number float64) {
	if !MetricSystemEnabled {
		return
	}
	if v, ok := MetricCollectionHistogram[subsystem+name]; ok {
		v.Observe(number)
		return
	}
	logger.Warn("[metrics-server] histogram not found", "subsystem", subsystem, "name", name)
}

func AddHistogramVec(subsystem, name string, number float64, labelValues ...string) {
	if !MetricSystemEnabled {
		return
	}
	if v, ok := MetricCollectionHistogramVec[subsystem+name]; ok {
		v.WithLabelValues(labelValues...).Observe(number)
		return
	}
	logger.Warn("[metrics-server] histogram vec not found", "subsystem", subsystem, "name", name)
}

func AchievementEvaluated(trigger string, unlocked bool) {
	result := "not_met"
	if unlocked {
		result = "met"
	}
	IncCounterVec(SystemAchievements, MetricAchievementEvaluations, trigger, result)
}

func AchievementUnlocked(achievementID string) {
	IncCounterVec(SystemAchievements, MetricAchievementUnlocks, achievementID)
}

func AchievementUnlockFailed(reason string) {
	IncCounterVec(SystemAchievements, MetricAchievementUnlockErrors, reason)
}

func AchievementCheckDuration(seconds float64, trigger string) {
	AddHistogramVec(SystemAchievements, MetricAchievementCheckSeconds, seconds, trigger)
}

func SweepDuration(seconds float64) {
	AddHistogram(SystemAchievements, MetricSweepSeconds, seconds)
}

func EventPublished(trigger, status string) {
	IncCounterVec(SystemEvents, MetricEventsPublished, trigger, status)
}

func NotificationSent(channel, status string) {
	IncCounterVec(SystemEvents, MetricNotificationsSent, channel, status)
}

func TransactionCreated(txType string) {
	IncCounterVec(SystemLedger, MetricTransactionsCreated, txType)
}
