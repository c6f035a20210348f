package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"wtfSocial/cache"
	"wtfSocial/crud"
	"wtfSocial/domain"
	"wtfSocial/events"
	"wtfSocial/metrics"
	"wtfSocial/storage"
)

// main is the app's entry point.
func main() {
	// Check if the flag "-prod" has been provided. It means that we're running in production.
	productionBool := flag.Bool("prod", false, "Provide this flag in production to ensure that a .config.json file is provided before the application starts.")
	reconcileBool := flag.Bool("reconcile", false, "Recompute all advisory counters and cached thread indexes from their source tables, then exit.")
	flag.Parse()

	// Structured JSON logging everywhere.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	// Load configuration from a .config.json file if present, otherwise use
	// the default dev setup.
	config := LoadConfig(*productionBool)

	// Open a database connection and execute migrations.
	dbConfig := config.Database
	db := NewDB(dbConfig.ConnectionInfo())
	err := Open(db, config.IsProd())
	must(err)
	defer Close(db)
	err = AutoMigrate(db)
	must(err)

	// Metrics registry and collector.
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// The event sink: a NATS bus when configured, the structured log otherwise.
	var sink domain.EventSink = events.NewLogSink(slog.Default())
	if config.Nats.URL != "" {
		nc, err := nats.Connect(config.Nats.URL)
		must(err)
		defer nc.Close()
		sink = events.NewNatsSink(nc)
	}

	// The trending cache is optional.
	var trendingCache domain.TrendingCache
	if config.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: config.Redis.Addr})
		defer rdb.Close()
		trendingCache = cache.NewTrendingCache(rdb, time.Duration(config.Redis.TrendingTTL)*time.Second)
	}

	// Start the crud services. WithUser and WithNotification must come
	// first; the fan-out wiring of the other options reads them.
	services, err := crud.NewServices(
		db.Gorm,
		crud.WithUser(),
		crud.WithNotification(nil, collector),
		crud.WithFollow(sink, collector),
		crud.WithPost(storage.NewImageService(), sink, collector),
		crud.WithComment(sink, collector),
		crud.WithLike(sink, collector),
		crud.WithFeed(trendingCache, collector),
	)
	must(err)

	// The reconciliation pass recomputes every advisory counter and cached
	// index from its authoritative source collection.
	if *reconcileBool {
		must(services.User.RecountAllFollows(context.Background()))
		must(services.Comment.RecountAllThreads())
		slog.Info("reconciliation complete")
		return
	}

	// The ops surface: metrics and liveness only. The actual API transport
	// lives in a separate layer consuming these services.
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	slog.Info("listening", "port", config.Port)
	err = http.ListenAndServe("localhost:"+strconv.Itoa(config.Port), router)
	must(err)
}

// must is a little helper for shortening the panic instruction.
func must(err error) {
	if err != nil {
		panic(err)
	}
}
