package main

// POST /api/user/create - register a user with an empty cart
// GET /api/user/id/{id}, /api/user/{username} - look up a user
// GET /api/item, /api/item/{id}, /api/item/name/{name} - catalog
// POST /api/cart/addToCart, /api/cart/removeFromCart - change a cart
// POST /api/order/submit/{username} - snapshot the cart as an order
// GET /api/order/history/{username} - list a user's orders
// POST /login - issue a bearer token (when auth.jwt_secret is set)

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"ecommerce-api/auth"
	"ecommerce-api/config"
	"ecommerce-api/events"
	"ecommerce-api/handler"
	"ecommerce-api/service"
	"ecommerce-api/store"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	log.SetFormatter(&log.JSONFormatter{})
	log.SetOutput(os.Stdout)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("load config")
	}
	if lvl, err := log.ParseLevel(cfg.Log.Level); err == nil {
		log.SetLevel(lvl)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Store ---
	st, err := store.Open(ctx, cfg.Database.Driver, cfg.Database.DSN, store.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		log.WithError(err).WithField("dsn", cfg.Database.DSNMasked()).Fatal("DB connection failed")
	}
	defer st.Close()
	log.WithFields(log.Fields{"driver": cfg.Database.Driver, "dsn": cfg.Database.DSNMasked()}).Info("connected to database")

	if cfg.Database.Migrate {
		if err := st.Migrate(ctx); err != nil {
			log.WithError(err).Fatal("failed running migrations")
		}
		log.Info("database migrations executed successfully")
	}

	// --- Item cache ---
	var items store.ItemStore = st
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.WithError(err).WithField("addr", cfg.Redis.Addr).Warn("redis unreachable, item cache falls back to the database")
		} else {
			log.WithField("addr", cfg.Redis.Addr).Info("connected to redis")
		}
		cache := store.NewCachedItemStore(st, rdb, cfg.Redis.ItemTTL)
		if cfg.Database.Migrate {
			// the schema may have just seeded or changed catalog rows
			if err := cache.Invalidate(ctx); err != nil {
				log.WithError(err).Warn("item cache invalidation failed")
			}
		}
		items = cache
	}

	// --- Order events ---
	var publisher service.OrderPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer kp.Close()
		publisher = kp
		log.WithFields(log.Fields{"brokers": cfg.Kafka.Brokers, "topic": cfg.Kafka.Topic}).Info("publishing order events")
	}

	// --- Services ---
	locks := service.NewUserLocks()
	users := service.NewUserService(st, auth.NewBcryptHasher())
	catalog := service.NewItemService(items)
	carts := service.NewCartService(st, items, st, locks)
	orders := service.NewOrderService(st, st, st, publisher, locks, service.OrderOptions{
		ClearCartOnSubmit: cfg.Orders.ClearCartOnSubmit,
	})

	// --- Handlers ---
	var tokens handler.TokenAuth
	if cfg.Auth.JWTSecret != "" {
		tokens = auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	} else {
		log.Warn("auth.jwt_secret not set, API is unauthenticated")
	}
	h := handler.NewHandler(users, catalog, carts, orders, tokens)

	// --- Router ---
	r := mux.NewRouter()
	h.RegisterRoutes(r)

	// --- Server ---
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown error")
	}
	log.Info("server stopped")
}
