package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"healthmall/internal/cache"
	"healthmall/internal/config"
	"healthmall/internal/db"
	"healthmall/internal/gateway/catalog"
	"healthmall/internal/gateway/identity"
	"healthmall/internal/gateway/location"
	"healthmall/internal/httpserver"
	cartrepo "healthmall/internal/repository/cart"
	orderrepo "healthmall/internal/repository/order"
	cartsvc "healthmall/internal/service/cart"
	ordersvc "healthmall/internal/service/order"
)

const gatewayTimeout = 5 * time.Second

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	redisClient, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		logger.Fatalf("connect to redis: %v", err)
	}
	defer redisClient.Close()

	catalogGw := catalog.NewClient(cfg.CatalogBaseURL, gatewayTimeout)
	locationGw := location.NewClient(cfg.LocationBaseURL, gatewayTimeout, redisClient)
	identityGw := identity.NewClient(cfg.IdentityBaseURL, gatewayTimeout)

	userCarts := cartrepo.NewPostgres(dbpool)
	guestCarts := cartrepo.NewRedis(redisClient, cfg.GuestCartTTL)
	cartService := cartsvc.New(userCarts, guestCarts, catalogGw, locationGw, cfg.RequireLoginForCart)

	orderRepo := orderrepo.NewPostgres(dbpool)
	orderService := ordersvc.New(orderRepo, userCarts, catalogGw, locationGw, logger)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		CartSvc:  cartService,
		OrderSvc: orderService,
		Identity: identityGw,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
