package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"eshop-api/internal/config"
	"eshop-api/internal/db"
	"eshop-api/internal/httpserver"
	cartrepo "eshop-api/internal/repository/cart"
	categoryrepo "eshop-api/internal/repository/category"
	customerrepo "eshop-api/internal/repository/customer"
	productrepo "eshop-api/internal/repository/product"
	tokenrepo "eshop-api/internal/repository/token"
	cartsvc "eshop-api/internal/service/cart"
	categorysvc "eshop-api/internal/service/category"
	customersvc "eshop-api/internal/service/customer"
	productsvc "eshop-api/internal/service/product"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	productRepo := productrepo.NewPostgres(dbpool, logger)
	productService := productsvc.New(productRepo)
	categoryRepo := categoryrepo.NewPostgres(dbpool)
	categoryService := categorysvc.New(categoryRepo)
	cartRepo := cartrepo.NewPostgres(dbpool)
	cartService := cartsvc.New(cartRepo, productRepo)
	customerRepo := customerrepo.NewPostgres(dbpool, logger)
	tokenRepo := tokenrepo.NewPostgres(dbpool)
	customerService := customersvc.New(customerRepo, tokenRepo)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		CartSvc:     cartService,
		CategorySvc: categoryService,
		ProductSvc:  productService,
		CustomerSvc: customerService,
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
