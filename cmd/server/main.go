package main

import (
	"os"
	"strings"
	"time"

	httpctrl "checkout-service/internal/controllers/http"
	"checkout-service/internal/gateway"
	"checkout-service/internal/infra"
	mmysql "checkout-service/internal/infra/mysql"
	"checkout-service/internal/infra/rabbitmq"
	"checkout-service/internal/lock"
	"checkout-service/internal/metrics"
	"checkout-service/internal/pricing"
	mysqlrepo "checkout-service/internal/repository/mysql"
	"checkout-service/internal/services"
	"checkout-service/internal/shipping"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

func main() {
	log.SetFormatter(&log.JSONFormatter{})
	log.SetLevel(log.InfoLevel)

	db, err := mmysql.NewMySQLFromEnv()
	if err != nil {
		log.Fatalf("db: connect: %v", err)
	}

	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetMaxIdleConns(20)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetConnMaxIdleTime(1 * time.Minute)

	repo := mysqlrepo.NewOrderRepository(db)

	redisClient := redis.NewClient(&redis.Options{
		Addr:         os.Getenv("REDIS_HOST") + ":6379",
		DB:           0,
		PoolSize:     50,
		MinIdleConns: 10,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})

	locker := lock.NewRedisLock(redisClient)
	pending := infra.NewRedisPendingStore(redisClient)

	cartClient := infra.NewCartClient(os.Getenv("CART_SERVICE_URL"), 2*time.Second)

	gw := buildGateway()

	publisher, err := rabbitmq.NewPublisher(os.Getenv("RABBITMQ_URL"), "order.exchange")
	if err != nil {
		log.Fatalf("failed to init publisher: %v", err)
	}
	defer publisher.Close()

	baseURL := os.Getenv("SITE_BASE_URL")
	engine := pricing.NewEngine(pricing.SiteConfigFromEnv(), pricing.DefaultCoupons())

	checkout := services.NewCheckoutService(repo, cartClient, gw, engine, pending, publisher, baseURL)
	reconcile := services.NewReconcileService(repo, gw, cartClient, locker, pending, publisher)

	if os.Getenv("SHIPROCKET_EMAIL") != "" {
		shipper := shipping.NewClient(shipping.ConfigFromEnv(), 5*time.Second)
		checkout.SetShipper(shipper)
		reconcile.SetShipper(shipper)
	}

	handler := httpctrl.NewHandler(checkout, reconcile, gw)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(metrics.PrometheusMiddleware("checkout-service"))
	r.Use(httpctrl.CORSMiddleware(strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",")))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handler.RegisterRoutes(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Infof("Starting checkout service on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("server run: %v", err)
	}
}

// buildGateway selects the active provider. Both adapters are wrapped in a
// circuit breaker so a hung provider cannot stall every checkout.
func buildGateway() gateway.Gateway {
	switch os.Getenv("PAYMENT_PROVIDER") {
	case "razorpay":
		return gateway.WithBreaker("razorpay", gateway.NewRazorpay(gateway.RazorpayConfigFromEnv(), 5*time.Second))
	default:
		return gateway.WithBreaker("phonepe", gateway.NewPhonePe(gateway.PhonePeConfigFromEnv(), 5*time.Second))
	}
}
