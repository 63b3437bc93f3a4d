package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	v1 "github.com/Abedmejri/Artplat/cmd/api/router/v1"
	"github.com/Abedmejri/Artplat/internal/infrastructure/database"
	feedAdapter "github.com/Abedmejri/Artplat/internal/infrastructure/feed/adapter"
	feedport "github.com/Abedmejri/Artplat/internal/infrastructure/feed/port"
	queueAdapter "github.com/Abedmejri/Artplat/internal/infrastructure/queue/adapter"
	qport "github.com/Abedmejri/Artplat/internal/infrastructure/queue/port"
	"github.com/Abedmejri/Artplat/internal/infrastructure/realtime"
	"github.com/Abedmejri/Artplat/internal/pkg/messaging/application/task"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to the database on startup
	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	pool, err := database.NewPoolFromEnv(connectCtx)
	cancel()
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Redis gates both scale-out concerns: the cross-node insert feed and the
	// durable task queue. Without it everything runs in-process, single node.
	var (
		feed        feedport.Feed
		queueClient qport.Client
		queueServer qport.Server
	)
	if os.Getenv("REDIS_URL") != "" {
		feed, err = feedAdapter.NewRedisFeedFromEnv()
		if err != nil {
			log.Fatalf("failed to connect feed: %v", err)
		}
		queueClient, err = queueAdapter.NewAsynqClientFromEnv()
		if err != nil {
			log.Fatalf("failed to create queue client: %v", err)
		}
		queueServer, err = queueAdapter.NewAsynqServer()
		if err != nil {
			log.Fatalf("failed to create queue server: %v", err)
		}
	} else {
		log.Printf("REDIS_URL not set; running in-process feed and queue (single node only)")
		feed = feedAdapter.NewMemoryFeed()
		inline := queueAdapter.NewInlineQueue()
		queueClient, queueServer = inline, inline
	}
	defer feed.Close()
	defer queueClient.Close()
	task.RegisterSendMessageTask(queueServer, pool, feed)
	go func() {
		if err := queueServer.Run(ctx); err != nil {
			log.Printf("queue server stopped: %v", err)
		}
	}()

	rtRouter := realtime.NewRouter()
	defer rtRouter.Close()

	notifier := realtime.NewDirectoryNotifier(feed, rtRouter)
	go func() {
		if err := notifier.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("directory notifier stopped: %v", err)
		}
	}()

	r := gin.Default()

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	v1.RegisterRoutes(r, pool, queueClient, feed, rtRouter)

	addr := ":" + envOr("PORT", "8080")
	srv := &http.Server{Addr: addr, Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("http server: %v", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
