package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"donutshop/models"
)

// orderService is the part of the order service the handlers need.
type orderService interface {
	Submit(ctx context.Context, clientID int64, quantity int) (models.QueueEntry, error)
	ListQueue(ctx context.Context, limit int) ([]models.QueueEntry, error)
	GetByOrderID(ctx context.Context, id int64) (models.QueueEntry, error)
	GetByClientID(ctx context.Context, clientID int64) (models.QueueEntry, error)
	DeleteByClient(ctx context.Context, clientID int64) error
	NextDelivery(ctx context.Context) ([]models.Order, error)
	FinishDelivery(ctx context.Context) ([]models.Order, error)
}

// Server wraps the gin engine and the route handlers.
type Server struct {
	engine *gin.Engine
}

// New builds the HTTP server with all routes registered.
func New(svc orderService) *Server {
	r := gin.New()
	r.RedirectTrailingSlash = false
	r.Use(gin.Recovery(), RequestID(), RequestLogger())

	h := newOrderHandler(svc)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/orders", h.Submit)
	r.GET("/orders", h.List)
	r.GET("/orders/:id", h.GetByID)
	r.DELETE("/orders", h.Delete)

	r.GET("/nextDelivery", h.NextDelivery)
	r.DELETE("/nextDelivery", h.FinishDelivery)

	return &Server{engine: r}
}

// Engine exposes the underlying router, mainly for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Serve runs the HTTP server until the context is cancelled, then shuts it
// down gracefully.
func (s *Server) Serve(ctx context.Context, address string) error {
	srv := &http.Server{
		Addr:    address,
		Handler: s.engine,
	}

	log.Info(fmt.Sprintf("http server starting at: %s", address))
	srvError := make(chan error)
	go func() {
		srvError <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("http server is shutting down")
		return srv.Shutdown(context.Background())
	case err := <-srvError:
		return err
	}
}
