package api

import (
	"context"
	"net/http"
	"os"
	"time"

	"comparables/server/config"
	"comparables/server/internal/cma"
	"comparables/server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// CompStore is the read side of the listing database.
type CompStore interface {
	FindComps(ctx context.Context, q models.CompQuery) ([]models.Listing, error)
	GetListing(ctx context.Context, key string) (*models.Listing, error)
	GetListingStats(ctx context.Context) (models.ListingStats, error)
}

// ListingImporter accepts listing batches for asynchronous storage and
// reports how many batches are waiting.
type ListingImporter interface {
	Push(listings []*models.Listing) error
	Len() int
	Cap() int
}

type Handler struct {
	store    CompStore
	importer ListingImporter
	engine   *cma.Engine
	markets  *config.Markets
	config   *config.Config
	logger   *logrus.Logger
	now      func() time.Time
}

// Response is the envelope returned by the CMA endpoints.
type Response struct {
	Success bool        `json:"success"`
	Report  *cma.Report `json:"report,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func NewHandler(store CompStore, importer ListingImporter, markets *config.Markets, cfg *config.Config, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Handler{
		store:    store,
		importer: importer,
		engine:   cma.NewEngine(cfg.EngineConfig()),
		markets:  markets,
		config:   cfg,
		logger:   logger,
		now:      time.Now,
	}
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, Response{Success: false, Error: message})
}

func (h *Handler) GetListing(c *gin.Context) {
	key := c.Param("key")
	listing, err := h.store.GetListing(c.Request.Context(), key)
	if err != nil {
		status, message := storeError(err, "Failed to get listing")
		if status >= http.StatusInternalServerError {
			h.logger.WithError(err).WithField("listing_key", key).Error("Failed to get listing")
		}
		c.JSON(status, gin.H{"error": message})
		return
	}

	c.JSON(http.StatusOK, listing)
}

func (h *Handler) GetListingStats(c *gin.Context) {
	stats, err := h.store.GetListingStats(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to get listing stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get listing stats"})
		return
	}

	if h.importer != nil {
		stats.QueuedBatches = h.importer.Len()
		stats.QueueCapacity = h.importer.Cap()
	}

	c.JSON(http.StatusOK, stats)
}
