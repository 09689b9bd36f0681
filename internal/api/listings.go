package api

import (
	"fmt"
	"net/http"

	"comparables/server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type ImportRequest struct {
	Listings []*models.Listing `json:"listings" binding:"required,dive,required"`
}

// ImportListings queues a batch of listings for storage. Listings are
// upserted by listing key once the batch processor picks them up.
func (h *Handler) ImportListings(c *gin.Context) {
	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
		return
	}

	if err := h.queueListings(req.Listings); err != nil {
		status, message := importError(err)
		entry := h.logger.WithError(err).WithField("count", len(req.Listings))
		if status >= http.StatusInternalServerError {
			entry.Error("Failed to queue listings")
		} else {
			entry.Warn("Listing import rejected")
		}
		resp := gin.H{"error": message}
		if status == http.StatusServiceUnavailable {
			resp["queued_batches"] = h.importer.Len()
			resp["queue_capacity"] = h.importer.Cap()
		}
		c.JSON(status, resp)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"count": len(req.Listings),
	}).Info("Queued listings for import")
	c.JSON(http.StatusAccepted, gin.H{"accepted": len(req.Listings)})
}

func (h *Handler) queueListings(listings []*models.Listing) error {
	if len(listings) == 0 {
		return errEmptyListingsBatch
	}
	if limit := h.config.BatchProcessing.MaxBatchSize; limit > 0 && len(listings) > limit {
		return fmt.Errorf("%w: %d exceeds %d", errBatchTooLarge, len(listings), limit)
	}
	if h.importer == nil {
		return fmt.Errorf("no listing importer configured")
	}
	return h.importer.Push(listings)
}
