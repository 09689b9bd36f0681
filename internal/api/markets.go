package api

import (
	"net/http"
	"strconv"
	"strings"
	"sync"

	"comparables/server/config"
	"comparables/server/internal/cma"
	"comparables/server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func (h *Handler) ListMarkets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"markets": h.markets.All()})
}

func (h *Handler) GetMarket(c *gin.Context) {
	market, err := h.markets.ByName(c.Param("name"))
	if err != nil {
		status, message := storeError(err, "Failed to get market")
		c.JSON(status, gin.H{"error": message})
		return
	}

	c.JSON(http.StatusOK, market)
}

// UpdateMarket creates or replaces the market named in the path.
func (h *Handler) UpdateMarket(c *gin.Context) {
	var market config.Market
	if err := c.ShouldBindJSON(&market); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
		return
	}
	if !strings.EqualFold(market.Name, c.Param("name")) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "market name does not match the path"})
		return
	}

	if err := h.markets.Update(market); err != nil {
		h.logger.WithError(err).WithField("market", market.Name).Error("Failed to update market")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update market"})
		return
	}

	h.logger.WithFields(logrus.Fields{
		"market":       market.Name,
		"subdivisions": len(market.Subdivisions),
	}).Info("Updated market")
	c.JSON(http.StatusOK, market)
}

func (h *Handler) DeleteMarket(c *gin.Context) {
	name := c.Param("name")
	if err := h.markets.Delete(name); err != nil {
		status, message := storeError(err, "Failed to delete market")
		if status >= http.StatusInternalServerError {
			h.logger.WithError(err).WithField("market", name).Error("Failed to delete market")
		}
		c.JSON(status, gin.H{"error": message})
		return
	}

	h.logger.WithField("market", name).Info("Deleted market")
	c.Status(http.StatusNoContent)
}

// GetMarketAppreciation computes quarterly appreciation over the closed
// sales of every subdivision in the market. The optional months query
// parameter overrides the configured lookback.
func (h *Handler) GetMarketAppreciation(c *gin.Context) {
	market, err := h.markets.ByName(c.Param("name"))
	if err != nil {
		status, message := storeError(err, "Failed to get market")
		c.JSON(status, gin.H{"error": message})
		return
	}

	since := h.config.LookbackSince(h.now())
	if raw := c.Query("months"); raw != "" {
		months, err := strconv.Atoi(raw)
		if err != nil || months <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "months must be a positive integer"})
			return
		}
		since = h.now().AddDate(0, -months, 0)
	}

	var (
		mu    sync.Mutex
		comps []cma.Comp
	)
	g, ctx := errgroup.WithContext(c.Request.Context())
	for _, subdivision := range market.Subdivisions {
		subdivision := subdivision
		g.Go(func() error {
			listings, err := h.store.FindComps(ctx, models.CompQuery{
				Subdivision: subdivision,
				Since:       since,
				Limit:       h.config.CMA.CandidateLimit,
			})
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			for i := range listings {
				comps = append(comps, listings[i].ToComp())
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		h.logger.WithError(err).WithField("market", market.Name).Error("Failed to fetch market sales")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to calculate appreciation"})
		return
	}

	appreciation := cma.CalculateAppreciation(h.engine.Config(), comps, "")
	appreciation.Area = market.Name

	c.JSON(http.StatusOK, appreciation)
}
