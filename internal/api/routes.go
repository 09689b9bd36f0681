package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func SetupRoutes(router *gin.Engine, handler *Handler) {
	router.Use(RequestLogger(handler.logger))

	api := router.Group("/api")
	{
		api.GET("/cma", handler.GetCMADocs)
		api.POST("/cma", handler.CreateCMA)
		api.POST("/cma/geojson", handler.CreateCMAGeoJSON)

		api.POST("/listings", handler.ImportListings)
		api.GET("/listings/stats", handler.GetListingStats)
		api.GET("/listings/:key", handler.GetListing)

		api.GET("/markets", handler.ListMarkets)
		api.GET("/markets/:name", handler.GetMarket)
		api.PUT("/markets/:name", handler.UpdateMarket)
		api.DELETE("/markets/:name", handler.DeleteMarket)
		api.GET("/markets/:name/appreciation", handler.GetMarketAppreciation)
	}
}

// RequestLogger logs one structured line per request.
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
		switch status := c.Writer.Status(); {
		case status >= 500:
			entry.Error("Request failed")
		case status >= 400:
			entry.Warn("Request rejected")
		default:
			entry.Debug("Request served")
		}
	}
}
