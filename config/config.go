package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"comparables/server/internal/cma"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	Server struct {
		Port        string   `env:"PORT" envDefault:"5250"`
		CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
		GinMode     string   `env:"GIN_MODE" envDefault:"release"`
	}

	Database struct {
		Path string `env:"DATABASE_PATH" envDefault:"data/listings.db"`
	}

	Log struct {
		Level string `env:"LOG_LEVEL" envDefault:"info"`
	}

	// MarketsFile lists the named market areas served by /api/markets
	MarketsFile string `env:"MARKETS_FILE" envDefault:"config/markets.json"`

	// CMA engine tunables
	CMA struct {
		BedWeight       float64 `env:"CMA_BED_WEIGHT" envDefault:"1"`
		BathWeight      float64 `env:"CMA_BATH_WEIGHT" envDefault:"1"`
		SqftWeight      float64 `env:"CMA_SQFT_WEIGHT" envDefault:"1"`
		DistanceWeight  float64 `env:"CMA_DISTANCE_WEIGHT" envDefault:"1"`
		FenceMultiplier float64 `env:"CMA_FENCE_MULTIPLIER" envDefault:"1.5"`
		DefaultMaxComps int     `env:"CMA_DEFAULT_MAX_COMPS" envDefault:"10"`
		LowDispersionCV float64 `env:"CMA_LOW_DISPERSION_CV" envDefault:"0.10"`
		TrendThreshold  float64 `env:"CMA_TREND_THRESHOLD" envDefault:"0.02"`
		ClosingCostPct  float64 `env:"CMA_CLOSING_COST_PERCENT" envDefault:"3"`
		ForecastYears   int     `env:"CMA_FORECAST_YEARS" envDefault:"10"`

		// Hard filters applied by the comp store around the subject
		BedRange       float64 `env:"CMA_BED_RANGE" envDefault:"1"`
		BathRange      float64 `env:"CMA_BATH_RANGE" envDefault:"1"`
		SqftRange      float64 `env:"CMA_SQFT_RANGE" envDefault:"400"`
		LookbackMonths int     `env:"CMA_LOOKBACK_MONTHS" envDefault:"24"`
		CandidateLimit int     `env:"CMA_CANDIDATE_LIMIT" envDefault:"200"`
	}

	// BatchProcessing configuration
	BatchProcessing struct {
		// Maximum number of listings accepted in one import request
		MaxBatchSize int `env:"BATCH_MAX_SIZE" envDefault:"500"`

		// Number of queued batches before imports are rejected
		QueueSize int `env:"BATCH_QUEUE_SIZE" envDefault:"100"`

		// Number of concurrent batch processors
		ProcessorCount int `env:"BATCH_PROCESSOR_COUNT" envDefault:"2"`

		// Maximum number of retries for failed batches
		MaxRetries int `env:"BATCH_MAX_RETRIES" envDefault:"3"`

		// Delay between retries in seconds
		RetryDelay int `env:"BATCH_RETRY_DELAY" envDefault:"5"`
	}
}

// LoadConfig reads an optional .env file and then the environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

// EngineConfig maps the CMA settings onto the engine configuration.
func (c *Config) EngineConfig() cma.Config {
	ec := cma.DefaultConfig()
	ec.BedWeight = c.CMA.BedWeight
	ec.BathWeight = c.CMA.BathWeight
	ec.SqftWeight = c.CMA.SqftWeight
	ec.DistanceWeight = c.CMA.DistanceWeight
	ec.FenceMultiplier = c.CMA.FenceMultiplier
	ec.LowDispersionCV = c.CMA.LowDispersionCV
	ec.TrendThreshold = c.CMA.TrendThreshold
	ec.ClosingCostPercent = c.CMA.ClosingCostPct
	if c.CMA.DefaultMaxComps > 0 {
		ec.DefaultMaxComps = c.CMA.DefaultMaxComps
	}
	if c.CMA.ForecastYears > 0 {
		ec.ForecastYears = c.CMA.ForecastYears
	}
	return ec
}

// LookbackSince returns the earliest sale date searched for comps, or the
// zero time when the lookback is disabled.
func (c *Config) LookbackSince(now time.Time) time.Time {
	if c.CMA.LookbackMonths <= 0 {
		return time.Time{}
	}
	return now.AddDate(0, -c.CMA.LookbackMonths, 0)
}

// RetryDelay returns the pause between failed batch attempts.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.BatchProcessing.RetryDelay) * time.Second
}
