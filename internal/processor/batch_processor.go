package processor

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"comparables/server/config"
	"comparables/server/internal/database"
	"comparables/server/internal/models"
	"comparables/server/internal/queue"
)

// Transactor runs fc inside a database transaction. *gorm.DB implements it.
type Transactor interface {
	Transaction(fc func(tx *gorm.DB) error, opts ...*sql.TxOptions) error
}

// Stats counts batches handled since start.
type Stats struct {
	Processed int64 `json:"processed"`
	Failed    int64 `json:"failed"`
	Listings  int64 `json:"listings"`
}

// BatchProcessor handles the processing of listing import batches
type BatchProcessor struct {
	db        Transactor
	logger    *logrus.Logger
	config    *config.Config
	queue     *queue.ListingQueue
	jobs      chan []*models.Listing
	waitGroup sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc

	processed atomic.Int64
	failed    atomic.Int64
	listings  atomic.Int64
}

// NewBatchProcessor creates a new batch processor instance
func NewBatchProcessor(db Transactor, queue *queue.ListingQueue, config *config.Config, logger *logrus.Logger) *BatchProcessor {
	ctx, cancel := context.WithCancel(context.Background())
	return &BatchProcessor{
		db:     db,
		queue:  queue,
		config: config,
		logger: logger,
		jobs:   make(chan []*models.Listing),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start subscribes to the queue and begins the worker pool
func (p *BatchProcessor) Start() {
	workers := p.config.BatchProcessing.ProcessorCount
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		p.waitGroup.Add(1)
		go p.processLoop()
	}

	p.queue.Subscribe(func(batch []*models.Listing) error {
		select {
		case p.jobs <- batch:
			return nil
		case <-p.ctx.Done():
			return fmt.Errorf("processor stopped, dropping batch of %d listings: %w", len(batch), p.ctx.Err())
		}
	})
}

// Stop gracefully shuts down the processor
func (p *BatchProcessor) Stop() {
	p.cancel()
	p.waitGroup.Wait()
}

// Stats returns the batch counters.
func (p *BatchProcessor) Stats() Stats {
	return Stats{
		Processed: p.processed.Load(),
		Failed:    p.failed.Load(),
		Listings:  p.listings.Load(),
	}
}

// processLoop handles batches until the processor stops
func (p *BatchProcessor) processLoop() {
	defer p.waitGroup.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case batch := <-p.jobs:
			if err := p.processBatch(batch); err != nil {
				p.failed.Add(1)
				p.logger.WithError(err).WithField("batch_size", len(batch)).Error("Dropping listing batch")
				continue
			}
			p.processed.Add(1)
			p.listings.Add(int64(len(batch)))
		}
	}
}

// processBatch handles a single batch of listings with transaction and retry logic
func (p *BatchProcessor) processBatch(batch []*models.Listing) error {
	var err error
	for attempt := 0; attempt <= p.config.BatchProcessing.MaxRetries; attempt++ {
		if attempt > 0 {
			p.logger.Infof("Retrying batch processing, attempt %d of %d", attempt, p.config.BatchProcessing.MaxRetries)
			select {
			case <-time.After(p.config.RetryDelay()):
			case <-p.ctx.Done():
				return fmt.Errorf("batch processing cancelled: %w", p.ctx.Err())
			}
		}

		err = p.db.Transaction(func(tx *gorm.DB) error {
			if err := database.UpsertListings(tx, batch); err != nil {
				return fmt.Errorf("failed to upsert listings batch: %w", err)
			}
			return nil
		})

		if err == nil {
			p.logger.Infof("Successfully processed batch of %d listings", len(batch))
			return nil
		}

		p.logger.Errorf("Batch processing failed: %v", err)
	}

	return fmt.Errorf("failed to process batch after %d attempts: %w", p.config.BatchProcessing.MaxRetries, err)
}
