package repository

import (
	"context"
	"fmt"

	"github.com/timmy/soulsync/internal/domain"
	"gorm.io/gorm"
)

// QuoteRepository handles personalized quote data operations.
type QuoteRepository struct {
	db *gorm.DB
}

// NewQuoteRepository creates a new QuoteRepository.
func NewQuoteRepository(db *gorm.DB) *QuoteRepository {
	return &QuoteRepository{db: db}
}

// ReplaceForJob stores quotes for a job, overwriting any earlier set.
// Rerunning generation for the same job therefore never duplicates quotes.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - jobID: owning job.
//   - quotes: quotes to store, in display order.
// Returns:
//   - error: non-nil if the transaction fails.
func (r *QuoteRepository) ReplaceForJob(ctx context.Context, jobID string, quotes []domain.PersonalizedQuote) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("job_id = ?", jobID).Delete(&domain.PersonalizedQuote{}).Error; err != nil {
			return fmt.Errorf("failed to clear quotes: %w", err)
		}
		if len(quotes) == 0 {
			return nil
		}
		for i := range quotes {
			quotes[i].JobID = jobID
		}
		if err := tx.Create(&quotes).Error; err != nil {
			return fmt.Errorf("failed to insert quotes: %w", err)
		}
		return nil
	})
}

// ListByJob returns the quotes of a job in display order.
func (r *QuoteRepository) ListByJob(ctx context.Context, jobID string) ([]domain.PersonalizedQuote, error) {
	var quotes []domain.PersonalizedQuote
	if err := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("position ASC").
		Find(&quotes).Error; err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}
	return quotes, nil
}
