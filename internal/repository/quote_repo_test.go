package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/soulsync/internal/domain"
)

func TestQuoteRepositoryReplaceForJob(t *testing.T) {
	repo := NewQuoteRepository(openTestDB(t))
	ctx := context.Background()

	first := []domain.PersonalizedQuote{
		{ID: "q1", Position: 0, Text: "first"},
		{ID: "q2", Position: 1, Text: "second"},
	}
	require.NoError(t, repo.ReplaceForJob(ctx, "job-1", first))

	second := []domain.PersonalizedQuote{{ID: "q3", Position: 0, Text: "only"}}
	require.NoError(t, repo.ReplaceForJob(ctx, "job-1", second))

	quotes, err := repo.ListByJob(ctx, "job-1")
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, "only", quotes[0].Text)
	assert.Equal(t, "job-1", quotes[0].JobID)

	none, err := repo.ListByJob(ctx, "job-2")
	require.NoError(t, err)
	assert.Empty(t, none)
}
