package feed

import (
	"context"

	"foodpics/internal/pkg/models"
)

// A ranked listing of submissions, most relevant first.
type Source interface {
	Hot(ctx context.Context, limit int) ([]models.Submission, error)
}
