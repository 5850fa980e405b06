package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/marketmate/marketmate-backend/internal/domain"
)

// AnalyticsStore persists post metrics snapshots
type AnalyticsStore interface {
	Get(ctx context.Context, userID, platform, postID string) (*domain.PostMetrics, error)
	Save(ctx context.Context, userID string, metrics *domain.PostMetrics) error
}

// AnalyticsRepository stores snapshots under
// users/{userId}/analytics/{platform}_{postId}
type AnalyticsRepository struct {
	client *firestore.Client
}

// NewAnalyticsRepository creates a new AnalyticsRepository
func NewAnalyticsRepository(client *firestore.Client) *AnalyticsRepository {
	return &AnalyticsRepository{client: client}
}

func (r *AnalyticsRepository) doc(userID, platform, postID string) *firestore.DocumentRef {
	return r.client.Collection("users").Doc(userID).
		Collection("analytics").Doc(domain.AnalyticsDocID(platform, postID))
}

// Get retrieves a snapshot, (nil, nil) when absent
func (r *AnalyticsRepository) Get(ctx context.Context, userID, platform, postID string) (*domain.PostMetrics, error) {
	snap, err := r.doc(userID, platform, postID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, err
	}

	var m domain.PostMetrics
	if err := snap.DataTo(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Save overwrites the snapshot document
func (r *AnalyticsRepository) Save(ctx context.Context, userID string, metrics *domain.PostMetrics) error {
	_, err := r.doc(userID, metrics.Platform, metrics.PostID).Set(ctx, metrics)
	return err
}
