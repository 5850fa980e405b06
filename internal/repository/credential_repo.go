package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/marketmate/marketmate-backend/internal/domain"
)

// CredentialStore is the read/write contract for per-user platform
// credentials. Services depend on this interface so tests can mock the
// Firestore layer.
type CredentialStore interface {
	Get(ctx context.Context, userID string, t domain.CredentialType) (*domain.Credential, error)
	List(ctx context.Context, userID string) ([]*domain.Credential, error)
	Save(ctx context.Context, userID string, cred *domain.Credential) error
	UpdateFields(ctx context.Context, userID string, t domain.CredentialType, fields map[string]interface{}) error
	Deactivate(ctx context.Context, userID string, t domain.CredentialType) error
}

// CredentialRepository stores credentials under
// users/{userId}/credentials/{type}
type CredentialRepository struct {
	client *firestore.Client
}

// NewCredentialRepository creates a new CredentialRepository
func NewCredentialRepository(client *firestore.Client) *CredentialRepository {
	return &CredentialRepository{client: client}
}

func (r *CredentialRepository) doc(userID string, t domain.CredentialType) *firestore.DocumentRef {
	return r.client.Collection("users").Doc(userID).Collection("credentials").Doc(string(t))
}

// Get retrieves one credential document. Returns (nil, nil) when the
// document does not exist, matching the repository convention used across
// the codebase.
func (r *CredentialRepository) Get(ctx context.Context, userID string, t domain.CredentialType) (*domain.Credential, error) {
	snap, err := r.doc(userID, t).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, err
	}

	var cred domain.Credential
	if err := snap.DataTo(&cred); err != nil {
		return nil, err
	}
	return &cred, nil
}

// List retrieves all credential documents for a user
func (r *CredentialRepository) List(ctx context.Context, userID string) ([]*domain.Credential, error) {
	iter := r.client.Collection("users").Doc(userID).Collection("credentials").Documents(ctx)
	defer iter.Stop()

	var creds []*domain.Credential
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		var cred domain.Credential
		if err := snap.DataTo(&cred); err != nil {
			return nil, err
		}
		creds = append(creds, &cred)
	}
	return creds, nil
}

// Save overwrites the whole credential document. Last writer wins; the
// documents are user-private and not edited concurrently in practice.
func (r *CredentialRepository) Save(ctx context.Context, userID string, cred *domain.Credential) error {
	now := time.Now()
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = now
	}
	cred.LastValidated = now
	cred.IsActive = true

	_, err := r.doc(userID, cred.Type).Set(ctx, cred)
	return err
}

// UpdateFields patches individual fields of a credential document
func (r *CredentialRepository) UpdateFields(ctx context.Context, userID string, t domain.CredentialType, fields map[string]interface{}) error {
	updates := make([]firestore.Update, 0, len(fields))
	for k, v := range fields {
		updates = append(updates, firestore.Update{Path: k, Value: v})
	}
	_, err := r.doc(userID, t).Update(ctx, updates)
	return err
}

// Deactivate marks a credential inactive without deleting it
func (r *CredentialRepository) Deactivate(ctx context.Context, userID string, t domain.CredentialType) error {
	return r.UpdateFields(ctx, userID, t, map[string]interface{}{"isActive": false})
}
