package firebase

import (
	"context"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// Config holds Firebase initialization settings.
// Credentials resolution order: explicit JSON content, explicit file path,
// then Application Default Credentials (GOOGLE_APPLICATION_CREDENTIALS).
type Config struct {
	ProjectID       string
	CredentialsJSON string
	CredentialsFile string
}

// NewApp initializes the Firebase admin app
func NewApp(ctx context.Context, cfg Config) (*firebase.App, error) {
	var opts []option.ClientOption
	if cfg.CredentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	} else if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	appCfg := &firebase.Config{}
	if cfg.ProjectID != "" {
		appCfg.ProjectID = cfg.ProjectID
	}

	return firebase.NewApp(ctx, appCfg, opts...)
}

// NewAuthClient creates a Firebase Auth client for ID token verification
func NewAuthClient(ctx context.Context, app *firebase.App) (*auth.Client, error) {
	return app.Auth(ctx)
}

// NewFirestoreClient creates a Firestore client from the Firebase app
func NewFirestoreClient(ctx context.Context, app *firebase.App) (*firestore.Client, error) {
	return app.Firestore(ctx)
}
