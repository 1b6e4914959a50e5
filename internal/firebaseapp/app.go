// Package firebaseapp owns the process-wide Firebase Admin app and the
// clients derived from it.
package firebaseapp

import (
	"context"
	"fmt"
	"sync"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

var (
	initOnce sync.Once
	instance *App
	initErr  error
)

// App bundles the Firebase clients used by the service.
type App struct {
	app       *firebase.App
	Firestore *firestore.Client
	Messaging *messaging.Client
	Auth      *auth.Client
}

// Init creates the Firebase app and its clients on the first call. Later
// calls return the same App (or the same error) regardless of arguments.
func Init(ctx context.Context, projectID, credJSON string) (*App, error) {
	initOnce.Do(func() {
		instance, initErr = newApp(ctx, projectID, credJSON)
	})
	return instance, initErr
}

func newApp(ctx context.Context, projectID, credJSON string) (*App, error) {
	var opts []option.ClientOption
	if credJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credJSON)))
	}

	var config *firebase.Config
	if projectID != "" {
		config = &firebase.Config{ProjectID: projectID}
	}

	app, err := firebase.NewApp(ctx, config, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	firestoreClient, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Firestore client: %w", err)
	}

	messagingClient, err := app.Messaging(ctx)
	if err != nil {
		firestoreClient.Close()
		return nil, fmt.Errorf("failed to get Messaging client: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		firestoreClient.Close()
		return nil, fmt.Errorf("failed to get Firebase Auth client: %w", err)
	}

	return &App{
		app:       app,
		Firestore: firestoreClient,
		Messaging: messagingClient,
		Auth:      authClient,
	}, nil
}

// Close closes the Firestore client.
func (a *App) Close() error {
	if a != nil && a.Firestore != nil {
		return a.Firestore.Close()
	}
	return nil
}
