package credentials

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/dgellow/edge-gate/internal/log"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// firestoreDocument is the stored shape of the credentials document
type firestoreDocument struct {
	ClientID     string `firestore:"clientId"`
	ClientSecret string `firestore:"clientSecret"`
	HashKey      string `firestore:"hashKey"`
}

// FirestoreConfig locates the credentials document
type FirestoreConfig struct {
	ProjectID       string
	Database        string
	Collection      string
	Document        string
	CredentialsFile string
}

// Firestore reads credentials from a single Firestore document
type Firestore struct {
	client     *firestore.Client
	collection string
	document   string
}

var _ Source = (*Firestore)(nil)

// NewFirestore connects to Firestore. Close must be called when done.
func NewFirestore(ctx context.Context, cfg FirestoreConfig) (*Firestore, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("projectID is required")
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("collection is required")
	}
	if cfg.Document == "" {
		return nil, fmt.Errorf("document is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	var client *firestore.Client
	var err error
	if cfg.Database != "" && cfg.Database != "(default)" {
		client, err = firestore.NewClientWithDatabase(ctx, cfg.ProjectID, cfg.Database, opts...)
	} else {
		client, err = firestore.NewClient(ctx, cfg.ProjectID, opts...)
	}
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	log.LogInfoWithFields("credentials", "Connected to Firestore", map[string]any{
		"project":    cfg.ProjectID,
		"database":   cfg.Database,
		"collection": cfg.Collection,
	})

	return &Firestore{
		client:     client,
		collection: cfg.Collection,
		document:   cfg.Document,
	}, nil
}

// Load implements Source.
func (f *Firestore) Load(ctx context.Context) (Credentials, error) {
	snap, err := f.client.Collection(f.collection).Doc(f.document).Get(ctx)
	if err != nil {
		return Credentials{}, mapFirestoreError(err, f.collection, f.document)
	}

	var doc firestoreDocument
	if err := snap.DataTo(&doc); err != nil {
		return Credentials{}, fmt.Errorf("decoding credentials document: %w", err)
	}
	return doc.credentials()
}

// Close releases the client
func (f *Firestore) Close() error {
	return f.client.Close()
}

func (d firestoreDocument) credentials() (Credentials, error) {
	creds := Credentials{
		ClientID:     d.ClientID,
		ClientSecret: d.ClientSecret,
		HashKey:      d.HashKey,
	}
	if err := creds.Validate(); err != nil {
		return Credentials{}, fmt.Errorf("invalid credentials document: %w", err)
	}
	return creds, nil
}

func mapFirestoreError(err error, collection, document string) error {
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, collection, document)
	}
	return fmt.Errorf("reading credentials document: %w", err)
}
