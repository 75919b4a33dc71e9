package services

import (
	"context"
	"crypto/tls"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linkplate/backend/internal/models"
)

// ErrNoPrivilegedCredentials means the elevated connection string is absent;
// the process runs without a privileged accessor for its whole lifetime.
var ErrNoPrivilegedCredentials = errors.New("privileged credentials not configured")

// PrivilegedStore reads the same "users" collection through an elevated,
// non-user connection. It bypasses the restricted role the unprivileged
// client runs under, so it is preferred when available. It must never be a
// single point of failure; callers fall back on any error.
type PrivilegedStore struct {
	client   *mongo.Client
	usersCol *mongo.Collection
}

// NewPrivilegedStore is fallible by design: missing or malformed credentials
// mean no accessor exists, and initialization is never retried.
func NewPrivilegedStore(ctx context.Context, adminURI, dbName string) (*PrivilegedStore, error) {
	if adminURI == "" {
		return nil, ErrNoPrivilegedCredentials
	}

	tlsCfg := &tls.Config{
		MinVersion: tls.VersionTLS12,
		MaxVersion: tls.VersionTLS12,
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(adminURI).SetTLSConfig(tlsCfg))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	return &PrivilegedStore{
		client:   client,
		usersCol: client.Database(dbName).Collection("users"),
	}, nil
}

func (s *PrivilegedStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *PrivilegedStore) GetByUsername(ctx context.Context, username string) (*models.Profile, error) {
	var prof models.Profile
	if err := s.usersCol.FindOne(ctx, bson.M{"username": username}).Decode(&prof); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	normalize(&prof)
	return &prof, nil
}

func (s *PrivilegedStore) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	var prof models.Profile
	if err := s.usersCol.FindOne(ctx, bson.M{"_id": id}).Decode(&prof); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	normalize(&prof)
	return &prof, nil
}
