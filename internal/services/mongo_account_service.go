package services

import (
	"context"
	"crypto/tls"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"github.com/linkplate/backend/internal/models"
)

const resetTokenTTL = 1 * time.Hour

// MongoAccountService manages owner credentials in the "accounts" collection.
type MongoAccountService struct {
	client      *mongo.Client
	db          *mongo.Database
	accountsCol *mongo.Collection
}

func NewMongoAccountService(ctx context.Context, mongoURI, dbName string) (*MongoAccountService, error) {
	tlsCfg := &tls.Config{
		MinVersion: tls.VersionTLS12,
		MaxVersion: tls.VersionTLS12,
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI).SetTLSConfig(tlsCfg))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	db := client.Database(dbName)
	col := db.Collection("accounts")

	// Best-effort indexes.
	_, _ = col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})

	return &MongoAccountService{
		client:      client,
		db:          db,
		accountsCol: col,
	}, nil
}

func (s *MongoAccountService) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoAccountService) Register(ctx context.Context, email, password string) (*models.Account, error) {
	n, err := s.accountsCol.CountDocuments(ctx, bson.M{"email": email})
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, ErrEmailExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hashed),
		CreatedAt:    time.Now(),
	}
	if _, err := s.accountsCol.InsertOne(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *MongoAccountService) Login(ctx context.Context, email, password string) (*models.Account, error) {
	var account models.Account
	if err := s.accountsCol.FindOne(ctx, bson.M{"email": email}).Decode(&account); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidPassword
	}
	return &account, nil
}

func (s *MongoAccountService) GetByID(ctx context.Context, id string) (*models.Account, error) {
	var account models.Account
	if err := s.accountsCol.FindOne(ctx, bson.M{"_id": id}).Decode(&account); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// RequestPasswordReset issues a short-lived token for the account. An
// unknown email yields ErrAccountNotFound; callers should not reveal that
// distinction to the requester.
func (s *MongoAccountService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	token := uuid.New().String()
	expires := time.Now().Add(resetTokenTTL)

	res, err := s.accountsCol.UpdateOne(ctx, bson.M{"email": email}, bson.M{"$set": bson.M{
		"reset_token":   token,
		"reset_expires": expires,
	}})
	if err != nil {
		return "", err
	}
	if res.MatchedCount == 0 {
		return "", ErrAccountNotFound
	}
	return token, nil
}

// ResetPassword consumes a token, replacing the password when it is valid
// and unexpired.
func (s *MongoAccountService) ResetPassword(ctx context.Context, token, newPassword string) error {
	var account struct {
		ID           string    `bson:"_id"`
		ResetExpires time.Time `bson:"reset_expires"`
	}
	if err := s.accountsCol.FindOne(ctx, bson.M{"reset_token": token}).Decode(&account); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrResetTokenInvalid
		}
		return err
	}
	if time.Now().After(account.ResetExpires) {
		return ErrResetTokenInvalid
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	_, err = s.accountsCol.UpdateOne(ctx, bson.M{"_id": account.ID}, bson.M{
		"$set":   bson.M{"password_hash": string(hashed)},
		"$unset": bson.M{"reset_token": "", "reset_expires": ""},
	})
	return err
}
