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

// MongoProfileService is the unprivileged profile store client: direct,
// unbuffered reads and writes against the "users" collection, keyed by
// account id with a secondary index on username.
type MongoProfileService struct {
	client   *mongo.Client
	db       *mongo.Database
	usersCol *mongo.Collection
}

func NewMongoProfileService(ctx context.Context, mongoURI, dbName string) (*MongoProfileService, error) {
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
	col := db.Collection("users")

	// Best-effort index. Non-unique: uniqueness is enforced by the
	// check-then-act lookup below, a documented race accepted for this
	// low-contention domain.
	_, _ = col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "username", Value: 1}},
	})

	return &MongoProfileService{
		client:   client,
		db:       db,
		usersCol: col,
	}, nil
}

func (s *MongoProfileService) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoProfileService) GetByID(ctx context.Context, id string) (*models.Profile, error) {
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

func (s *MongoProfileService) GetByUsername(ctx context.Context, username string) (*models.Profile, error) {
	// First match on the username index; "no match" is distinct from error.
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

// Create provisions the profile document for an account. If one already
// exists for the id it is returned unchanged; a username already present in
// the index fails with ErrUsernameTaken and writes nothing.
func (s *MongoProfileService) Create(ctx context.Context, id, username, displayName string) (*models.Profile, error) {
	existing, err := s.GetByID(ctx, id)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrProfileNotFound) {
		return nil, err
	}

	n, err := s.usersCol.CountDocuments(ctx, bson.M{"username": username})
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, ErrUsernameTaken
	}

	prof := models.Profile{
		ID:          id,
		Username:    username,
		DisplayName: displayName,
		Links:       []models.Link{},
	}
	if _, err := s.usersCol.InsertOne(ctx, prof); err != nil {
		// If a race created it, fetch again.
		if retry, err2 := s.GetByID(ctx, id); err2 == nil {
			return retry, nil
		}
		return nil, err
	}
	return &prof, nil
}

// Update applies a partial field merge; it never replaces the document.
func (s *MongoProfileService) Update(ctx context.Context, id string, req *models.UpdateProfileRequest) error {
	set := bson.M{}
	if req.DisplayName != nil {
		set["display_name"] = *req.DisplayName
	}
	if req.Username != nil {
		n, err := s.usersCol.CountDocuments(ctx, bson.M{
			"username": *req.Username,
			"_id":      bson.M{"$ne": id},
		})
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrUsernameTaken
		}
		set["username"] = *req.Username
	}
	if req.Bio != nil {
		set["bio"] = *req.Bio
	}
	if req.Theme != nil {
		set["theme_preference"] = *req.Theme
	}
	if len(set) == 0 {
		return nil
	}

	res, err := s.usersCol.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrProfileNotFound
	}
	return nil
}

// UpsertLink replaces the link with the same id or appends it.
func (s *MongoProfileService) UpsertLink(ctx context.Context, id string, link models.Link) error {
	prof, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	links := models.MergeLink(prof.Links, link)

	_, err = s.usersCol.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"links": links}})
	return err
}

func (s *MongoProfileService) RemoveLink(ctx context.Context, id, linkID string) error {
	prof, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	links := models.RemoveLink(prof.Links, linkID)

	_, err = s.usersCol.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"links": links}})
	return err
}

// SetMedia records an uploaded object's URL and type. The blob write and
// this record are independently fallible; a failure in between leaves
// stored bytes with no profile reference, which is acceptable here.
func (s *MongoProfileService) SetMedia(ctx context.Context, id, url string, mediaType models.MediaType) error {
	res, err := s.usersCol.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"media_url":  url,
		"media_type": mediaType,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrProfileNotFound
	}
	return nil
}

// normalize keeps the invariant that a profile always carries a links list.
func normalize(prof *models.Profile) {
	if prof.Links == nil {
		prof.Links = []models.Link{}
	}
	for i := range prof.Links {
		prof.Links[i].Icon = models.IconOrDefault(prof.Links[i].Icon)
	}
}
