/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	mongooptions "go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trustbloc/wallet-engine/pkg/api"
	"github.com/trustbloc/wallet-engine/pkg/storage"
)

const mongoDBDocumentIDFieldName = "_id"

type document struct {
	ID    string `bson:"_id"`
	Value []byte `bson:"value"`
}

// Store keeps values in a collection, one document per ID.
type Store struct {
	mongoClient *Client
	collection  string
}

// NewStore creates a Store over the named collection.
func NewStore(mongoClient *Client, collection string) *Store {
	return &Store{mongoClient: mongoClient, collection: collection}
}

func (s *Store) Get(ctx context.Context, id string) ([]byte, error) {
	doc := &document{}

	err := s.mongoClient.Database().Collection(s.collection).
		FindOne(ctx, bson.D{{Key: mongoDBDocumentIDFieldName, Value: id}}).
		Decode(doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("get %s: %w", id, api.ErrNotFound)
		}

		return nil, fmt.Errorf("failed to query MongoDB: %w", err)
	}

	return doc.Value, nil
}

func (s *Store) Put(ctx context.Context, id string, value []byte) error {
	if id == "" {
		return errors.New("id is required")
	}

	_, err := s.mongoClient.Database().Collection(s.collection).ReplaceOne(ctx,
		bson.D{{Key: mongoDBDocumentIDFieldName, Value: id}},
		&document{ID: id, Value: value},
		mongooptions.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to store in MongoDB: %w", err)
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.mongoClient.Database().Collection(s.collection).
		DeleteOne(ctx, bson.D{{Key: mongoDBDocumentIDFieldName, Value: id}})
	if err != nil {
		return fmt.Errorf("failed to delete from MongoDB: %w", err)
	}

	return nil
}

// List returns the stored IDs in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	cursor, err := s.mongoClient.Database().Collection(s.collection).Find(ctx, bson.D{},
		mongooptions.Find().
			SetProjection(bson.D{{Key: mongoDBDocumentIDFieldName, Value: 1}}).
			SetSort(bson.D{{Key: mongoDBDocumentIDFieldName, Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query MongoDB: %w", err)
	}

	var docs []document
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode MongoDB documents: %w", err)
	}

	ids := make([]string, len(docs))
	for i := range docs {
		ids[i] = docs[i].ID
	}

	return ids, nil
}

// ActivityStore inserts one document per activity.
type ActivityStore struct {
	mongoClient *Client
	collection  string
}

func NewActivityStore(mongoClient *Client, collection string) *ActivityStore {
	return &ActivityStore{mongoClient: mongoClient, collection: collection}
}

func (s *ActivityStore) Log(activity *api.Activity) error {
	if activity == nil {
		return errors.New("activity is required")
	}

	doc, err := newActivityDocument(activity)
	if err != nil {
		return err
	}

	ctx, cancel := s.mongoClient.ContextWithTimeout()
	defer cancel()

	if _, err = s.mongoClient.Database().Collection(s.collection).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert activity: %w", err)
	}

	return nil
}

// List returns the activities in insertion order.
func (s *ActivityStore) List(ctx context.Context) ([]*api.Activity, error) {
	cursor, err := s.mongoClient.Database().Collection(s.collection).Find(ctx, bson.D{},
		mongooptions.Find().SetSort(bson.D{{Key: mongoDBDocumentIDFieldName, Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query MongoDB: %w", err)
	}

	var docs []*activityDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode MongoDB documents: %w", err)
	}

	activities := make([]*api.Activity, 0, len(docs))

	for _, doc := range docs {
		a, err := doc.activity()
		if err != nil {
			return nil, err
		}

		activities = append(activities, a)
	}

	return activities, nil
}

// Provider opens MongoDB backed stores, one collection per store.
type Provider struct {
	client *Client
}

var _ storage.Provider = (*Provider)(nil)

func NewProvider(client *Client) *Provider {
	return &Provider{client: client}
}

func (p *Provider) OpenKeyStore() (api.KeyStore, error) {
	return NewStore(p.client, storage.KeyStoreName), nil
}

func (p *Provider) OpenCredentialStore() (api.CredentialStore, error) {
	return NewStore(p.client, storage.CredentialStoreName), nil
}

func (p *Provider) OpenActivityStore() (storage.ActivityStore, error) {
	return NewActivityStore(p.client, storage.ActivityStoreName), nil
}

func (p *Provider) Close() error {
	return p.client.Close()
}
