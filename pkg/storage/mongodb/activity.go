/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mongodb

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/trustbloc/wallet-engine/pkg/api"
)

// activityDocument keeps the fields of an activity queryable. Params are opaque to the store and are
// kept as JSON so that they read back with the types they were logged with.
type activityDocument struct {
	MongoID    primitive.ObjectID `bson:"_id,omitempty"`
	ActivityID string             `bson:"activityID"`
	Type       string             `bson:"type"`
	Timestamp  time.Time          `bson:"timestamp"`
	Client     string             `bson:"client,omitempty"`
	Operation  string             `bson:"operation,omitempty"`
	Action     string             `bson:"action,omitempty"`
	Status     string             `bson:"status,omitempty"`
	Params     string             `bson:"params,omitempty"`
}

func newActivityDocument(a *api.Activity) (*activityDocument, error) {
	doc := &activityDocument{
		ActivityID: a.ID.String(),
		Type:       a.Type,
		Timestamp:  a.Time.UTC(),
		Client:     a.Data.Client,
		Operation:  a.Data.Operation,
		Action:     a.Data.Action,
		Status:     a.Data.Status,
	}

	if len(a.Data.Params) > 0 {
		b, err := json.Marshal(a.Data.Params)
		if err != nil {
			return nil, fmt.Errorf("encode params of activity %s: %w", a.ID, err)
		}

		doc.Params = string(b)
	}

	return doc, nil
}

func (d *activityDocument) activity() (*api.Activity, error) {
	id, err := uuid.Parse(d.ActivityID)
	if err != nil {
		return nil, fmt.Errorf("invalid activity id %q: %w", d.ActivityID, err)
	}

	a := &api.Activity{
		ID:   id,
		Type: d.Type,
		Time: d.Timestamp,
		Data: api.ActivityData{
			Client:    d.Client,
			Operation: d.Operation,
			Action:    d.Action,
			Status:    d.Status,
		},
	}

	if d.Params != "" {
		if err = json.Unmarshal([]byte(d.Params), &a.Data.Params); err != nil {
			return nil, fmt.Errorf("decode params of activity %s: %w", d.ActivityID, err)
		}
	}

	return a, nil
}
