// Package backend groups the handles every service is built from: the
// identity provider, the document store and the blob store.
package backend

import (
	"github.com/dalemusser/mentorhub/internal/app/system/blob"
	"github.com/dalemusser/mentorhub/internal/app/system/identity"
	"go.mongodb.org/mongo-driver/mongo"
)

// Client is constructed once at startup and passed to services explicitly.
type Client struct {
	Auth *identity.Provider
	DB   *mongo.Database
	Blob *blob.Files
}

// New bundles the three handles.
func New(auth *identity.Provider, db *mongo.Database, files *blob.Files) *Client {
	return &Client{Auth: auth, DB: db, Blob: files}
}

// MongoClient returns the driver client behind DB, for transactions.
func (c *Client) MongoClient() *mongo.Client {
	if c == nil || c.DB == nil {
		return nil
	}
	return c.DB.Client()
}
