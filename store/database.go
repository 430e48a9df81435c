package store

import (
	"go.mongodb.org/mongo-driver/mongo"
)

// NewDatabase returns the handle every repository hangs its collection off.
func NewDatabase(client *mongo.Client, cfg *Config) (*mongo.Database, error) {
	return client.Database(cfg.DatabaseName), nil
}
