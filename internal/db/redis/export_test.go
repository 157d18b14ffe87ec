package redis

import (
	"github.com/redis/rueidis"

	"github.com/sagar8080/semantic-search-system/internal/db"
)

// newTestStore wraps an injected client with the default fusion.
func newTestStore(c rueidis.Client) *Store {
	return &Store{client: c, fusion: db.DefaultFusion()}
}
