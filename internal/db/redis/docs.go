package redis

import (
	"context"

	"github.com/redis/rueidis"

	"github.com/sagar8080/semantic-search-system/internal/db"
)

// PutDoc replaces the document at key with doc, which must be a JSON object.
func (s *Store) PutDoc(ctx context.Context, key string, doc []byte) error {
	cmd := s.b().JsonSet().Key(key).Path("$").Value(rueidis.BinaryString(doc)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpJSONSet, Key: key, Err: err}
	}
	return nil
}

// GetDoc returns the whole document at key.
func (s *Store) GetDoc(ctx context.Context, key string) ([]byte, error) {
	raw, err := s.do(ctx, s.b().JsonGet().Key(key).Build()).AsBytes()
	switch {
	case rueidis.IsRedisNil(err):
		return nil, db.ErrKeyNotFound
	case err != nil:
		return nil, &db.Error{Op: db.OpJSONGet, Key: key, Err: err}
	case len(raw) == 0:
		return nil, db.ErrKeyNotFound
	}
	return raw, nil
}

// DeleteDoc removes the document at key and reports whether it existed.
func (s *Store) DeleteDoc(ctx context.Context, key string) (bool, error) {
	n, err := s.do(ctx, s.b().Del().Key(key).Build()).AsInt64()
	if err != nil {
		return false, &db.Error{Op: db.OpDel, Key: key, Err: err}
	}
	return n > 0, nil
}
