package redis

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/redis/rueidis"
	"golang.org/x/sync/errgroup"

	"github.com/sagar8080/semantic-search-system/internal/db"
	"github.com/sagar8080/semantic-search-system/internal/domain/search/query"
)

const defaultVectorAttr = "embedding"

var (
	errNoIndex = errors.New("index name is required")
	errNoLimit = errors.New("result limit must be positive")
)

// SearchText runs a scored lexical search (FT.SEARCH ... WITHSCORES).
func (s *Store) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	switch {
	case q.IndexName == "":
		return nil, errNoIndex
	case q.TopK <= 0:
		return nil, errNoLimit
	}

	expr, err := renderText(q.Query)
	if err != nil {
		return nil, err
	}
	if expr == "" {
		return nil, db.ErrNoSearchTerms
	}

	raw, err := s.ftSearch(ctx, q.IndexName, expr,
		"WITHSCORES",
		"LIMIT", "0", strconv.Itoa(q.TopK),
		"DIALECT", "2",
	)
	if err != nil {
		return nil, err
	}
	return parseReply(raw, true)
}

// SearchKNN runs a k-nearest-neighbour search, restricted to q.Filter when set.
// Scores are cosine similarities 1-distance, floored at 0.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	switch {
	case q.IndexName == "":
		return nil, errNoIndex
	case len(q.Vector) == 0:
		return nil, errors.New("query vector is required")
	case q.K <= 0:
		return nil, errNoLimit
	}

	attr := q.Field
	if attr == "" {
		attr = defaultVectorAttr
	}

	scope := "*"
	if q.Filter != nil {
		f, err := renderText(q.Filter)
		if err != nil {
			return nil, err
		}
		if f != "" {
			scope = "(" + f + ")"
		}
	}

	k := strconv.Itoa(q.K)
	raw, err := s.ftSearch(ctx, q.IndexName,
		scope+"=>[KNN "+k+" @"+attr+" $BLOB AS "+db.ScoreField+"]",
		"SORTBY", db.ScoreField,
		"LIMIT", "0", k,
		"PARAMS", "2", "BLOB", encodeVector(q.Vector),
		"DIALECT", "2",
	)
	if err != nil {
		return nil, err
	}
	return parseReply(raw, false)
}

// SearchHybrid runs the legs concurrently, one FT.SEARCH each, and fuses them with the
// store's Fusion. Lexical legs fetch q.Size hits and KNN legs their own k. A lexical leg
// without searchable terms contributes no hits. The first failing leg cancels the rest
// and fails the call.
func (s *Store) SearchHybrid(ctx context.Context, q *db.HybridQuery) (*db.SearchResult, error) {
	switch {
	case len(q.Legs) == 0:
		return nil, errors.New("hybrid search needs at least one leg")
	case q.Size <= 0:
		return nil, errNoLimit
	}

	legs := make([][]db.SearchEntry, len(q.Legs))
	g, gctx := errgroup.WithContext(ctx)
	for i, leg := range q.Legs {
		g.Go(func() error {
			res, err := s.runLeg(gctx, q.IndexName, leg, q.Size)
			if err != nil {
				return fmt.Errorf("hybrid leg %d: %w", i, err)
			}
			legs[i] = res.Entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fused := s.fusion.Fuse(legs, q.Size)
	return &db.SearchResult{Total: len(fused), Entries: fused}, nil
}

func (s *Store) runLeg(ctx context.Context, index string, leg query.Clause, size int) (*db.SearchResult, error) {
	if knn, ok := leg.(*query.KNN); ok {
		return s.SearchKNN(ctx, &db.KNNQuery{
			IndexName: index,
			Field:     knn.Field,
			Vector:    knn.Vector,
			K:         knn.K,
			Filter:    knn.Filter,
		})
	}
	res, err := s.SearchText(ctx, &db.TextQuery{IndexName: index, Query: leg, TopK: size})
	if errors.Is(err, db.ErrNoSearchTerms) {
		return &db.SearchResult{}, nil
	}
	return res, err
}

func (s *Store) ftSearch(ctx context.Context, index, expr string, opts ...string) ([]rueidis.RedisMessage, error) {
	cmd := s.b().Arbitrary("FT.SEARCH").Args(index, expr).Args(opts...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err == nil {
		return raw, nil
	}
	if isUnknownIndex(err) {
		return nil, &db.Error{Op: db.OpSearch, Key: index, Err: errors.Join(db.ErrIndexNotFound, err)}
	}
	return nil, &db.Error{Op: db.OpSearch, Key: index, Err: err}
}

// parseReply reads an FT.SEARCH reply: [total, key, (score,) fields, ...].
// With withScores unset the hit score comes from the KNN distance field instead.
// Malformed hits are skipped.
func parseReply(raw []rueidis.RedisMessage, withScores bool) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}

	stride := 2
	if withScores {
		stride = 3
	}
	res := &db.SearchResult{Total: int(total)}
	if total == 0 {
		return res, nil
	}
	res.Entries = make([]db.SearchEntry, 0, (len(raw)-1)/stride)

	for i := 1; i+stride-1 < len(raw); i += stride {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		pairs, err := raw[i+stride-1].ToArray()
		if err != nil {
			continue
		}
		e := db.SearchEntry{Key: key, Fields: fieldMap(pairs)}

		if withScores {
			str, err := raw[i+1].ToString()
			if err != nil {
				continue
			}
			if e.Score, err = strconv.ParseFloat(str, 64); err != nil {
				continue
			}
		} else if dist, ok := e.Fields[db.ScoreField]; ok {
			delete(e.Fields, db.ScoreField)
			if d, err := strconv.ParseFloat(dist, 64); err == nil {
				e.Score = max(0, 1-d)
			}
		}
		res.Entries = append(res.Entries, e)
	}
	return res, nil
}

func fieldMap(pairs []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(pairs)/2)
	for j := 0; j+1 < len(pairs); j += 2 {
		name, err1 := pairs[j].ToString()
		value, err2 := pairs[j+1].ToString()
		if err1 == nil && err2 == nil {
			m[name] = value
		}
	}
	return m
}

// encodeVector packs v as little-endian FLOAT32, the blob format of a KNN $BLOB param.
func encodeVector(v []float32) string {
	buf := make([]byte, 0, 4*len(v))
	for _, f := range v {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return string(buf)
}
