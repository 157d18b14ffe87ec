package redis

import (
	"context"
	"errors"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/sagar8080/semantic-search-system/internal/db"
)

// CreateIndex issues FT.CREATE ... ON JSON for def.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	args, err := createArgs(def)
	if err != nil {
		return err
	}

	err = s.do(ctx, s.b().Arbitrary("FT.CREATE").Args(args...).Build()).Error()
	switch {
	case err == nil:
		return nil
	case isRedisErr(err, "index already exists"):
		return db.ErrIndexExists
	default:
		return &db.Error{Op: db.OpCreateIndex, Key: def.Name, Err: err}
	}
}

// DropIndex issues FT.DROPINDEX, with DD when deleteDocs is set.
func (s *Store) DropIndex(ctx context.Context, name string, deleteDocs bool) error {
	args := []string{name}
	if deleteDocs {
		args = append(args, "DD")
	}

	err := s.do(ctx, s.b().Arbitrary("FT.DROPINDEX").Args(args...).Build()).Error()
	switch {
	case err == nil:
		return nil
	case isUnknownIndex(err):
		return db.ErrIndexNotFound
	default:
		return &db.Error{Op: db.OpDropIndex, Key: name, Err: err}
	}
}

// IndexStats reads document count and indexing progress from FT.INFO.
func (s *Store) IndexStats(ctx context.Context, name string) (*db.IndexStats, error) {
	reply, err := s.do(ctx, s.b().Arbitrary("FT.INFO").Args(name).Build()).ToArray()
	if err != nil {
		if isUnknownIndex(err) {
			return nil, db.ErrIndexNotFound
		}
		return nil, &db.Error{Op: db.OpIndexInfo, Key: name, Err: err}
	}
	return parseInfo(name, reply), nil
}

// IndexExists reports whether FT.INFO knows the index.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	_, err := s.IndexStats(ctx, name)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, db.ErrIndexNotFound):
		return false, nil
	default:
		return false, err
	}
}

func isUnknownIndex(err error) bool {
	return isRedisErr(err, "unknown index name") || isRedisErr(err, "no such index")
}

// parseInfo walks the flat key/value reply. Keys it does not know, nested
// attribute and GC sections among them, are skipped.
func parseInfo(name string, reply []rueidis.RedisMessage) *db.IndexStats {
	st := &db.IndexStats{Name: name}
	for i := 0; i+1 < len(reply); i += 2 {
		if !reply[i].IsString() {
			continue
		}
		key, _ := reply[i].ToString()
		val := &reply[i+1]
		switch key {
		case "index_name":
			if val.IsString() {
				st.Name, _ = val.ToString()
			}
		case "num_docs":
			st.Docs = int64(infoNumber(val))
		case "percent_indexed":
			st.PercentIndexed = infoNumber(val)
		case "indexing":
			st.Indexing = infoNumber(val) != 0
		case "hash_indexing_failures":
			st.IndexingFailures = int64(infoNumber(val))
		}
	}
	return st
}

// infoNumber reads a numeric FT.INFO value, which RESP2 servers send as a
// bulk string and newer ones as an integer or double.
func infoNumber(m *rueidis.RedisMessage) float64 {
	switch {
	case m.IsInt64():
		v, _ := m.AsInt64()
		return float64(v)
	case m.IsFloat64():
		v, _ := m.AsFloat64()
		return v
	case m.IsString():
		s, _ := m.ToString()
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return v
	}
	return 0
}

// createArgs renders def as FT.CREATE arguments:
// name ON JSON [PREFIX n p...] [STOPWORDS 0] SCHEMA field...
func createArgs(def *db.IndexDefinition) ([]string, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	args := []string{def.Name, "ON", "JSON"}
	if n := len(def.Prefixes); n > 0 {
		args = append(args, "PREFIX", strconv.Itoa(n))
		args = append(args, def.Prefixes...)
	}
	if def.NoStopwords {
		args = append(args, "STOPWORDS", "0")
	}

	args = append(args, "SCHEMA")
	for i := range def.Fields {
		args = appendField(args, &def.Fields[i])
	}
	return args, nil
}

func appendField(args []string, f *db.IndexField) []string {
	args = append(args, f.Path, "AS", f.Attr, f.Kind.String())

	switch f.Kind {
	case db.KindText:
		if f.Weight > 0 {
			args = append(args, "WEIGHT", strconv.FormatFloat(f.Weight, 'g', -1, 64))
		}
	case db.KindTag:
		if f.Separator != "" {
			args = append(args, "SEPARATOR", f.Separator)
		}
		if f.CaseSensitive {
			args = append(args, "CASESENSITIVE")
		}
	case db.KindVector:
		args = append(args, "HNSW")
		args = appendVectorAttrs(args, f.Vector)
	}
	return args
}

// appendVectorAttrs writes the counted attribute list that follows the algorithm name.
func appendVectorAttrs(args []string, v *db.VectorSpec) []string {
	distance := v.Distance
	if distance == "" {
		distance = db.DistanceCosine
	}
	attrs := []string{
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(v.Dim),
		"DISTANCE_METRIC", string(distance),
	}
	if v.M > 0 {
		attrs = append(attrs, "M", strconv.Itoa(v.M))
	}
	if v.EFConstruct > 0 {
		attrs = append(attrs, "EF_CONSTRUCTION", strconv.Itoa(v.EFConstruct))
	}

	args = append(args, strconv.Itoa(len(attrs)))
	return append(args, attrs...)
}
