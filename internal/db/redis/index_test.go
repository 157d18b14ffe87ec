package redis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/sagar8080/semantic-search-system/internal/db"
)

func testDefinition() *db.IndexDefinition {
	return &db.IndexDefinition{
		Name:        "pr:idx",
		Prefixes:    []string{"pr:"},
		NoStopwords: true,
		Fields: []db.IndexField{
			{Path: "$.title", Attr: "title", Kind: db.KindText, Weight: 2},
			{Path: "$.url", Attr: "url", Kind: db.KindTag},
			{Path: "$.published_ts", Attr: "published_ts", Kind: db.KindNumeric},
			{Path: "$.embedding", Attr: "embedding", Kind: db.KindVector,
				Vector: &db.VectorSpec{Dim: 256, M: 16, EFConstruct: 200}},
		},
	}
}

func TestCreateArgs(t *testing.T) {
	args, err := createArgs(testDefinition())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "pr:idx ON JSON PREFIX 1 pr: STOPWORDS 0 SCHEMA " +
		"$.title AS title TEXT WEIGHT 2 " +
		"$.url AS url TAG " +
		"$.published_ts AS published_ts NUMERIC " +
		"$.embedding AS embedding VECTOR HNSW 10 TYPE FLOAT32 DIM 256 DISTANCE_METRIC COSINE M 16 EF_CONSTRUCTION 200"
	if got := strings.Join(args, " "); got != want {
		t.Errorf("args =\n%s\nwant\n%s", got, want)
	}
}

func TestCreateArgs_TagOptions(t *testing.T) {
	args, err := createArgs(&db.IndexDefinition{
		Name:   "idx",
		Fields: []db.IndexField{{Path: "$.tags", Attr: "tags", Kind: db.KindTag, Separator: "|", CaseSensitive: true}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.Join(args, " "); got != "idx ON JSON SCHEMA $.tags AS tags TAG SEPARATOR | CASESENSITIVE" {
		t.Errorf("args = %q", got)
	}
}

func TestCreateArgs_Invalid(t *testing.T) {
	_, err := createArgs(&db.IndexDefinition{Name: "idx"})
	if !errors.Is(err, db.ErrInvalidIndex) {
		t.Fatalf("expected ErrInvalidIndex, got %v", err)
	}
}

func TestCreateIndex(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	var got []string
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			got = cmd
			return cmd[0] == "FT.CREATE"
		})).
		Return(mock.Result(mock.RedisString("OK")))

	s := newTestStore(c)
	if err := s.CreateIndex(context.Background(), testDefinition()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertContains(t, got, "STOPWORDS")
	assertContains(t, got, "HNSW")
}

func TestCreateIndex_AlreadyExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), gomock.Any()).
		Return(mock.Result(mock.RedisError("Index already exists")))

	err := newTestStore(c).CreateIndex(context.Background(), testDefinition())
	if !errors.Is(err, db.ErrIndexExists) {
		t.Errorf("expected ErrIndexExists, got %v", err)
	}
}

func TestCreateIndex_InvalidDefinitionSkipsServer(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	err := newTestStore(c).CreateIndex(context.Background(), &db.IndexDefinition{Name: "idx"})
	if !errors.Is(err, db.ErrInvalidIndex) {
		t.Errorf("expected ErrInvalidIndex, got %v", err)
	}
}

func TestDropIndex(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().Do(gomock.Any(), mock.Match("FT.DROPINDEX", "pr:idx")).Return(mock.Result(mock.RedisString("OK")))
	c.EXPECT().Do(gomock.Any(), mock.Match("FT.DROPINDEX", "pr:idx", "DD")).Return(mock.Result(mock.RedisString("OK")))
	c.EXPECT().Do(gomock.Any(), mock.Match("FT.DROPINDEX", "gone")).Return(mock.Result(mock.RedisError("Unknown Index name")))

	s := newTestStore(c)
	if err := s.DropIndex(context.Background(), "pr:idx", false); err != nil {
		t.Fatalf("keep docs: %v", err)
	}
	if err := s.DropIndex(context.Background(), "pr:idx", true); err != nil {
		t.Fatalf("delete docs: %v", err)
	}
	if err := s.DropIndex(context.Background(), "gone", false); !errors.Is(err, db.ErrIndexNotFound) {
		t.Fatalf("expected ErrIndexNotFound, got %v", err)
	}
}

func TestIndexStats(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.INFO", "pr:idx")).
		Return(mock.Result(mock.RedisArray(
			mock.RedisString("index_name"), mock.RedisString("pr:idx"),
			mock.RedisString("attributes"), mock.RedisArray(
				mock.RedisArray(mock.RedisString("identifier"), mock.RedisString("$.title")),
			),
			mock.RedisString("num_docs"), mock.RedisString("42"),
			mock.RedisString("hash_indexing_failures"), mock.RedisInt64(3),
			mock.RedisString("indexing"), mock.RedisInt64(1),
			mock.RedisString("percent_indexed"), mock.RedisString("0.5"),
		)))

	st, err := newTestStore(c).IndexStats(context.Background(), "pr:idx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := db.IndexStats{Name: "pr:idx", Docs: 42, PercentIndexed: 0.5, Indexing: true, IndexingFailures: 3}
	if *st != want {
		t.Errorf("stats = %+v, want %+v", *st, want)
	}
}

func TestIndexExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().Do(gomock.Any(), mock.Match("FT.INFO", "pr:idx")).
		Return(mock.Result(mock.RedisArray(mock.RedisString("index_name"), mock.RedisString("pr:idx"))))
	c.EXPECT().Do(gomock.Any(), mock.Match("FT.INFO", "gone")).
		Return(mock.Result(mock.RedisError("Unknown index name")))
	c.EXPECT().Do(gomock.Any(), mock.Match("FT.INFO", "slow")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := newTestStore(c)
	if ok, err := s.IndexExists(context.Background(), "pr:idx"); err != nil || !ok {
		t.Errorf("pr:idx: %v, %v", ok, err)
	}
	if ok, err := s.IndexExists(context.Background(), "gone"); err != nil || ok {
		t.Errorf("gone: %v, %v", ok, err)
	}
	if _, err := s.IndexExists(context.Background(), "slow"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("slow: expected deadline error, got %v", err)
	}
}

func assertContains(t *testing.T, args []string, want string) {
	t.Helper()
	for _, a := range args {
		if a == want {
			return
		}
	}
	t.Errorf("expected %q in args %v", want, args)
}
