//go:build integration

package search_test

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	dbRedis "github.com/sagar8080/semantic-search-system/internal/db/redis"
	"github.com/sagar8080/semantic-search-system/internal/domain"
	"github.com/sagar8080/semantic-search-system/internal/domain/document"
	"github.com/sagar8080/semantic-search-system/internal/domain/search/query"
	searchrepo "github.com/sagar8080/semantic-search-system/internal/repository/search"
)

const (
	itIndex  = "it:docs:idx"
	itPrefix = "it:doc:"
	itDim    = 4
)

var redisAddr string

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:8.2",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("error starting redis container: %v", err)
	}

	redisAddr, err = container.PortEndpoint(ctx, "6379/tcp", "")
	if err != nil {
		log.Fatalf("error getting redis endpoint: %v", err)
	}

	code := m.Run()

	if err := container.Terminate(ctx); err != nil {
		log.Printf("error tearing down redis container: %v", err)
	}
	os.Exit(code)
}

func newRepo(t *testing.T) *searchrepo.Repo {
	t.Helper()
	ctx := context.Background()

	store, err := dbRedis.NewStore(dbRedis.Config{Addrs: []string{redisAddr}})
	require.NoError(t, err)
	t.Cleanup(store.Close)
	require.NoError(t, store.WaitForReady(ctx, 30*time.Second))

	_, err = searchrepo.EnsureIndex(ctx, store, itIndex, itPrefix, itDim,
		searchrepo.HNSWConfig{M: 16, EFConstruct: 200})
	require.NoError(t, err)

	repo := searchrepo.New(store, itIndex, itPrefix, nil)
	docs := []document.Document{
		{
			ID:          "broadband",
			Title:       "Broadband expansion for rural counties",
			Summary:     "Funding for rural broadband.",
			Content:     "The department announced broadband grants.",
			PublishedAt: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
			Topics:      []document.Annotation{{Text: "Broadband", Label: "TOPIC"}},
			Embedding:   []float32{1, 0, 0, 0},
		},
		{
			ID:          "water",
			Title:       "Clean water infrastructure",
			Summary:     "Water system upgrades.",
			Content:     "New investments in drinking water.",
			PublishedAt: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
			Topics:      []document.Annotation{{Text: "Water", Label: "TOPIC"}},
			Embedding:   []float32{0, 1, 0, 0},
		},
	}
	for i := range docs {
		require.NoError(t, repo.Put(ctx, &docs[i]))
	}
	return repo
}

func TestIntegration_PutGetRoundTrip(t *testing.T) {
	repo := newRepo(t)

	got, err := repo.Get(context.Background(), "water")
	require.NoError(t, err)
	require.Equal(t, "Clean water infrastructure", got.Title)
	require.Equal(t, "2023-06-01", got.PublishedDate())
	require.Len(t, got.Embedding, itDim)
}

func TestIntegration_LexicalMatch(t *testing.T) {
	repo := newRepo(t)

	hits, err := repo.Execute(context.Background(), &query.Request{
		Query: &query.Bool{Should: []query.Clause{
			&query.Match{Field: document.FieldTitle, Text: "broadband"},
		}, MinimumShouldMatch: 1},
		Size: 5,
	})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	require.Equal(t, "broadband", hits[0].ID())
}

func TestIntegration_KNN(t *testing.T) {
	repo := newRepo(t)

	hits, err := repo.Execute(context.Background(), &query.Request{
		Query: &query.KNN{Field: document.FieldEmbedding, Vector: []float32{0, 0.9, 0.1, 0}, K: 2},
		Size:  2,
	})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	require.Equal(t, "water", hits[0].ID())
}

func TestIntegration_DateRangeFilter(t *testing.T) {
	repo := newRepo(t)
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	hits, err := repo.Execute(context.Background(), &query.Request{
		Query: &query.KNN{
			Field:  document.FieldEmbedding,
			Vector: []float32{0, 1, 0, 0},
			K:      2,
			Filter: &query.DateRange{Field: document.FieldPublishedAt, From: &from},
		},
		Size: 2,
	})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "broadband", hits[0].ID())
}

func TestIntegration_StatsAndDelete(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	store, err := dbRedis.NewStore(dbRedis.Config{Addrs: []string{redisAddr}})
	require.NoError(t, err)
	t.Cleanup(store.Close)

	require.Eventually(t, func() bool {
		st, err := searchrepo.IndexStats(ctx, store, itIndex)
		return err == nil && st.Ready() && st.Docs >= 2
	}, 10*time.Second, 50*time.Millisecond)

	require.NoError(t, repo.Delete(ctx, "water"))
	require.ErrorIs(t, repo.Delete(ctx, "water"), domain.ErrNotFound)
	_, err = repo.Get(ctx, "water")
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = searchrepo.IndexStats(ctx, store, "it:missing:idx")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
