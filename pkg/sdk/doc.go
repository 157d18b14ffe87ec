// Package semsearch embeds the press-release retrieval core in a Go program.
//
// The client talks to Redis directly and runs the same orchestrator as the
// HTTP API: simple, advanced and pro searches, the knowledge-base variant,
// plain document search and answer synthesis.
//
//	client, _ := semsearch.New(ctx,
//	    semsearch.WithRedis("", "localhost:6379"),
//	    semsearch.WithEmbedder(myEmbedder),
//	)
//	defer client.Close()
//
//	_, _ = client.EnsureIndex(ctx)
//	_ = client.Put(ctx, semsearch.Document{ID: "pr-1", Title: "...", Embedding: vec})
//	report, _ := client.PutMany(ctx, releases, semsearch.BatchOptions{})
//
//	results, _ := client.Search(ctx, "rural broadband", semsearch.SearchOptions{
//	    Mode:   semsearch.ModePro,
//	    K:      10,
//	    Rerank: true,
//	})
package semsearch
