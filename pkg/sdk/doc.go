// Package docq provides an embedded Go client for the docq document Q&A
// engine. It wires the ingestion and question answering pipelines directly
// over a chunk store, without the HTTP layer.
//
//	client, _ := docq.New(ctx,
//	    docq.WithOpenAI(os.Getenv("OPENAI_API_KEY")),
//	)
//	defer client.Close()
//
//	ctx = docq.Authenticate(ctx, "user-1", "acme")
//	_, _ = client.IngestDocument(ctx, "handbook", "Handbook", "handbook.pdf", data)
//	ans, _ := client.Ask(ctx, "How many vacation days do I get?")
//
// Every call is scoped to the tenant carried by the authenticated context;
// documents of other tenants are never retrieved.
package docq
