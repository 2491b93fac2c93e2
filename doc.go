// Package edgeq provides a Go client that runs edge/select aggregation
// queries against an Elasticsearch 1.x backend.
//
// A query groups documents along one or more edges and computes metrics for
// every group. The client compiles it into one nested aggregation request,
// sends it, and decodes the bucket tree into a cube, a table or a list.
//
// # Low-level API
//
//	client, _ := edgeq.New(ctx, edgeq.WithElasticsearch("http://localhost:9200"),
//	    edgeq.WithIndex("logs"),
//	)
//	defer client.Close()
//	res, _ := client.Query(ctx, edgeq.Query{
//	    Edges: []edgeq.Edge{{Name: "color", Value: "color_field"}},
//	})
//
// # Fluent API
//
//	res, _ := client.From("logs").
//	    GroupBy("color", "color_field").
//	    Sum("total", "price").
//	    Format(edgeq.FormatTable).
//	    Do(ctx)
//
// # Response cache
//
// With WithCache the client keeps aggregation responses in Valkey or Redis,
// keyed by the request body, so identical queries skip the backend.
package edgeq
