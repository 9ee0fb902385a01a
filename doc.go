// Package tinybird provides a Go client SDK for Tinybird, a real-time
// analytics API built on ClickHouse.
//
// The client ingests events, runs SQL, calls published pipe endpoints and
// manages data sources, pipes, tokens, jobs, variables and sinks. Transient
// failures (429 and 5xx responses, network errors) are retried with backoff
// that honors Retry-After.
//
// Basic usage:
//
//	client, err := tinybird.NewForRegion(os.Getenv("TB_TOKEN"), region.GCPUSEast4)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Stream rows into a data source
//	_, err = client.Events.Send(ctx, "events", []map[string]any{
//	    {"timestamp": "2024-01-15 10:30:00", "action": "click"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Call a pipe endpoint
//	result, err := client.Pipes.Data(ctx, "top_actions", map[string]any{"limit": 10})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Rows, "rows")
//
// Errors are typed. Use errors.As to inspect an *APIError, *RateLimitError
// or *AuthenticationError, and errors.Is with the sentinel errors:
//
//	if errors.Is(err, tinybird.ErrNotFound) {
//	    // the pipe does not exist
//	}
//
// When a token is used against the wrong region the API answers 401 or 403;
// the returned AuthenticationError then names the region the token belongs
// to.
package tinybird
