// Package dxapi calls a remote JSON-over-HTTP API whose endpoints are
// addressed by object ID.
//
// Every route of the API is exposed as one method on [Client]. Object routes
// take the ID of the remote object, app routes take an app hash ID or an app
// name plus an optional alias, and global routes take neither:
//
//	c := dxapi.New(transport)
//	desc, err := c.RecordDescribe(ctx, "record-0001", nil)
//	job, err := c.AppRun(ctx, "app-bwa", "1.2.0", map[string]any{"input": in})
//	me, err := c.SystemWhoami(ctx, nil)
//
// The request body must encode to a JSON object or array; a nil body is sent
// as {}. The result is the decoded JSON response ([]any or map[string]any).
// A response status outside 2xx is returned as *APIError carrying the status
// and the server's error payload. Calls the client can tell are malformed
// (empty IDs, an alias next to a hash ID, scalar bodies) fail with
// *UsageError before anything is sent.
//
// Per-call transport settings are given as [CallOption] values and reach the
// [Transport] unchanged in [Request.Overrides].
package dxapi
