// Package inspector serves a running host over HTTP.
//
// Routes:
//
//	GET  /ws              live stream of protocol frames
//	GET  /tree            JSON snapshot of the paint tree
//	GET  /metrics         Prometheus metrics
//	GET  /snapshots       stored snapshot IDs
//	POST /snapshots       capture and store a snapshot
//	GET  /snapshots/{id}  a stored snapshot
//
// A websocket client first receives a hello frame, then a batch flagged
// FlagInitial that replays the whole tree as Append patches, then every
// batch the host paints. A client that cannot keep up misses batches; the
// next batch it does receive carries FlagDropped.
package inspector
