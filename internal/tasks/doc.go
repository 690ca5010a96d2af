// Package tasks runs long catalog operations with real-time progress reporting.
//
// # Core Operations
//
// [ExportEngine] offers two operations:
//
//  1. [ExportEngine.BulkExport] : Export several movie lists concurrently
//     - Fetches each list through a rate limiter
//     - Drops records without a usable identifier
//     - Writes every list in the chosen format on a bounded worker pool
//     - Writes export_manifest.json summarizing successes and failures
//
//  2. [ExportEngine.Snapshot] : Fetch every read endpoint once
//     - Stats, home rows, the full catalog and, when signed in, the collection and watchlist
//     - Failed endpoints are collected instead of aborting the run
//
// # Progress Reporting
//
// Operations send [ProgressUpdate] values on an optional channel.
// Sends use select with default so a slow reader never stalls the engine.
//
// # List Sources
//
// [ExportEngine.Sources] resolves list names such as "collection", "watchlist", "top-rated" or "genre:Drama" into [ListSource] values.
package tasks
