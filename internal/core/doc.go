// Package core provides the business logic for bulk catalog ingestion.
//
// This package is the heart of the ingestion pipeline, containing all domain
// logic independent of any transport or UI layer. It can be driven by web
// handlers, CLI tools, or tests without modification.
//
// # Pipeline
//
// A run moves through fixed phases:
//
//  1. Parsing: the source file is decoded into raw rows ([ParseCSV]), with
//     BOM stripping and UTF-8 sanitization applied on the way in.
//  2. Validating: rows are normalized to canonical products and partitioned
//     into valid and invalid sets ([PartitionRows]). Invalid rows never
//     reach the network.
//  3. Uploading: valid rows are split into fixed-size batches
//     ([SplitBatches]) and delivered strictly in order through an
//     [Uploader], with a fixed pause between batches. A failed batch is
//     counted and the run moves on; batches are never retried.
//  4. Terminal: the run completes with a [Summary]. A run that uploaded at
//     least one row counts as a success even when other rows failed.
//
// # Service
//
// [Service] owns run lifecycle: [Service.StartRun] launches a run in the
// background and returns its ID, [Service.SubscribeProgress] streams
// [Progress] snapshots, and [Service.GetRunResult] blocks for the terminal
// [Summary]. A [RunLimiter] bounds concurrent runs.
package core
