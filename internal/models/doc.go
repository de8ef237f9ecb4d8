// Package models defines the domain entities for playlist synchronization.
//
// The types fall into three categories:
//
// 1. Snapshots: immutable inputs to one sync pass
//   - [RemoteItem] : one entry of a remote playlist listing
//   - [LocalArtifact] : one managed media file found in the target directory
//
// 2. Plans: the reconciler's decided actions
//   - [PlanEntry] : one action for one item id, with a human-readable reason
//   - [Action] : Download, Keep, Remove, or NoOp
//
// 3. Results: per-target and run-level outcomes
//   - [TargetResult] : outcome of syncing one target, with ordered id lists
//   - [RunReport] : aggregate over all configured targets
//
// All types are plain data; behavior lives in the tasks package.
package models
