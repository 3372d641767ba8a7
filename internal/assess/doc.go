// Package assess implements the control assessment pipeline.
//
// Architecture overview:
//
//   - Shared result structs (ControlMapping, ControlGap, ValidationResult)
//     model the assessment output stored in results and consumed by reports.
//   - Prioritizer sorts mapped controls into critical/standard/passing tiers
//     from their gap severity, driving differential processing in smart mode.
//   - KeywordValidator scores evidence against control requirement statements
//     by term overlap. It is deterministic and needs no external services,
//     which keeps assessments reproducible and runnable offline.
//   - Runner coordinates batched concurrent validation with rate limiting and
//     per-stage progress callbacks, applying the quick/smart/deep strategy
//     selected in the assessment scope.
//   - Metrics tracks scope, processing, and result counters for each run and
//     serializes into the shape logged and returned with results.
//
// This layout keeps assessment logic internal while allowing cmd/ and the API
// server to treat every run uniformly: build a Runner, feed it a scope's
// controls and the session evidence, collect the Result.
package assess
