// Package core provides the business logic for service feedback datasets.
//
// This package holds the ingestion, validation and resolution pipeline,
// independent of any UI or transport layer. It can be used by web handlers,
// CLI tools, or tests without modification.
//
// # Architecture
//
//   - Parse: raw CSV text into a [Dataset] of typed [Value] cells.
//   - Validator: applies the rule table ([DefaultRules]) and produces a
//     [Report]. Validation is pure and idempotent.
//   - Session: the single writer. Edits, deletes and confirmations go
//     through [Session], which re-validates after every mutation and
//     persists through a [DatasetStore].
//
// # Resolution Flow
//
//  1. Client calls [Session.Ingest] with the uploaded file
//  2. The file is checked ([FileConstraintError]) and parsed ([ParseError])
//  3. The report's issues are shown to the operator
//  4. Each action ([Session.Edit], [Session.Delete], [Session.Confirm])
//     addresses one issue by [IssueRef] and returns the fresh report
//
// Confirmations are keyed on the row's stable id, the column and the exact
// value, so they follow the physical row across deletes and stop applying
// once the cell holds a different value.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - FILE001-FILE006: Upload file errors (size, type, format)
//   - VAL002: Rejected replacement values
//   - RES001-RES004: Resolution errors (stale issue, busy session)
//   - DB004-DB007: Storage errors
//
// # History
//
// Every operator action is recorded in an in-memory [History] with severity
// levels:
//
//   - Low: Confirmations
//   - Medium: Cell edits
//   - High: Uploads, row deletions
//   - Critical: Clears
package core
