// Package domain contains the core entities and value objects for coughdx.
//
// This package has no dependencies on infrastructure concerns (HTTP, audio
// devices, storage, logging).
//
// # Entities
//
//   - [Clip]: audio captured during one recording, assembled into a [Blob]
//   - [UploadResponse]: the diagnosis endpoint's JSON reply
//   - [Outcome]: what the result panel renders for one upload
//   - [SessionState]: Idle, Recording, Uploading, ResultShown
//   - [HistoryRecord]: one archived diagnosis
package domain
