// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// # Port Interfaces
//
//   - [Microphone] and [CaptureStream]: audio input devices
//   - [Uploader]: submits an assembled clip to the diagnosis endpoint
//   - [View]: renders the recording and results panels
//   - [TickerFactory]: timer source for the elapsed-time display
//   - [ObjectStore] and [HistoryStore]: optional archive collaborators
//   - [Logger]: structured logging abstraction
//   - [HTTPClient]: HTTP request abstraction for dependency injection
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement them.
package ports
