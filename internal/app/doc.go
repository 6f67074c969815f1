// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the run lifecycle: load the pipeline,
// register task handlers, open storage, execute the task graph and report.
// It is decoupled from any specific entrypoint like a CLI or server.
package app
