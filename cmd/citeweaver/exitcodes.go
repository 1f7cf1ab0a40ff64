package main

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (runtime failure, storage, export)
	ExitConfigError = 2 // Configuration error (bad config file, unreadable inputs)
	ExitDataError   = 3 // Data error (seed corpus empty or entirely unresolvable)
)
