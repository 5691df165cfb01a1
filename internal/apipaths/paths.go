package apipaths

// Auth API surface paths, relative to the API base URL. Used by routes and by the client.

const (
	Prefix       = "/api"
	Health       = "/health"
	Register     = "/register"
	Login        = "/login"
	Verify       = "/verify"
	Chat         = "/chat"
	ChatHistory  = "/chat/history"
	GeneratePlan = "/generate_plan"
)
