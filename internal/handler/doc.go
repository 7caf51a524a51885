// Package handler implements the HTTP layer of the console API.
//
// All handlers follow REST conventions:
// - GET for retrieval
// - POST for creation
// - PUT for updates and full replacement
// - DELETE for removal
//
// Error responses return JSON with an {error, details} structure and a
// status code derived from the service error taxonomy. Endpoints other
// than login require a Bearer session token; mutations additionally
// require the admin role.
package handler
