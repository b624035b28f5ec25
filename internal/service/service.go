// Package service contains the business logic.
//
// It sits between the handler layer and the upstream clients.
// It receives validated data from the handler, normalizes it,
// and delegates the actual work to the collaborator
package service
