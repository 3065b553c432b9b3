// Package models defines domain entities and persistence interfaces for the spool account pool.
//
//   - [Action] : the kinds of remote or store actions the pool performs
//   - [ActionRecord] : one dispatched action with its account, arguments, outcome and timing
//
// Persistent entities implement the [Model] interface providing ID generation, timestamps, validation, and soft delete support.
// The [Repository] interface defines standard CRUD operations for database access.
//
// Records never carry account secrets. The target field holds request arguments such as playlist ids and track URIs.
package models
