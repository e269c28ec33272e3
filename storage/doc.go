// Package storage defines the persistence interfaces for locally issued
// access tokens. Implementations must be safe for concurrent use; the
// reference implementation lives in the memory subpackage.
package storage
