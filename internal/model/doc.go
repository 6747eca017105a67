// Package model defines the core domain types shared by the ledger, the
// category registry and the aggregation engine.
package model
