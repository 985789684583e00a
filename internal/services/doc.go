// Package services implements the query layer over loaded County Health
// Rankings data. It keeps the parsing pipeline separate from read access,
// so embedding applications work against a small, stable surface.
//
// # Architecture
//
// Services follow these principles:
//
//	1. Context propagation on every operation
//	2. Dependency injection for loose coupling
//	3. Immutable snapshots: a reload swaps pointers, never mutates
//
// # Common Service Pattern
//
// Services typically follow this structure:
//
//	service := services.NewDataService(logger)
//	service.Reload(ctx, dataset)
//
//	states, err := service.States(ctx)
//	if err != nil {
//	    return err
//	}
//
//	rows, err := service.Query(ctx, domain.RowFilter{
//	    State:     "Colorado",
//	    Indicator: "v001",
//	    Limit:     50,
//	})
//
// # Error Handling
//
// Services return sentinel errors that callers can test with errors.Is:
//
//	- ErrNoDatasetLoaded before the first successful Reload
//	- ErrStateNotFound and ErrIndicatorNotFound for missing lookups
package services
