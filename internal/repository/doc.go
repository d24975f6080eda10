// Package repository implements the data access layer for the club portal API.
//
// Each repository owns one SurrealDB table (or a small group of tables that
// always change together) and speaks SurrealQL through database.Database.
//
// # Conventions
//
//   - Constructors (NewXxxRepository) accept a database.Database
//   - Lookups return (nil, nil) when the record does not exist
//   - Deletes of missing records return database.ErrNotFound
//   - Unique index violations surface as database.ErrDuplicate
//   - IDs are accepted bare ("abc") or qualified ("event:abc")
//
// Records are decoded by normalising driver values (record ids, datetimes)
// and round-tripping through encoding/json into the model structs. Link
// fields are renamed on the way in, so a registration's "event" becomes
// "event_id".
//
// Writes that must be atomic (registration plus registered_events, form
// submission plus registration, cascading deletes) are issued as a single
// database.AtomicBatch.
//
// # Example Usage
//
//	repo := NewEventRepository(db)
//	event, err := repo.Get(ctx, "event:abc123")
//	if err != nil {
//	    return err
//	}
//	if event == nil {
//	    // Handle not found
//	}
package repository
