// Package database provides SQLite connectivity for authcore.
//
// This package manages:
//   - Database connection with WAL mode for concurrent access
//   - Embedded schema migrations applied in version order
//   - Connection lifecycle and health checks
//
// Security considerations:
//   - All queries use parameterised statements (no SQL injection)
//   - Database file permissions are set to 0600 (owner read/write only)
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
package database
