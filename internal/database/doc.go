// Connection management:
//
//	db := database.NewSurrealDB(database.Config{
//	    Host:      "localhost",
//	    Port:      "8000",
//	    Namespace: "pclub",
//	    Database:  "main",
//	    User:      "root",
//	    Password:  "secret",
//	})
//	if err := db.Connect(ctx); err != nil { ... }
//	defer db.Close()
//
//	if err := database.Migrate(ctx, db, migrations.FS); err != nil { ... }
package database
