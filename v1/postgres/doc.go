// Package postgres stores messages a pipeline skips in a PostgreSQL
// dead-letter table, using gorm over the pgx driver.
//
// *Postgres implements pipeline.DeadLetters. Each dead letter keeps the
// message key, raw payload, headers and the reason it could not be
// transcoded, so it can be inspected, fixed and replayed later:
//
//	store, err := postgres.NewPostgres(postgres.Config{
//	    Connection: postgres.Connection{Host: "localhost", User: "pbcodec", Password: "secret", DbName: "pbcodec"},
//	})
//	if err != nil {
//	    return err
//	}
//	defer store.GracefulShutdown()
//
//	if err := store.Migrate(ctx); err != nil {
//	    return err
//	}
//	p, err := pipeline.New(cfg, source, sink, unicornCodec, nil, pipeline.WithDeadLetters(store))
//
//	letters, err := store.ListDeadLetters(ctx, 100)
//	for _, l := range letters {
//	    fmt.Println(l.Key, l.Reason)
//	}
//
// With fx, include FXModule and provide a postgres.Config; the table is
// migrated on start.
package postgres
