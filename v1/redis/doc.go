// Package redis provides a small Redis client used as a schema file store.
//
// Compiled schema files are kept as plain string values, one key per file,
// typically below a common prefix such as "protos/". schema.RedisSource reads
// them back when a class is resolved.
//
// Basic Usage:
//
//	client, err := redis.NewClient(redis.Config{Host: "localhost"})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Set(ctx, "protos/unicorn.pb", data, 0)
//	data, err = client.Get(ctx, "protos/unicorn.pb")
//	if redis.IsNilError(err) {
//	    // not uploaded yet
//	}
//
// Deployment modes:
//
// One address builds a standalone client. Several entries in Addrs build a
// cluster client. Setting MasterName turns Addrs into sentinel addresses and
// builds a failover client.
//
// FX Integration:
//
//	app := fx.New(
//	    logger.FXModule,
//	    redis.FXModule,
//	    fx.Provide(func() redis.Config { return cfg }),
//	)
package redis
