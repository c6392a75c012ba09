// Command kinexis-demo wires one entity, Employer, through the write-behind,
// cache-aside and refresh-ahead patterns against a local Redis and an
// in-memory store standing in for a store of record, then exercises
// save/findById/delete.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/foogaro/kinexis"
	"github.com/foogaro/kinexis/cachestore"
	"github.com/foogaro/kinexis/config"
	"github.com/foogaro/kinexis/idcodec"
	"github.com/foogaro/kinexis/logger"
	"github.com/foogaro/kinexis/policy"
	"github.com/foogaro/kinexis/store"
)

// Employer is the demo entity, with a UUID id to exercise UUID-keyed
// registration end to end.
type Employer struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	City string    `json:"city"`
}

func main() {
	log := logger.NewConsoleLogger()

	addr := os.Getenv("KINEXIS_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal("cannot reach redis at %s: %s", addr, err)
	}

	registry := policy.NewRegistry()
	idc := idcodec.UUID()

	primary := store.NewMemoryStore[Employer, uuid.UUID](func(e Employer) uuid.UUID { return e.ID })

	cache := cachestore.New[Employer, uuid.UUID](rdb, "employer", policy.JSON, 10*time.Second,
		func(e Employer) uuid.UUID { return e.ID }, idc.Format)

	reg, err := kinexis.Register(registry, kinexis.EntityConfig[Employer, uuid.UUID]{
		Name: "Employer",
		Policy: policy.Policy{
			Bits:   policy.CacheAside | policy.RefreshAhead | policy.WriteBehind,
			Format: policy.JSON,
			TTL:    10 * time.Second,
		},
		Identify: func(e Employer) uuid.UUID { return e.ID },
		ParseID:  idc.Parse,
		FormatID: idc.Format,
		Redis:    rdb,
		Cache:    cache,
		PrimaryStores: []store.Named[Employer, uuid.UUID]{
			{Name: "MemoryStore", Store: primary},
		},
		Logger: log,
		Config: config.New(config.WithFixedDelay(2 * time.Second)),
	})
	if err != nil {
		log.Fatal("register Employer: %s", err)
	}

	if err := reg.Start(ctx); err != nil {
		log.Fatal("start Employer pipeline: %s", err)
	}
	defer reg.Shutdown()

	facade := reg.Facade()

	e := Employer{ID: uuid.New(), Name: "Ada Lovelace", City: "London"}
	if err := facade.Save(ctx, e); err != nil {
		log.Fatal("save: %s", err)
	}
	log.Info("appended write-behind intent for %s", e.ID)

	time.Sleep(500 * time.Millisecond)

	if found, ok, err := facade.FindByID(ctx, e.ID); err != nil {
		log.Error("find: %s", err)
	} else if ok {
		fmt.Printf("found: %+v\n", found)
	} else {
		fmt.Println("not found yet (write-behind still draining)")
	}

	if err := facade.Delete(ctx, e.ID); err != nil {
		log.Error("delete: %s", err)
	}
}
