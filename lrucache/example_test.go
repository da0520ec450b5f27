/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package lrucache

import (
	"fmt"
	"log"
)

func Example() {
	type User struct {
		ID   int
		Name string
	}

	// Make, configure and register Prometheus metrics collector.
	metricsCollector := NewPrometheusMetricsWithOpts(PrometheusMetricsOpts{Namespace: "myservice"})
	metricsCollector.MustRegister()
	defer metricsCollector.Unregister()

	// Make LRU cache for storing maximum 1000 entries.
	cache, err := New[string, User](1000, metricsCollector)
	if err != nil {
		log.Fatal(err)
	}

	cache.Add("user:1", User{1, "John"})

	if user, found := cache.Get("user:1"); found {
		fmt.Printf("%d, %s\n", user.ID, user.Name)
	}
	if _, found := cache.Get("user:2"); !found {
		fmt.Println("user:2 is not cached")
	}

	stats := cache.Stats()
	fmt.Printf("hits: %d, misses: %d, ratio: %.2f\n", stats.Hits, stats.Misses, cache.HitRatio())

	// Output:
	// 1, John
	// user:2 is not cached
	// hits: 1, misses: 1, ratio: 0.50
}

func ExampleLRUCache_GetOrLoad() {
	cache, err := New[string, string](100, nil)
	if err != nil {
		log.Fatal(err)
	}

	// Concurrent GetOrLoad calls for the same key share a single load.
	greeting, err := cache.GetOrLoad("greeting", func() (string, error) {
		return "hello", nil
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(greeting)

	// Output:
	// hello
}
