/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package lrucache provides a thread-safe in-memory cache with strict LRU eviction,
// hit/miss accounting, and Prometheus metrics.
package lrucache
