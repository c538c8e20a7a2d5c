package main

import (
	"net/http"
	"time"
)

// longPollTimeout is the getUpdates timeout in seconds. The HTTP timeout
// below must stay above it.
const longPollTimeout = 30

// httpClient is the shared Bot API client with timeouts and connection pooling.
var httpClient = &http.Client{
	Timeout: 2 * longPollTimeout * time.Second,
	Transport: &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		MaxIdleConnsPerHost: 5,
	},
}
