package main

import (
	"net/http"
	"time"
)

// Generation requests on large prompts can legitimately take a while; the
// timeout bounds a single attempt, not the retry loop around it.
const externalHTTPTimeout = 120 * time.Second

var externalHTTPClient = &http.Client{
	Timeout: externalHTTPTimeout,
}
