// Package llm provides an OpenRouter-compatible chat client for the review
// stage.
//
// The client sends system/user prompt pairs with response_format=json_object
// and returns the raw JSON payload the model produced. Callers decode it with
// DecodeJSON, which tolerates common model quirks (code fences, prose around
// the object).
//
// # Configuration
//
// Requires api_key and model; base_url, referer, title, and timeout are
// optional. The review stage falls back to heuristic comments when no key is
// configured, so an unconfigured client is not an error at startup.
//
// # Retry Behaviour
//
// Requests retry on HTTP 408/429/5xx and network timeouts with exponential
// backoff (base 1s, max 10s, up to 5 attempts), honoring Retry-After when
// the server sends one. Context cancellation aborts retries immediately.
package llm
