// Package resilience guards collaborator calls with retries and a circuit
// breaker. Only errors the errors package marks retryable are retried or
// counted against the breaker by default.
package resilience
