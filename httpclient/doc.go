// Package httpclient is the JSON client used to reach language model and
// embedding servers.
//
// Failures are returned as AppErrors: connection problems, 5xx and 429
// responses are retryable EXTERNAL_SERVICE_ERROR / RATE_LIMITED errors,
// other 4xx responses are not. Retry and circuit breaking come from the
// resilience package and only act on retryable errors.
//
//	client, err := httpclient.New(httpclient.Config{
//	    Name:    "ollama",
//	    BaseURL: "http://localhost:11434",
//	    Retry:   &resilience.RetryConfig{MaxAttempts: 3},
//	})
//	var out generateResponse
//	err = client.PostJSON(ctx, "/api/generate", body, &out)
package httpclient
