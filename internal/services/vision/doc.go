// Package vision provides an OpenAI-compatible chat client used to caption
// and tag gallery images during sidecar synthesis.
//
// # Request Shape
//
// The client sends the image as a base64 data URL alongside a structured
// prompt requesting JSON output with a one-sentence caption and a short list
// of lowercase tags.
//
// # Configuration
//
// Requires api_key and model; base_url and timeout are optional. When
// unconfigured, Available reports false and sidecar synthesis falls back to
// baseline metadata.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors and network timeouts with
// exponential backoff (base 1s, max 10s, up to 3 attempts by default).
// Context cancellation aborts retries immediately.
package vision
