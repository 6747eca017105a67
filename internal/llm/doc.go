// Package llm implements text-classification backends for category
// suggestions on top of hosted language models. It supports OpenAI and
// Anthropic, with response caching, rate limiting, retries and
// deduplication of identical in-flight requests.
package llm
