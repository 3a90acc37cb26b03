// Package provider defines the uniform text-generation contract and its
// implementations for the Anthropic Messages, Google Gemini and Friendli
// (OpenAI-compatible) APIs.
package provider
