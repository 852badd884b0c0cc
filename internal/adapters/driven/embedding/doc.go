// Package embedding provides decorators shared by the embedding
// service adapters: request rate limiting and an in-process cache.
// The concrete backends live in the ollama and openai subpackages.
package embedding
