package logging

import (
	"github.com/google/uuid"
)

// RequestIDGenerator generates unique request IDs
type RequestIDGenerator struct {
	prefix string
}

func NewRequestIDGenerator(prefix string) *RequestIDGenerator {
	if prefix == "" {
		prefix = "req"
	}
	return &RequestIDGenerator{
		prefix: prefix,
	}
}

// Generate creates a new request ID. Format: {prefix}_{uuid}
func (g *RequestIDGenerator) Generate() string {
	return g.prefix + "_" + uuid.New().String()
}

var defaultGenerator = NewRequestIDGenerator("req")

func GenerateRequestID() string {
	return defaultGenerator.Generate()
}
