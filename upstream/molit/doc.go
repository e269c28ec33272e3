// Package molit is a client for the MOLIT RTMS real transaction price APIs
// (apis.data.go.kr). It covers sale and lease records for apartments,
// officetels, row houses, detached houses and commercial buildings, parses
// the XML responses, filters cancelled deals and computes per-query summary
// statistics.
package molit
