// Package mcpserver exposes the Korean real estate data tools over the
// Model Context Protocol. It registers tools for MOLIT transaction
// records, Applyhome subscription data, Onbid public auctions and a few
// financial calculators on a streamable HTTP endpoint, and wires the
// endpoint behind the OAuth request guard.
package mcpserver
