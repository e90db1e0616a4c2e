// Package container parses a flash-resident binary container into a header
// set, a delimited executable payload, and a footer list of typed credential
// records.
//
// A container is a contiguous byte range laid out as:
//
//	[ base header | header TLV area | payload | footer TLV area ]
//
// Parse validates the base header's checksum and total-length field before
// exposing any slice of the container. The header TLV area yields a "Main
// Header" and/or "Program Header" record that determines where the payload
// ends and the footer area begins. The footer area is iterated lazily,
// without copying, and never fully materialized: callers interested only in
// the first few credential records never pay for the rest.
package container
