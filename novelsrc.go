// Package novelsrc acquires structured content from web-novel hosting
// sites. Given a site URL it derives a canonical book identifier, fetches
// and parses the book's metadata and chapter list, and fetches and parses
// the text of individual episodes.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., goquery/, http/, sqlite/).
package novelsrc
