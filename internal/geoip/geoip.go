// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package geoip resolves client addresses to ISO country codes with a
// MaxMind GeoLite2-Country database. It is optional: a nil *Lookup answers
// every query with "".
package geoip

import (
	"fmt"
	"net"
	"sync"

	"github.com/oschwald/maxminddb-golang"
)

// LocalCountry is reported for loopback and private addresses.
const LocalCountry = "LOCAL"

// Lookup handles IP to country lookup.
type Lookup struct {
	mu sync.RWMutex
	db *maxminddb.Reader
}

// geoRecord matches the GeoLite2-Country database structure.
type geoRecord struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
}

// Open loads the database at path.
func Open(path string) (*Lookup, error) {
	db, err := maxminddb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening GeoIP database: %w", err)
	}
	return &Lookup{db: db}, nil
}

// Country returns the 2-letter ISO country code for ip, LocalCountry for
// private ranges, or "" when it cannot be determined.
func (g *Lookup) Country(ip string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ""
	}
	if parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsLinkLocalUnicast() {
		return LocalCountry
	}
	if g == nil {
		return ""
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.db == nil {
		return ""
	}

	var record geoRecord
	if err := g.db.Lookup(parsed, &record); err != nil {
		return ""
	}
	return record.Country.ISOCode
}

// Close closes the database.
func (g *Lookup) Close() error {
	if g == nil {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.db == nil {
		return nil
	}
	err := g.db.Close()
	g.db = nil
	return err
}
