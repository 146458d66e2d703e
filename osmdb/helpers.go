package osmdb

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/paulmach/osm"

	"gtfstoosm.onebusaway.org/internal/appconf"
)

//go:embed schema.sql
var ddl string

// createDB opens the SQLite database and applies the schema.
func createDB(config Config) (*sql.DB, error) {
	if config.Env == appconf.Test && config.DBPath != ":memory:" {
		return nil, fmt.Errorf("refusing to create database file %q in test environment", config.DBPath)
	}

	db, err := sql.Open("sqlite", config.DBPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	configureConnectionPool(db, config)

	ctx := context.Background()
	if err := performDatabaseMigration(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error performing database migration: %w", err)
	}

	return db, nil
}

// configureConnectionPool limits an in-memory database to one connection,
// since each connection to ":memory:" opens a separate empty database.
func configureConnectionPool(db *sql.DB, config Config) {
	if config.DBPath == ":memory:" {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		return
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
}

func performDatabaseMigration(ctx context.Context, db *sql.DB) error {
	statements := strings.Split(ddl, "-- migrate")
	for _, stmt := range statements {
		trimmedStmt := strings.TrimSpace(stmt)
		if trimmedStmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, trimmedStmt); err != nil {
			return fmt.Errorf("error executing DDL statement [%s]: %w", trimmedStmt, err)
		}
	}
	return nil
}

func encodeTags(tags osm.Tags) (string, error) {
	b, err := json.Marshal(tags.Map())
	if err != nil {
		return "", fmt.Errorf("error encoding tags: %w", err)
	}
	return string(b), nil
}

func decodeTags(raw string) (osm.Tags, error) {
	var m map[string]string
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("error decoding tags: %w", err)
	}
	return tagsFromMap(m), nil
}

// tagsFromMap returns the tags sorted by key.
func tagsFromMap(m map[string]string) osm.Tags {
	tags := make(osm.Tags, 0, len(m))
	for k, v := range m {
		tags = append(tags, osm.Tag{Key: k, Value: v})
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Key < tags[j].Key })
	return tags
}

func (n Node) toOSM() (*osm.Node, error) {
	tags, err := decodeTags(n.Tags)
	if err != nil {
		return nil, fmt.Errorf("node %d: %w", n.ID, err)
	}
	return &osm.Node{
		ID:      osm.NodeID(n.ID),
		Lat:     n.Lat,
		Lon:     n.Lon,
		Version: int(n.Version),
		Visible: true,
		Tags:    tags,
	}, nil
}

// IsTransitStop reports whether tags describe a place where passengers board:
// platforms, stop positions, bus stops, tram stops, ferry terminals and
// aerialway stations.
func IsTransitStop(tags osm.Tags) bool {
	switch tags.Find("public_transport") {
	case "platform", "stop_position", "station":
		return true
	}
	switch tags.Find("railway") {
	case "platform", "tram_stop", "halt", "station":
		return true
	}
	return tags.Find("highway") == "bus_stop" ||
		tags.Find("amenity") == "ferry_terminal" ||
		tags.Find("aerialway") == "station"
}
