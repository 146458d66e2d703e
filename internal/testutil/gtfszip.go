package testutil

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

// GTFSFiles maps a feed file name such as "stops.txt" to its CSV content.
type GTFSFiles map[string]string

// MinimalFeed returns a small valid feed: one agency, one bus route, three
// stops 100 m apart and three trips, two of which share a stop pattern.
func MinimalFeed() GTFSFiles {
	return GTFSFiles{
		"agency.txt": "agency_id,agency_name,agency_url,agency_timezone\n" +
			"X,Agency X,https://example.com,America/Los_Angeles\n",
		"routes.txt": "route_id,agency_id,route_short_name,route_long_name,route_type,route_color\n" +
			"R1,X,1,Main St,3,0055AA\n",
		"stops.txt": "stop_id,stop_code,stop_name,stop_lat,stop_lon\n" +
			"A,100,First Ave,47.6062,-122.3321\n" +
			"B,101,Second Ave,47.6071,-122.3321\n" +
			"C,102,Third Ave,47.6080,-122.3321\n",
		"calendar.txt": "service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date\n" +
			"WK,1,1,1,1,1,0,0,20250101,20251231\n",
		"trips.txt": "route_id,service_id,trip_id,trip_headsign,direction_id\n" +
			"R1,WK,t1,North,0\n" +
			"R1,WK,t2,North,0\n" +
			"R1,WK,t3,South,1\n",
		"stop_times.txt": "trip_id,arrival_time,departure_time,stop_id,stop_sequence\n" +
			"t1,08:00:00,08:00:00,A,1\n" +
			"t1,08:05:00,08:05:00,B,2\n" +
			"t1,08:10:00,08:10:00,C,3\n" +
			"t2,09:00:00,09:00:00,A,1\n" +
			"t2,09:05:00,09:05:00,B,2\n" +
			"t2,09:10:00,09:10:00,C,3\n" +
			"t3,10:00:00,10:00:00,C,1\n" +
			"t3,10:05:00,10:05:00,B,2\n" +
			"t3,10:10:00,10:10:00,A,3\n",
	}
}

// BuildGTFSZip returns the files packed as a GTFS zip archive.
func BuildGTFSZip(t *testing.T, files GTFSFiles) []byte {
	t.Helper()

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("failed to add %s to zip: %v", name, err)
		}
		if _, err := w.Write([]byte(files[name])); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}
	return buf.Bytes()
}

// WriteGTFSZip writes the archive to a file in a temporary directory and
// returns its path.
func WriteGTFSZip(t *testing.T, files GTFSFiles) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "gtfs.zip")
	if err := os.WriteFile(path, BuildGTFSZip(t, files), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}
