package migrations

import (
	"io/fs"
	"strings"
	"testing"
)

func TestMigrationsArePaired(t *testing.T) {
	ups, err := fs.Glob(FS, "*.up.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(ups) == 0 {
		t.Fatalf("expected at least one migration")
	}
	for _, up := range ups {
		down := strings.TrimSuffix(up, ".up.sql") + ".down.sql"
		if _, err := fs.Stat(FS, down); err != nil {
			t.Fatalf("missing down migration for %s", up)
		}
	}
}

func TestAppointmentsTableMatchesStoreColumns(t *testing.T) {
	data, err := fs.ReadFile(FS, "000001_create_appointments.up.sql")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	for _, col := range []string{"id", "date", "patient", "procedures", "price"} {
		if !strings.Contains(string(data), col) {
			t.Fatalf("expected column %s in schema", col)
		}
	}
}
