package migrations

import (
	"testing"
	"time"
)

var testNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func TestNextMigrationName(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		slug     string
		want     string
		wantErr  bool
	}{
		{name: "first", want: "m_0001_initial"},
		{name: "first with slug", slug: "create_users", want: "m_0001_create_users"},
		{name: "auto slug", existing: []string{"m_0001_initial"}, want: "m_0002_auto_20250314_092653"},
		{name: "counter skips gaps", existing: []string{"m_0001_initial", "m_0007_extend"}, want: "m_0008_auto_20250314_092653"},
		{name: "slug uppercased input", existing: []string{"m_0001_initial"}, slug: "Add_Index", want: "m_0002_add_index"},
		{name: "invalid slug", slug: "no spaces", wantErr: true},
		{name: "ignores foreign names", existing: []string{"not_a_migration"}, want: "m_0001_initial"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := nextMigrationName(tt.existing, tt.slug, testNow)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected an error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("nextMigrationName failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLatestMigration(t *testing.T) {
	if got := latestMigration(nil); got != "" {
		t.Errorf("latest of none = %q, want empty", got)
	}
	names := []string{"m_0002_extend", "m_0010_later", "m_0001_initial"}
	if got := latestMigration(names); got != "m_0010_later" {
		t.Errorf("latest = %q, want m_0010_later", got)
	}
}

func TestMigrationCounter(t *testing.T) {
	if got := migrationCounter("m_0042_whatever"); got != 42 {
		t.Errorf("counter = %d, want 42", got)
	}
	if got := migrationCounter("README"); got != -1 {
		t.Errorf("counter of non-migration = %d, want -1", got)
	}
}
