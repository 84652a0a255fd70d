package pipeline

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"crm-analytics-pipeline/internal/model"
)

func emailTable(rows ...model.Record) model.Table {
	return model.Table{
		Columns: []string{"email_subject", "activity_date", "company_name", "from_address", "email_direction"},
		Rows:    rows,
	}
}

func TestRemovePlatformCopiesPrefersUntagged(t *testing.T) {
	day := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	in := emailTable(
		model.Record{"email_subject": "[Gong Out] Pricing Update", "activity_date": day, "company_name": "Acme", "from_address": "brad@x.com"},
		model.Record{"email_subject": "Pricing Update", "activity_date": day, "company_name": "acme", "from_address": "Brad@x.com"},
	)
	got := removePlatformCopies(in)
	if got.Len() != 1 {
		t.Fatalf("expected 1 row after platform-copy removal, got %d", got.Len())
	}
	if model.Str(got.Rows[0], "email_subject") != "Pricing Update" {
		t.Fatalf("expected the untagged copy kept, got %q", model.Str(got.Rows[0], "email_subject"))
	}
}

func TestRemovePlatformCopiesDifferentDaysKept(t *testing.T) {
	in := emailTable(
		model.Record{"email_subject": "Pricing Update", "activity_date": time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC), "company_name": "Acme", "from_address": "b@x.com"},
		model.Record{"email_subject": "Pricing Update", "activity_date": time.Date(2026, 6, 2, 9, 0, 0, 0, time.UTC), "company_name": "Acme", "from_address": "b@x.com"},
	)
	if got := removePlatformCopies(in); got.Len() != 2 {
		t.Fatalf("same subject on different days must both survive, got %d rows", got.Len())
	}
}

func TestCollapseThreadsKeepsLatest(t *testing.T) {
	in := emailTable(
		model.Record{"email_subject": "Intro", "activity_date": time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC), "company_name": "Acme", "email_direction": "OUT"},
		model.Record{"email_subject": "RE: Intro", "activity_date": time.Date(2026, 6, 3, 9, 0, 0, 0, time.UTC), "company_name": "Acme", "email_direction": "IN"},
		model.Record{"email_subject": "Re: RE: Intro", "activity_date": time.Date(2026, 6, 5, 9, 0, 0, 0, time.UTC), "company_name": "Acme", "email_direction": "OUT"},
	)
	got := collapseThreads(in)
	if got.Len() != 1 {
		t.Fatalf("expected thread collapsed to 1 row, got %d", got.Len())
	}
	row := got.Rows[0]
	if model.Str(row, "email_subject") != "Re: RE: Intro" {
		t.Fatalf("expected the most recent message kept, got %q", model.Str(row, "email_subject"))
	}
	if depth, ok := model.Num(row, "thread_depth"); !ok || depth != 3 {
		t.Fatalf("expected thread_depth 3, got %v", row["thread_depth"])
	}
	summary := model.Str(row, "thread_summary")
	if !strings.Contains(summary, "; ") {
		t.Fatalf("expected multi-entry summary, got %q", summary)
	}
	if !strings.HasPrefix(summary, "2026-06-01") {
		t.Fatalf("expected chronological summary starting at the root, got %q", summary)
	}
}

func TestCollapseThreadsDifferentCompaniesSeparate(t *testing.T) {
	day := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	in := emailTable(
		model.Record{"email_subject": "Renewal", "activity_date": day, "company_name": "Acme"},
		model.Record{"email_subject": "RE: Renewal", "activity_date": day.Add(24 * time.Hour), "company_name": "Globex"},
	)
	if got := collapseThreads(in); got.Len() != 2 {
		t.Fatalf("threads of different companies must not merge, got %d rows", got.Len())
	}
}

func TestCollapseThreadsTruncatesSummarySubjects(t *testing.T) {
	long := strings.Repeat("x", 100)
	in := emailTable(
		model.Record{"email_subject": long, "activity_date": time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC), "company_name": "Acme"},
	)
	got := collapseThreads(in)
	summary := model.Str(got.Rows[0], "thread_summary")
	if strings.Contains(summary, strings.Repeat("x", threadSubjectCap+1)) {
		t.Fatalf("summary subject not capped at %d chars: %q", threadSubjectCap, summary)
	}
}

func TestCollapseThreadsTruncationKeepsValidUTF8(t *testing.T) {
	long := strings.Repeat("é", 100)
	in := emailTable(
		model.Record{"email_subject": long, "activity_date": time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC), "company_name": "Acme"},
	)
	got := collapseThreads(in)
	summary := model.Str(got.Rows[0], "thread_summary")
	if !utf8.ValidString(summary) {
		t.Fatalf("summary contains invalid UTF-8: %q", summary)
	}
	if n := strings.Count(summary, "é"); n != threadSubjectCap {
		t.Fatalf("expected %d runes kept, got %d", threadSubjectCap, n)
	}
}

func TestDedupeEmailsEndToEnd(t *testing.T) {
	day := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	in := emailTable(
		model.Record{"email_subject": "[Gong In] Quote", "activity_date": day, "company_name": "Acme", "from_address": "c@acme.com"},
		model.Record{"email_subject": "Quote", "activity_date": day, "company_name": "Acme", "from_address": "c@acme.com"},
		model.Record{"email_subject": "RE: Quote", "activity_date": day.Add(48 * time.Hour), "company_name": "Acme", "from_address": "b@x.com"},
	)
	got := DedupeEmails(in)
	if got.Len() != 1 {
		t.Fatalf("expected 1 row after both phases, got %d", got.Len())
	}
	if depth, _ := model.Num(got.Rows[0], "thread_depth"); depth != 2 {
		t.Fatalf("expected thread_depth 2 after copy removal, got %v", got.Rows[0]["thread_depth"])
	}
}

func TestRootSubject(t *testing.T) {
	cases := []struct{ in, want string }{
		{"RE: Fwd: FW: Budget", "Budget"},
		{"re:re: Budget", "Budget"},
		{"Budget", "Budget"},
	}
	for _, tc := range cases {
		if got := rootSubject(tc.in); got != tc.want {
			t.Errorf("rootSubject(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDedupeEmailsMissingColumnsSkips(t *testing.T) {
	in := model.Table{Columns: []string{"x"}, Rows: []model.Record{{"x": "y"}}}
	got := DedupeEmails(in)
	if got.Len() != 1 || got.HasColumn("thread_depth") {
		t.Fatal("emails without subject/date columns must pass through unchanged")
	}
}
