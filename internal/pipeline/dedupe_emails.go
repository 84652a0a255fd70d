package pipeline

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"crm-analytics-pipeline/internal/model"
)

// Direction tags the call-recording integration prepends to logged email
// subjects.
var directionTags = []string{"[Gong In]", "[Gong Out]"}

var replyPrefixRe = regexp.MustCompile(`(?i)^(re|fwd?|fw):\s*`)

var emailDateCandidates = []string{"activity_date", "sent_date", "created_date"}

const threadSubjectCap = 60

// stripDirectionTag removes a leading direction tag from a subject and
// reports whether one was present.
func stripDirectionTag(subject string) (string, bool) {
	s := strings.TrimSpace(subject)
	for _, tag := range directionTags {
		if strings.HasPrefix(s, tag) {
			return strings.TrimSpace(strings.TrimPrefix(s, tag)), true
		}
	}
	return s, false
}

// rootSubject strips repeated reply/forward prefixes to recover the
// subject that started the thread.
func rootSubject(subject string) string {
	s := strings.TrimSpace(subject)
	for {
		next := replyPrefixRe.ReplaceAllString(s, "")
		if next == s {
			return s
		}
		s = strings.TrimSpace(next)
	}
}

// DedupeEmails collapses duplicate and threaded email rows: phase 1 removes
// platform copies of the same message, phase 2 collapses each reply thread
// to its most recent message annotated with thread_depth and thread_summary.
func DedupeEmails(t model.Table) model.Table {
	return collapseThreads(removePlatformCopies(t))
}

// removePlatformCopies keeps exactly one row per (clean subject, date,
// company, from-address), preferring a copy without a direction tag.
func removePlatformCopies(t model.Table) model.Table {
	if t.Empty() {
		return t
	}
	subjectCol, okSubject := t.FindColumn("email_subject", "subject")
	dateCol, okDate := t.FindColumn(emailDateCandidates...)
	if !okSubject || !okDate {
		fmt.Println("⚠️  Email platform-copy removal skipped: missing subject or date column")
		return t
	}

	type copyKey struct{ subject, date, company, from string }
	type chosen struct {
		idx    int
		tagged bool
	}

	fromCol, _ := t.FindColumn("from_address", "from", "email")
	picks := make(map[copyKey]*chosen)
	var order []copyKey

	for i, row := range t.Rows {
		clean, tagged := stripDirectionTag(model.Str(row, subjectCol))
		date := ""
		if ts, ok := model.TimeAt(row, dateCol); ok {
			date = ts.Format("2006-01-02")
		}
		key := copyKey{
			subject: clean,
			date:    date,
			company: strings.ToLower(strings.TrimSpace(model.Str(row, "company_name"))),
			from:    strings.ToLower(strings.TrimSpace(model.Str(row, fromCol))),
		}
		if existing, ok := picks[key]; ok {
			if existing.tagged && !tagged {
				existing.idx = i
				existing.tagged = false
			}
			continue
		}
		picks[key] = &chosen{idx: i, tagged: tagged}
		order = append(order, key)
	}

	out := model.Table{Columns: t.Columns, Rows: make([]model.Record, 0, len(order))}
	for _, key := range order {
		out.Rows = append(out.Rows, t.Rows[picks[key].idx])
	}
	return out
}

// collapseThreads groups rows by (root subject, company) and keeps the most
// recent message of each thread, annotated with the thread's depth and a
// chronological summary line. Rows with an empty root subject never collapse.
func collapseThreads(t model.Table) model.Table {
	if t.Empty() {
		return t
	}
	subjectCol, okSubject := t.FindColumn("email_subject", "subject")
	dateCol, okDate := t.FindColumn(emailDateCandidates...)
	if !okSubject || !okDate {
		fmt.Println("⚠️  Email thread collapse skipped: missing subject or date column")
		return t
	}
	directionCol, _ := t.FindColumn("email_direction", "direction")

	type threadKey struct{ root, company string }
	threads := make(map[threadKey][]model.Record)
	var order []threadKey
	var singles []model.Record

	for _, row := range t.Rows {
		clean, _ := stripDirectionTag(model.Str(row, subjectCol))
		root := strings.ToLower(rootSubject(clean))
		if root == "" {
			singles = append(singles, row)
			continue
		}
		key := threadKey{root: root, company: strings.ToLower(strings.TrimSpace(model.Str(row, "company_name")))}
		if _, ok := threads[key]; !ok {
			order = append(order, key)
		}
		threads[key] = append(threads[key], row)
	}

	cols := model.Table{Columns: t.WithColumn("thread_depth")}.WithColumn("thread_summary")
	out := model.Table{Columns: cols, Rows: make([]model.Record, 0, len(order)+len(singles))}

	annotate := func(rep model.Record, msgs []model.Record) model.Record {
		rec := model.CloneRecord(rep)
		rec["thread_depth"] = float64(len(msgs))
		parts := make([]string, 0, len(msgs))
		for _, m := range msgs {
			date := ""
			if ts, ok := model.TimeAt(m, dateCol); ok {
				date = ts.Format("2006-01-02")
			}
			subject, _ := stripDirectionTag(model.Str(m, subjectCol))
			// Truncate on runes so multi-byte subjects stay valid UTF-8.
			if runes := []rune(subject); len(runes) > threadSubjectCap {
				subject = string(runes[:threadSubjectCap])
			}
			entry := strings.TrimSpace(strings.Join([]string{date, model.Str(m, directionCol), subject}, " "))
			parts = append(parts, entry)
		}
		rec["thread_summary"] = strings.Join(parts, "; ")
		return rec
	}

	for _, key := range order {
		msgs := threads[key]
		// Chronological order; undated messages sort first.
		sort.SliceStable(msgs, func(i, j int) bool {
			ti, _ := model.TimeAt(msgs[i], dateCol)
			tj, _ := model.TimeAt(msgs[j], dateCol)
			return ti.Before(tj)
		})
		out.Rows = append(out.Rows, annotate(msgs[len(msgs)-1], msgs))
	}
	for _, row := range singles {
		out.Rows = append(out.Rows, annotate(row, []model.Record{row}))
	}
	return out
}
