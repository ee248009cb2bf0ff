package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/sloppy/threatone/internal/intel"
)

func TestForumCSVFixture(t *testing.T) {
	var buf bytes.Buffer
	if err := CSV(&buf, ForumColumns, intel.SeedForumPosts()); err != nil {
		t.Fatalf("export csv: %v", err)
	}
	expected := readFixture(t, "forum.csv")
	if buf.String() != expected {
		t.Fatalf("csv export mismatch\nexpected:\n%s\n\ngot:\n%s", expected, buf.String())
	}
}

func TestCSVLineCountAndReparse(t *testing.T) {
	chats := []intel.ChatMessage{
		{Date: "14/02/2026 10:45", User: "ZeroDayDev", Chat: "DarkNet, Intelligence", Source: intel.ChatTelegram, Message: `He said "pay up", then left`, URL: "https://t.me/x"},
		{Date: "14/02/2026 10:30", User: "AdminOps", Chat: "Ops", Source: intel.ChatDiscord, Message: "line one\nline two", URL: ""},
	}
	var buf bytes.Buffer
	if err := CSV(&buf, ChatColumns, chats); err != nil {
		t.Fatalf("export csv: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	if err != nil {
		t.Fatalf("reparse csv: %v", err)
	}
	if len(records) != len(chats)+1 {
		t.Fatalf("expected %d records, got %d", len(chats)+1, len(records))
	}
	for i, chat := range chats {
		want := []string{chat.Date, chat.User, string(chat.Source), chat.Chat, chat.Message, chat.URL}
		if diff := cmp.Diff(want, records[i+1]); diff != "" {
			t.Fatalf("row %d mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestCSVHeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	if err := CSV(&buf, IOCColumns, nil); err != nil {
		t.Fatalf("export csv: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected header only, got %q", buf.String())
	}
	expectedHeader := `"id","value","kind","confidence","status","last_seen","tags","associated_actor","location","description"`
	if lines[0] != expectedHeader {
		t.Fatalf("unexpected csv header: %s", lines[0])
	}
}

func TestLeakColumnsNeverCarrySecret(t *testing.T) {
	leak := intel.LeakedCredential{ID: "1", Username: "root", Secret: "c2VhbGVkLWNpcGhlcnRleHQ=", Masked: "1****6", Status: intel.LeakPending}
	var buf bytes.Buffer
	if err := CSV(&buf, LeakColumns, []intel.LeakedCredential{leak}); err != nil {
		t.Fatalf("export csv: %v", err)
	}
	if strings.Contains(buf.String(), leak.Secret) {
		t.Fatalf("sealed secret leaked into csv: %s", buf.String())
	}
	if !strings.Contains(buf.String(), `"1****6"`) {
		t.Fatalf("masked secret missing: %s", buf.String())
	}
}

func TestCSVDoesNotMutateInput(t *testing.T) {
	actors := intel.SeedActors()
	before := intel.SeedActors()
	if err := CSV(&bytes.Buffer{}, ActorColumns, actors); err != nil {
		t.Fatalf("export csv: %v", err)
	}
	if diff := cmp.Diff(before, actors); diff != "" {
		t.Fatalf("export mutated input (-want +got):\n%s", diff)
	}
}

func TestReportFixture(t *testing.T) {
	banner := Banner{
		Title:   "Supplier Security Audit",
		Date:    time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC),
		Summary: []string{"Score: 50% (Low)"},
		Section: "Answers",
	}
	lines := []string{
		"[YES] Is MFA enforced? (Access Control)",
		"[NO] Is the DRP tested yearly? (Governance)",
	}
	var buf bytes.Buffer
	if err := Report(&buf, banner, lines); err != nil {
		t.Fatalf("report: %v", err)
	}
	expected := readFixture(t, "audit_report.txt")
	if buf.String() != expected {
		t.Fatalf("report mismatch\nexpected:\n%s\n\ngot:\n%s", expected, buf.String())
	}
}

func TestReportBannerOnly(t *testing.T) {
	var buf bytes.Buffer
	banner := Banner{Title: "Daily Report", Date: time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), Section: "Findings"}
	if err := Report(&buf, banner, nil); err != nil {
		t.Fatalf("report: %v", err)
	}
	expected := "Daily Report\n============\nDate: 2026-10-19\n"
	if buf.String() != expected {
		t.Fatalf("unexpected banner-only report: %q", buf.String())
	}
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	questions := []intel.AuditQuestion{{ID: 1, Text: "Is MFA\nenforced?", Category: "Access Control"}}
	if err := Table(&buf, QuestionColumns, questions); err != nil {
		t.Fatalf("table: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and one row, got %q", buf.String())
	}
	if !strings.HasPrefix(lines[0], "ID") || !strings.Contains(lines[1], "Is MFA enforced?") {
		t.Fatalf("unexpected table: %q", buf.String())
	}
}

func TestJSONDocument(t *testing.T) {
	at := time.Date(2026, 10, 19, 12, 0, 0, 0, time.FixedZone("X", 3600))
	var buf bytes.Buffer
	if err := JSON(&buf, NewDocument[intel.ForumPost]("forum", at, nil)); err != nil {
		t.Fatalf("json: %v", err)
	}
	var doc Document[intel.ForumPost]
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Kind != "forum" || doc.Count != 0 || doc.Items == nil {
		t.Fatalf("unexpected document: %#v", doc)
	}
	if !strings.Contains(buf.String(), `"exported_at": "2026-10-19T11:00:00Z"`) {
		t.Fatalf("export time not normalised to UTC: %s", buf.String())
	}
}

func readFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return string(data)
}
