package reporting

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDecodeFixtureFormatsAgree(t *testing.T) {
	start := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	want := Fixture{
		ExecutionRequests: []FixtureExecutionRequest{{
			ID:        "er-1",
			Name:      "nightly",
			StartDate: &start,
			TestRuns: []FixtureTestRun{{
				ID:            "tr-1",
				TestingStatus: "FAILED",
				Labels:        []string{"smoke"},
				Records: []FixtureLogRecord{{
					ID:       "lr-1",
					Type:     "COMPOUND",
					Children: []FixtureLogRecord{{ID: "lr-2", Type: "REST"}},
				}},
			}},
		}},
		FailPatterns: []FixtureFailPattern{{ID: "fp-1", Rule: `timeout \d+`}},
	}

	docs := map[string]string{
		"data.yaml": `
execution_requests:
  - id: er-1
    name: nightly
    start_date: 2026-04-01T09:00:00Z
    test_runs:
      - id: tr-1
        testing_status: FAILED
        labels: [smoke]
        records:
          - id: lr-1
            type: COMPOUND
            children:
              - id: lr-2
                type: REST
fail_patterns:
  - id: fp-1
    rule: 'timeout \d+'
`,
		"data.toml": `
[[execution_requests]]
id = "er-1"
name = "nightly"
start_date = 2026-04-01T09:00:00Z

[[execution_requests.test_runs]]
id = "tr-1"
testing_status = "FAILED"
labels = ["smoke"]

[[execution_requests.test_runs.records]]
id = "lr-1"
type = "COMPOUND"

[[execution_requests.test_runs.records.children]]
id = "lr-2"
type = "REST"

[[fail_patterns]]
id = "fp-1"
rule = 'timeout \d+'
`,
		"data.json": `{
  "execution_requests": [{
    "id": "er-1",
    "name": "nightly",
    "start_date": "2026-04-01T09:00:00Z",
    "test_runs": [{
      "id": "tr-1",
      "testing_status": "FAILED",
      "labels": ["smoke"],
      "records": [{"id": "lr-1", "type": "COMPOUND", "children": [{"id": "lr-2", "type": "REST"}]}]
    }]
  }],
  "fail_patterns": [{"id": "fp-1", "rule": "timeout \\d+"}]
}`,
	}

	for name, doc := range docs {
		t.Run(name, func(t *testing.T) {
			got, err := DecodeFixture(name, []byte(doc))
			if err != nil {
				t.Fatalf("DecodeFixture() error = %v", err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("DecodeFixture() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeFixtureRejectsUnknownInput(t *testing.T) {
	if _, err := DecodeFixture("data.xml", []byte("<x/>")); err == nil {
		t.Fatalf("DecodeFixture(.xml) error = nil")
	}
	if _, err := DecodeFixture("data.yaml", []byte("execution_request: []\n")); err == nil {
		t.Fatalf("DecodeFixture(unknown field) error = nil")
	}
}

func TestFixtureSchemaDescribesNesting(t *testing.T) {
	raw, err := FixtureSchema()
	if err != nil {
		t.Fatalf("FixtureSchema() error = %v", err)
	}

	var doc struct {
		Defs map[string]struct {
			Properties           map[string]json.RawMessage `json:"properties"`
			Required             []string                   `json:"required"`
			AdditionalProperties *bool                      `json:"additionalProperties"`
		} `json:"$defs"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal schema: %v", err)
	}

	record, ok := doc.Defs["FixtureLogRecord"]
	if !ok {
		t.Fatalf("schema has no FixtureLogRecord definition: %s", raw)
	}
	if _, ok := record.Properties["children"]; !ok {
		t.Fatalf("FixtureLogRecord properties = %v, want children", record.Properties)
	}
	if len(record.Required) != 0 {
		t.Fatalf("FixtureLogRecord required = %v, want none", record.Required)
	}
	if record.AdditionalProperties == nil || *record.AdditionalProperties {
		t.Fatalf("FixtureLogRecord additionalProperties = %v, want false", record.AdditionalProperties)
	}
}
