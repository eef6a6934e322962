package reporting

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"ram/internal/errs"
)

// Fixture is a nested document of reporting data. Test runs sit under
// their execution request and log records under their test run, so the
// owner ids are implied by position.
type Fixture struct {
	ExecutionRequests []FixtureExecutionRequest `yaml:"execution_requests" toml:"execution_requests" json:"execution_requests"`
	RootCauses        []FixtureRootCause        `yaml:"root_causes" toml:"root_causes" json:"root_causes"`
	FailPatterns      []FixtureFailPattern      `yaml:"fail_patterns" toml:"fail_patterns" json:"fail_patterns"`
}

type FixtureExecutionRequest struct {
	ID            string           `yaml:"id" toml:"id" json:"id"`
	Name          string           `yaml:"name" toml:"name" json:"name"`
	ProjectID     string           `yaml:"project_id" toml:"project_id" json:"project_id"`
	EnvironmentID string           `yaml:"environment_id" toml:"environment_id" json:"environment_id"`
	ExecutorID    string           `yaml:"executor_id" toml:"executor_id" json:"executor_id"`
	AnalyzedByQA  bool             `yaml:"analyzed_by_qa" toml:"analyzed_by_qa" json:"analyzed_by_qa"`
	StartDate     *time.Time       `yaml:"start_date" toml:"start_date" json:"start_date"`
	FinishDate    *time.Time       `yaml:"finish_date" toml:"finish_date" json:"finish_date"`
	TestRuns      []FixtureTestRun `yaml:"test_runs" toml:"test_runs" json:"test_runs"`
	Issues        []FixtureIssue   `yaml:"issues" toml:"issues" json:"issues"`
}

type FixtureTestRun struct {
	ID              string             `yaml:"id" toml:"id" json:"id"`
	Name            string             `yaml:"name" toml:"name" json:"name"`
	TestCaseID      string             `yaml:"test_case_id" toml:"test_case_id" json:"test_case_id"`
	TestCaseName    string             `yaml:"test_case_name" toml:"test_case_name" json:"test_case_name"`
	TestingStatus   string             `yaml:"testing_status" toml:"testing_status" json:"testing_status"`
	ExecutionStatus string             `yaml:"execution_status" toml:"execution_status" json:"execution_status"`
	StartDate       *time.Time         `yaml:"start_date" toml:"start_date" json:"start_date"`
	FinishDate      *time.Time         `yaml:"finish_date" toml:"finish_date" json:"finish_date"`
	Duration        int64              `yaml:"duration" toml:"duration" json:"duration"`
	RootCauseID     string             `yaml:"root_cause_id" toml:"root_cause_id" json:"root_cause_id"`
	Labels          []string           `yaml:"labels" toml:"labels" json:"labels"`
	Comment         string             `yaml:"comment" toml:"comment" json:"comment"`
	Records         []FixtureLogRecord `yaml:"records" toml:"records" json:"records"`
	TestRuns        []FixtureTestRun   `yaml:"test_runs" toml:"test_runs" json:"test_runs"`
}

type FixtureLogRecord struct {
	ID               string             `yaml:"id" toml:"id" json:"id"`
	Name             string             `yaml:"name" toml:"name" json:"name"`
	Message          string             `yaml:"message" toml:"message" json:"message"`
	Type             string             `yaml:"type" toml:"type" json:"type"`
	TestingStatus    string             `yaml:"testing_status" toml:"testing_status" json:"testing_status"`
	ExecutionStatus  string             `yaml:"execution_status" toml:"execution_status" json:"execution_status"`
	CreatedAt        *time.Time         `yaml:"created_at" toml:"created_at" json:"created_at"`
	StartDate        *time.Time         `yaml:"start_date" toml:"start_date" json:"start_date"`
	EndDate          *time.Time         `yaml:"end_date" toml:"end_date" json:"end_date"`
	Preview          string             `yaml:"preview" toml:"preview" json:"preview"`
	FileType         string             `yaml:"file_type" toml:"file_type" json:"file_type"`
	FileName         string             `yaml:"file_name" toml:"file_name" json:"file_name"`
	ValidationLabels []string           `yaml:"validation_labels" toml:"validation_labels" json:"validation_labels"`
	ValidationTable  map[string]any     `yaml:"validation_table" toml:"validation_table" json:"validation_table"`
	Children         []FixtureLogRecord `yaml:"children" toml:"children" json:"children"`
}

type FixtureIssue struct {
	ID            string   `yaml:"id" toml:"id" json:"id"`
	Message       string   `yaml:"message" toml:"message" json:"message"`
	FailPatternID string   `yaml:"fail_pattern_id" toml:"fail_pattern_id" json:"fail_pattern_id"`
	Priority      string   `yaml:"priority" toml:"priority" json:"priority"`
	JiraTickets   []string `yaml:"jira_tickets" toml:"jira_tickets" json:"jira_tickets"`
	LogRecordIDs  []string `yaml:"log_record_ids" toml:"log_record_ids" json:"log_record_ids"`
}

type FixtureRootCause struct {
	ID        string `yaml:"id" toml:"id" json:"id"`
	ProjectID string `yaml:"project_id" toml:"project_id" json:"project_id"`
	ParentID  string `yaml:"parent_id" toml:"parent_id" json:"parent_id"`
	Name      string `yaml:"name" toml:"name" json:"name"`
	Type      string `yaml:"type" toml:"type" json:"type"`
	Disabled  bool   `yaml:"disabled" toml:"disabled" json:"disabled"`
}

type FixtureFailPattern struct {
	ID          string   `yaml:"id" toml:"id" json:"id"`
	ProjectID   string   `yaml:"project_id" toml:"project_id" json:"project_id"`
	Name        string   `yaml:"name" toml:"name" json:"name"`
	Rule        string   `yaml:"rule" toml:"rule" json:"rule"`
	Message     string   `yaml:"message" toml:"message" json:"message"`
	Priority    string   `yaml:"priority" toml:"priority" json:"priority"`
	RootCauseID string   `yaml:"root_cause_id" toml:"root_cause_id" json:"root_cause_id"`
	JiraTickets []string `yaml:"jira_tickets" toml:"jira_tickets" json:"jira_tickets"`
}

// DecodeFixture parses data in the format named by the extension of name:
// .yaml/.yml, .toml or .json.
func DecodeFixture(name string, data []byte) (Fixture, error) {
	var f Fixture
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return Fixture{}, errs.Wrapf(err, "decode yaml fixture %s", name)
		}
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return Fixture{}, errs.Wrapf(err, "decode toml fixture %s", name)
		}
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return Fixture{}, errs.Wrapf(err, "decode json fixture %s", name)
		}
	default:
		return Fixture{}, fmt.Errorf("unsupported fixture format %q", ext)
	}
	return f, nil
}
