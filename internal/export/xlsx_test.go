package export

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/leadscout/leadscout/internal/model"
)

func completedTask(t *testing.T, kind model.Kind, outcomes []model.Outcome) *model.Task {
	t.Helper()
	payload, err := json.Marshal(model.TaskOutput{Query: "acme corp", Kind: kind, Outcomes: outcomes})
	require.NoError(t, err)
	return &model.Task{
		ID:        "task-1",
		Status:    model.TaskStatusCompleted,
		Output:    string(payload),
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
}

func readSheet(t *testing.T, buf *bytes.Buffer, name string) [][]string {
	t.Helper()
	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	sheet, ok := f.Sheet[name]
	require.True(t, ok, "sheet %q missing", name)

	var rows [][]string
	for _, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for i, cell := range row.Cells {
			cells[i] = cell.String()
		}
		rows = append(rows, cells)
	}
	return rows
}

func TestWriteTask_Companies(t *testing.T) {
	task := completedTask(t, model.KindCompany, []model.Outcome{
		{Candidate: "acme-corp", Record: &model.Record{Company: &model.Company{
			Name:          "Acme Corp",
			LinkedInURL:   "https://www.linkedin.com/company/acme-corp",
			Address:       "Berlin, Germany",
			FoundedYear:   1999,
			EmployeeCount: 250,
		}}},
	})

	var buf bytes.Buffer
	require.NoError(t, WriteTask(&buf, task))

	rows := readSheet(t, &buf, "Companies")
	require.Len(t, rows, 2)
	assert.Equal(t, companyHeader, rows[0])
	assert.Equal(t, "Acme Corp", rows[1][0])
	assert.Equal(t, "https://www.linkedin.com/company/acme-corp", rows[1][1])
	assert.Equal(t, "1999", rows[1][4])
	assert.Equal(t, "250", rows[1][5])
}

func TestWriteTask_Profiles(t *testing.T) {
	task := completedTask(t, model.KindProfile, []model.Outcome{
		{Candidate: "https://www.linkedin.com/in/jdoe", Record: &model.Record{Profile: &model.Profile{
			FirstName:   "Jordan",
			LastName:    "Doe",
			Position:    "CTO",
			CompanyName: "Acme Corp",
			LinkedInURL: "https://www.linkedin.com/in/jdoe",
		}}},
	})

	var buf bytes.Buffer
	require.NoError(t, WriteTask(&buf, task))

	rows := readSheet(t, &buf, "Profiles")
	require.Len(t, rows, 2)
	assert.Equal(t, profileHeader, rows[0])
	assert.Equal(t, []string{"Jordan", "Doe", "CTO", "Acme Corp", "", "https://www.linkedin.com/in/jdoe"}, rows[1])
}

func TestWriteTask_ErrorsSheet(t *testing.T) {
	task := completedTask(t, model.KindCompany, []model.Outcome{
		{Candidate: "acme-corp", Record: &model.Record{Company: &model.Company{Name: "Acme Corp"}}},
		{Candidate: "globex", Err: &model.ItemError{Message: "rate limited", StatusCode: 429}},
	})

	var buf bytes.Buffer
	require.NoError(t, WriteTask(&buf, task))

	rows := readSheet(t, &buf, "Errors")
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"globex", "rate limited", "429"}, rows[1])

	companies := readSheet(t, &buf, "Companies")
	require.Len(t, companies, 2)
}

func TestWriteTask_NoErrorSheetWhenAllSucceed(t *testing.T) {
	task := completedTask(t, model.KindCompany, []model.Outcome{
		{Candidate: "acme-corp", Record: &model.Record{Company: &model.Company{Name: "Acme Corp"}}},
	})

	var buf bytes.Buffer
	require.NoError(t, WriteTask(&buf, task))

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	_, ok := f.Sheet["Errors"]
	assert.False(t, ok)
}

func TestWriteTask_RejectsNonTerminal(t *testing.T) {
	task := &model.Task{ID: "task-1", Status: model.TaskStatusProcessing}
	err := WriteTask(&bytes.Buffer{}, task)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not terminal")
}

func TestWriteTask_RejectsFailed(t *testing.T) {
	task := &model.Task{ID: "task-1", Status: model.TaskStatusFailed, Output: `{"error":"boom"}`}
	err := WriteTask(&bytes.Buffer{}, task)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed")
}
