package export

import (
	"io"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/leadscout/leadscout/internal/model"
)

var profileHeader = []string{
	"First Name", "Last Name", "Position", "Company", "Location", "LinkedIn URL",
}

var companyHeader = []string{
	"Name", "LinkedIn URL", "Address", "Phone", "Founded", "Employees", "Description",
}

// WriteTask renders a terminal task's resolved records as an XLSX workbook.
// Failed enrichment outcomes are listed on a separate Errors sheet so the
// export reflects the full resolution, not just the successes.
func WriteTask(w io.Writer, task *model.Task) error {
	if !task.Status.Terminal() {
		return eris.Errorf("export: task %s is %s, not terminal", task.ID, task.Status)
	}
	if task.Status == model.TaskStatusFailed {
		return eris.Errorf("export: task %s failed, nothing to export", task.ID)
	}

	out, err := model.DecodeTaskOutput(task.Output)
	if err != nil {
		return eris.Wrapf(err, "export: decode output for task %s", task.ID)
	}

	f := xlsx.NewFile()
	if err := addRecordSheet(f, out.Kind, model.Records(out.Outcomes)); err != nil {
		return err
	}
	if err := addErrorSheet(f, out.Outcomes); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "export: write workbook")
	}
	return nil
}

func addRecordSheet(f *xlsx.File, kind model.Kind, records []model.Record) error {
	switch kind {
	case model.KindProfile:
		sheet, err := f.AddSheet("Profiles")
		if err != nil {
			return eris.Wrap(err, "export: add sheet")
		}
		writeRow(sheet, profileHeader)
		for _, rec := range records {
			if rec.Profile == nil {
				continue
			}
			p := rec.Profile
			writeRow(sheet, []string{
				p.FirstName, p.LastName, p.Position, p.CompanyName, p.Location, p.LinkedInURL,
			})
		}
	case model.KindCompany:
		sheet, err := f.AddSheet("Companies")
		if err != nil {
			return eris.Wrap(err, "export: add sheet")
		}
		writeRow(sheet, companyHeader)
		for _, rec := range records {
			if rec.Company == nil {
				continue
			}
			c := rec.Company
			writeRow(sheet, []string{
				c.Name, c.LinkedInURL, c.Address, c.Phone,
				intCell(c.FoundedYear), intCell(c.EmployeeCount), c.Description,
			})
		}
	default:
		return eris.Errorf("export: unknown kind %q", kind)
	}
	return nil
}

func addErrorSheet(f *xlsx.File, outcomes []model.Outcome) error {
	var failed []model.Outcome
	for _, o := range outcomes {
		if !o.OK() {
			failed = append(failed, o)
		}
	}
	if len(failed) == 0 {
		return nil
	}

	sheet, err := f.AddSheet("Errors")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}
	writeRow(sheet, []string{"Candidate", "Error", "Status Code"})
	for _, o := range failed {
		writeRow(sheet, []string{o.Candidate, o.Err.Message, intCell(o.Err.StatusCode)})
	}
	return nil
}

func writeRow(sheet *xlsx.Sheet, cells []string) {
	row := sheet.AddRow()
	for _, v := range cells {
		row.AddCell().SetString(v)
	}
}

func intCell(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}
