package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/pkordes/dockgate/internal/domain"
)

// migrationRow is one line of migrate output.
type migrationRow struct {
	Version   int64      `json:"version"`
	Path      string     `json:"path"`
	State     string     `json:"state"`
	AppliedAt *time.Time `json:"applied_at,omitempty"`
}

// overstayRow flattens an overstay for display.
type overstayRow struct {
	VisitID      string  `json:"visit_id"`
	QueueNumber  string  `json:"queue_number"`
	LicensePlate string  `json:"license_plate"`
	Company      string  `json:"company"`
	Status       string  `json:"status"`
	Gate         string  `json:"gate,omitempty"`
	Minutes      int64   `json:"elapsed_minutes"`
	Hours        float64 `json:"elapsed_hours"`
}

func overstayRows(over []domain.Overstay) []overstayRow {
	rows := make([]overstayRow, 0, len(over))
	for _, o := range over {
		rows = append(rows, overstayRow{
			VisitID:      o.Visit.ID.String(),
			QueueNumber:  o.Visit.QueueNumber,
			LicensePlate: o.Visit.LicensePlate,
			Company:      o.Visit.Company,
			Status:       string(o.Visit.Status),
			Gate:         o.Visit.Gate,
			Minutes:      int64(o.Elapsed / time.Minute),
			Hours:        o.Elapsed.Hours(),
		})
	}
	return rows
}

// newTable returns a tabwriter that aligns columns with two spaces.
func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printMigrationTable(w io.Writer, rows []migrationRow) error {
	tw := newTable(w)
	if _, err := fmt.Fprintln(tw, "VERSION\tSTATE\tAPPLIED\tFILE"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, r := range rows {
		applied := "-"
		if r.AppliedAt != nil {
			applied = r.AppliedAt.Format(time.RFC3339)
		}
		if _, err := fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.Version, r.State, applied, r.Path); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	return tw.Flush()
}

// printGateTable prints docks with their occupant, "-" for a free dock.
func printGateTable(w io.Writer, occ []domain.GateOccupancy) error {
	if len(occ) == 0 {
		_, err := fmt.Fprintln(w, "No gates configured.")
		return err
	}

	tw := newTable(w)
	if _, err := fmt.Fprintln(tw, "ID\tNAME\tTYPE\tSTATUS\tOCCUPANT"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, o := range occ {
		occupant := "-"
		if o.Occupant != nil {
			occupant = fmt.Sprintf("%s %s (%s)", o.Occupant.QueueNumber, o.Occupant.LicensePlate, o.Occupant.Status)
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", o.Gate.ID, o.Gate.Name, o.Gate.Type, o.Gate.Status, occupant); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	return tw.Flush()
}

// printVisitTable prints visits with registration time shown in loc.
func printVisitTable(w io.Writer, visits []domain.Visit, loc *time.Location) error {
	if len(visits) == 0 {
		_, err := fmt.Fprintln(w, "No visits found.")
		return err
	}
	if loc == nil {
		loc = time.UTC
	}

	tw := newTable(w)
	if _, err := fmt.Fprintln(tw, "REGISTERED\tSTATUS\tQUEUE\tBOOKING\tPLATE\tDRIVER\tCOMPANY\tGATE"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, v := range visits {
		registered := "-"
		if v.CheckInTime != nil {
			registered = v.CheckInTime.In(loc).Format("2006-01-02 15:04")
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			registered, v.Status, dash(v.QueueNumber), dash(v.BookingCode),
			v.LicensePlate, truncate(v.DriverName, 24), truncate(v.Company, 24), dash(v.Gate)); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	return tw.Flush()
}

func printOverstayTable(w io.Writer, rows []overstayRow) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No overstaying trucks.")
		return err
	}

	tw := newTable(w)
	if _, err := fmt.Fprintln(tw, "QUEUE\tPLATE\tCOMPANY\tSTATUS\tGATE\tINSIDE"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			dash(r.QueueNumber), r.LicensePlate, truncate(r.Company, 24), r.Status, dash(r.Gate),
			formatElapsed(r.Minutes)); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	return tw.Flush()
}

// formatElapsed renders minutes as "5h07m".
func formatElapsed(minutes int64) string {
	return fmt.Sprintf("%dh%02dm", minutes/60, minutes%60)
}

// truncate shortens s to limit runes, ending with "..." when cut.
func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit <= 3 {
		return string(r[:limit])
	}
	return string(r[:limit-3]) + "..."
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
