// Package donation implements the donation scheduler process: it works out
// when each donor can next be asked to donate and appends the schedule to
// the Donation_Schedule sheet.
package donation

import (
	"context"
	"fmt"
	"sort"

	"github.com/harvestingmedia/dataprocessor/dates"
	"github.com/harvestingmedia/dataprocessor/facility"
	"github.com/harvestingmedia/dataprocessor/hours"
	"github.com/harvestingmedia/dataprocessor/normalize"
	"github.com/harvestingmedia/dataprocessor/pipeline"
	"github.com/harvestingmedia/dataprocessor/schedule"
	"github.com/harvestingmedia/dataprocessor/table"
)

const (
	// ProcessName is the registry name of the donation scheduler
	ProcessName = "donation_scheduler"
	// DefaultSheetName is the tab the schedule is appended to
	DefaultSheetName = "Donation_Schedule"
)

// Field keys of the column mapping
const (
	FieldDonorName    = "donor_name"
	FieldDonationDate = "donation_date"
	FieldFacility     = "facility"
	FieldAccount      = "account"
	FieldPhone        = "phone"
)

// Output column headers
const (
	ColDonorName        = "Donor Name"
	ColFirstName        = "First Name"
	ColFacility         = "Facility"
	ColCenterName       = "Center Name"
	ColDonationDate     = "Donation Date"
	ColNextDonationDate = "Next Donation Date"
	ColDateToSend       = "Date to Send"
	ColAccount          = "Account"
	ColPhone            = "Phone"
)

// Stats keys
const (
	StatTotalDonations = "total_donations"
	StatUniqueDonors   = "unique_donors"
	StatCenters        = "centers"
)

// HoursSource provides the weekly hours table for one run
type HoursSource interface {
	Fetch(ctx context.Context) hours.Snapshot
}

// Columns names the input columns of one run. Account and Phone are optional
// and only appear in the output when set.
type Columns struct {
	DonorName    string
	DonationDate string
	Facility     string
	Account      string
	Phone        string
}

// DonorRecord is one processed input row
type DonorRecord struct {
	DonorName        string              `json:"donor_name"`
	Account          string              `json:"account,omitempty"`
	Phone            string              `json:"phone,omitempty"`
	RawDate          string              `json:"raw_date"`
	FacilityCode     string              `json:"facility"`
	FirstName        string              `json:"first_name"`
	Location         facility.LocationID `json:"center_name"`
	DonationDate     dates.Date          `json:"donation_date"`
	NextDonationDate dates.Date          `json:"next_donation_date"`
	DateToSend       string              `json:"date_to_send"`
}

// Result is the outcome of a run together with the processed records.
// Records is nil when the run failed before computing them.
type Result struct {
	pipeline.Outcome
	Records []DonorRecord
}

// Processor is the donation scheduler
type Processor struct {
	hours HoursSource
	sink  pipeline.Sink
	dest  pipeline.Destination
}

// NewProcessor creates a donation scheduler writing to dest
func NewProcessor(source HoursSource, sink pipeline.Sink, dest pipeline.Destination) *Processor {
	if dest.SheetName == "" {
		dest.SheetName = DefaultSheetName
	}
	return &Processor{hours: source, sink: sink, dest: dest}
}

// Name returns the registry name
func (p *Processor) Name() string { return ProcessName }

// Title returns the display name
func (p *Processor) Title() string { return "Donation Scheduler" }

// Extensions returns the accepted upload types
func (p *Processor) Extensions() []string { return table.AllExtensions }

// Destination returns where the schedule is written
func (p *Processor) Destination() pipeline.Destination { return p.dest }

// Fields returns the column mapping the process needs
func (p *Processor) Fields() []pipeline.Field {
	return []pipeline.Field{
		{Key: FieldDonorName, Label: "Donor Name Column", Required: true, Patterns: []string{"donor name", "name", "donor"}},
		{Key: FieldDonationDate, Label: "Donation Date Column", Required: true, Patterns: []string{"donation date", "date"}},
		{Key: FieldFacility, Label: "Facility Code Column", Required: true, Patterns: []string{"facility", "facility code", "center", "site"}},
		{Key: FieldAccount, Label: "Account Column"},
		{Key: FieldPhone, Label: "Phone Column"},
	}
}

// Run maps the caller's column mapping onto Columns and processes the table
func (p *Processor) Run(ctx context.Context, in *table.Table, mapping pipeline.Mapping, opts pipeline.Options) pipeline.Outcome {
	if err := mapping.Validate(p.Fields(), in); err != nil {
		outcome := pipeline.NewOutcome(ProcessName, p.dest)
		outcome.Fail(pipeline.FailureStructural, err.Error())
		return outcome
	}

	cols := Columns{}
	cols.DonorName, _ = mapping.Column(FieldDonorName)
	cols.DonationDate, _ = mapping.Column(FieldDonationDate)
	cols.Facility, _ = mapping.Column(FieldFacility)
	cols.Account, _ = mapping.Column(FieldAccount)
	cols.Phone, _ = mapping.Column(FieldPhone)

	return p.Process(ctx, in, cols, opts).Outcome
}

// Process runs the scheduler over a table. The sink is written at most once,
// after every record has been computed.
func (p *Processor) Process(ctx context.Context, in *table.Table, cols Columns, opts pipeline.Options) Result {
	res := Result{Outcome: pipeline.NewOutcome(ProcessName, p.dest)}
	log := res.Logger()
	diag := &res.Diagnostics
	diag.Rows = in.Len()

	input, err := readColumns(in, cols)
	if err != nil {
		res.Fail(pipeline.FailureStructural, err.Error())
		return res
	}

	var override *dates.Pattern
	if opts.DateFormat != "" {
		pattern, err := dates.Lookup(opts.DateFormat)
		if err != nil {
			res.Fail(pipeline.FailureStructural, err.Error())
			return res
		}
		override = &pattern
	}

	if in.Len() == 0 {
		res.Fail(pipeline.FailureStructural, "the file has no data rows")
		return res
	}

	log.Info("Starting donation schedule run", "rows", in.Len())

	snapshot := p.hours.Fetch(ctx)
	weekly := snapshot.Hours
	if snapshot.Degraded || weekly == nil {
		weekly = hours.WeeklyHours{}
		diag.HoursDegraded = true
		diag.HoursReason = snapshot.Reason
		diag.Warn("center hours unavailable, next dates use the %d-day fallback", schedule.FallbackOffsetDays)
	}

	parsed := dates.ParseColumn(input.dates, override)
	diag.UnparsedDates = parsed.Unparsed
	diag.PermissiveDates = parsed.Permissive
	if !parsed.Permissive {
		diag.DateFormat = parsed.Pattern.Name
	}
	if parsed.Unparsed > 0 {
		diag.Warn("%d dates could not be parsed, check the date format", parsed.Unparsed)
		log.Warn("Unparsed donation dates", "count", parsed.Unparsed, "format", diag.DateFormat)
	}

	if parsed.AllUnparsed() {
		res.Fail(pipeline.FailureStructural, fmt.Sprintf(
			"no value in column %q could be read as a date; check that the donation date column is mapped correctly",
			cols.DonationDate))
		log.Warn("Aborting run, date column unparseable", "column", cols.DonationDate)
		return res
	}

	records := make([]DonorRecord, in.Len())
	for i := range records {
		records[i] = buildRecord(input, i, parsed.Dates[i], weekly)
	}
	res.Records = records

	summarize(records, diag)
	res.Stats = map[string]int{
		StatTotalDonations: len(records),
		StatUniqueDonors:   countUnique(records, func(r DonorRecord) string { return r.DonorName }),
		StatCenters:        countUnique(records, func(r DonorRecord) string { return r.Location.Label() }),
	}

	out, err := OutputTable(records, cols.Account != "", cols.Phone != "")
	if err != nil {
		res.Fail(pipeline.FailureStructural, err.Error())
		return res
	}

	pipeline.Deliver(ctx, p.sink, p.dest, out, &res.Outcome)
	return res
}

type inputColumns struct {
	names, dates, facilities, accounts, phones []string
}

func readColumns(in *table.Table, cols Columns) (inputColumns, error) {
	var (
		input inputColumns
		err   error
	)
	if input.names, err = in.Column(cols.DonorName); err != nil {
		return input, fmt.Errorf("donor name: %w", err)
	}
	if input.dates, err = in.Column(cols.DonationDate); err != nil {
		return input, fmt.Errorf("donation date: %w", err)
	}
	if input.facilities, err = in.Column(cols.Facility); err != nil {
		return input, fmt.Errorf("facility: %w", err)
	}
	if cols.Account != "" {
		if input.accounts, err = in.Column(cols.Account); err != nil {
			return input, fmt.Errorf("account: %w", err)
		}
	}
	if cols.Phone != "" {
		if input.phones, err = in.Column(cols.Phone); err != nil {
			return input, fmt.Errorf("phone: %w", err)
		}
	}
	return input, nil
}

func buildRecord(input inputColumns, i int, donated dates.Date, weekly hours.WeeklyHours) DonorRecord {
	code := input.facilities[i]
	next := schedule.NextAvailable(donated, code, weekly)

	rec := DonorRecord{
		DonorName:        input.names[i],
		RawDate:          input.dates[i],
		FacilityCode:     code,
		FirstName:        normalize.FirstName(input.names[i]),
		Location:         facility.Resolve(code),
		DonationDate:     donated,
		NextDonationDate: next,
		DateToSend:       next.String(),
	}
	if input.accounts != nil {
		rec.Account = normalize.Text(input.accounts[i])
	}
	if input.phones != nil {
		rec.Phone = normalize.Text(input.phones[i])
	}
	return rec
}

func summarize(records []DonorRecord, diag *pipeline.Diagnostics) {
	diag.FacilitySummary = make(map[string]int)
	unknown := make(map[string]struct{})
	for _, r := range records {
		diag.FacilitySummary[r.Location.Label()]++
		if !r.Location.IsKnown() {
			unknown[r.FacilityCode] = struct{}{}
		}
	}

	if len(unknown) == 0 {
		return
	}
	for code := range unknown {
		diag.UnknownFacilityCodes = append(diag.UnknownFacilityCodes, code)
	}
	sort.Strings(diag.UnknownFacilityCodes)
	diag.Warn("%d rows have an unknown facility code", diag.FacilitySummary[facility.Unknown.Label()])
}

func countUnique(records []DonorRecord, key func(DonorRecord) string) int {
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		seen[key(r)] = struct{}{}
	}
	return len(seen)
}

// OutputTable lays records out in the Donation_Schedule column order. Absent
// dates are written as empty cells.
func OutputTable(records []DonorRecord, withAccount, withPhone bool) (*table.Table, error) {
	columns := []string{
		ColDonorName,
		ColFirstName,
		ColFacility,
		ColCenterName,
		ColDonationDate,
		ColNextDonationDate,
		ColDateToSend,
	}
	if withAccount {
		columns = append(columns, ColAccount)
	}
	if withPhone {
		columns = append(columns, ColPhone)
	}

	rows := make([][]string, len(records))
	for i, r := range records {
		row := []string{
			r.DonorName,
			r.FirstName,
			r.FacilityCode,
			r.Location.Label(),
			r.DonationDate.String(),
			r.NextDonationDate.String(),
			r.DateToSend,
		}
		if withAccount {
			row = append(row, r.Account)
		}
		if withPhone {
			row = append(row, r.Phone)
		}
		rows[i] = row
	}
	return table.New(columns, rows)
}
