package contacts

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/harvestingmedia/dataprocessor/pipeline"
	"github.com/harvestingmedia/dataprocessor/table"
)

type MockSink struct {
	Writes     int
	LastDest   pipeline.Destination
	LastOutput *table.Table
	WriteError error
}

func (m *MockSink) Write(_ context.Context, dest pipeline.Destination, out *table.Table) error {
	m.Writes++
	m.LastDest = dest
	m.LastOutput = out
	return m.WriteError
}

func mustTable(t *testing.T, columns []string, rows ...[]string) *table.Table {
	t.Helper()
	tbl, err := table.New(columns, rows)
	if err != nil {
		t.Fatalf("table.New error = %v", err)
	}
	return tbl
}

func TestCertoMarket_Run(t *testing.T) {
	in := mustTable(t, []string{"E-mail Address", "Customer", "Cell"},
		[]string{" Ann@Example.COM ", "aNN  marie", "555-0100"},
		[]string{"ann@example.com", "ANN", "555-0101"},
		[]string{"bob@example.com", "bob", ""},
	)
	sink := &MockSink{}
	p := NewCertoMarket(sink, "sheet-id")

	outcome := p.Run(context.Background(), in, pipeline.Mapping{
		"email": "E-mail Address", "first_name": "Customer", "phone": "Cell",
	}, pipeline.Options{})

	if !outcome.Success {
		t.Fatalf("unexpected failure: %s", outcome.Reason)
	}
	if sink.Writes != 1 || sink.LastDest.SheetName != "Certo_Market" || sink.LastDest.Mode != pipeline.ModeAppend {
		t.Errorf("sink = %+v", sink)
	}

	out := sink.LastOutput
	if !reflect.DeepEqual(out.Columns(), []string{"Email", "First Name", "Phone"}) {
		t.Errorf("columns = %v", out.Columns())
	}
	if got := out.Row(0); !reflect.DeepEqual(got, []string{"ann@example.com", "Ann Marie", "555-0100"}) {
		t.Errorf("row 0 = %v", got)
	}
	if outcome.Stats[StatTotalRecords] != 3 || outcome.Stats[StatUniqueEmails] != 2 {
		t.Errorf("Stats = %v", outcome.Stats)
	}
}

func TestCertoMarketVisits_Run(t *testing.T) {
	in := mustTable(t, []string{"Name", "Email", "Phone", "Registered", "First Order", "Spent"},
		[]string{"mary SMITH", "Mary@x.com", "555", "05/04/2024", "2024-05-10 14:30:00", "12.50"},
		[]string{"joe", "joe@x.com", "556", "garbage", "", "0"},
	)
	sink := &MockSink{}
	p := NewCertoMarketVisits(sink, "sheet-id")

	outcome := p.Run(context.Background(), in, pipeline.Mapping{
		"name": "Name", "email": "Email", "phone": "Phone",
		"registration_date": "Registered", "first_order_date": "First Order", "spent": "Spent",
	}, pipeline.Options{})

	if !outcome.Success {
		t.Fatalf("unexpected failure: %s", outcome.Reason)
	}
	if sink.LastDest.Mode != pipeline.ModeReplace || sink.LastDest.SheetName != "Certo_Market_MKT_Report" {
		t.Errorf("destination = %+v", sink.LastDest)
	}

	want := [][]string{
		{"Mary Smith", "mary@x.com", "555", "2024-05-04", "2024-05-10", "12.50"},
		{"Joe", "joe@x.com", "556", "", "", "0"},
	}
	for i, w := range want {
		if got := sink.LastOutput.Row(i); !reflect.DeepEqual(got, w) {
			t.Errorf("row %d = %v, want %v", i, got, w)
		}
	}
	if outcome.Diagnostics.UnparsedDates != 1 || len(outcome.Diagnostics.Warnings) != 1 {
		t.Errorf("Diagnostics = %+v", outcome.Diagnostics)
	}
}

func TestCertoMarketVisits_DateFormatOverride(t *testing.T) {
	in := mustTable(t, []string{"Name", "Email", "Phone", "Registered", "First Order", "Spent"},
		[]string{"mary", "m@x.com", "555", "03/04/2024", "31/12/2023", "1"},
	)
	sink := &MockSink{}
	p := NewCertoMarketVisits(sink, "sheet-id")
	mapping := pipeline.SuggestMapping(p.Fields(), in.Columns())

	outcome := p.Run(context.Background(), in, mapping, pipeline.Options{DateFormat: "DD/MM/YYYY"})
	if !outcome.Success {
		t.Fatalf("unexpected failure: %s", outcome.Reason)
	}
	row := sink.LastOutput.Row(0)
	if row[3] != "2024-04-03" || row[4] != "2023-12-31" {
		t.Errorf("dates = %q, %q", row[3], row[4])
	}
}

func TestKeyFoodValleyStream(t *testing.T) {
	p := NewKeyFoodValleyStream(&MockSink{}, "sheet-id")

	if !reflect.DeepEqual(p.Extensions(), []string{".csv"}) {
		t.Errorf("Extensions() = %v", p.Extensions())
	}

	columns := []string{"Customer Name", "Mobile", "Email Address"}
	got := pipeline.SuggestMapping(p.Fields(), columns)
	want := pipeline.Mapping{"email": "Email Address", "first_name": "Customer Name", "phone": "Mobile"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SuggestMapping() = %v, want %v", got, want)
	}
}

func TestRun_Failures(t *testing.T) {
	in := mustTable(t, []string{"Email", "Name", "Phone"}, []string{"a@x.com", "a", "1"})
	mapping := pipeline.Mapping{"email": "Email", "first_name": "Name", "phone": "Phone"}

	t.Run("missing mapping", func(t *testing.T) {
		sink := &MockSink{}
		outcome := NewCertoMarket(sink, "id").Run(context.Background(), in, pipeline.Mapping{"email": "Email"}, pipeline.Options{})
		if outcome.Success || outcome.Failure != pipeline.FailureStructural || sink.Writes != 0 {
			t.Errorf("outcome = %+v, writes = %d", outcome, sink.Writes)
		}
	})

	t.Run("mapped column not in file", func(t *testing.T) {
		bad := pipeline.Mapping{"email": "Email", "first_name": "Nope", "phone": "Phone"}
		outcome := NewCertoMarket(&MockSink{}, "id").Run(context.Background(), in, bad, pipeline.Options{})
		if outcome.Failure != pipeline.FailureStructural {
			t.Errorf("outcome = %+v", outcome)
		}
	})

	t.Run("empty file", func(t *testing.T) {
		empty := mustTable(t, []string{"Email", "Name", "Phone"})
		outcome := NewCertoMarket(&MockSink{}, "id").Run(context.Background(), empty, mapping, pipeline.Options{})
		if outcome.Failure != pipeline.FailureStructural {
			t.Errorf("outcome = %+v", outcome)
		}
	})

	t.Run("unknown date format", func(t *testing.T) {
		outcome := NewCertoMarket(&MockSink{}, "id").Run(context.Background(), in, mapping, pipeline.Options{DateFormat: "whenever"})
		if outcome.Failure != pipeline.FailureStructural {
			t.Errorf("outcome = %+v", outcome)
		}
	})

	t.Run("sink rejects write", func(t *testing.T) {
		sink := &MockSink{WriteError: errors.New("quota")}
		outcome := NewCertoMarket(sink, "id").Run(context.Background(), in, mapping, pipeline.Options{})
		if outcome.Failure != pipeline.FailurePersistence || outcome.Output == nil {
			t.Errorf("outcome = %+v", outcome)
		}
	})
}
