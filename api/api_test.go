package api

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/harvestingmedia/dataprocessor/pipeline"
	"github.com/harvestingmedia/dataprocessor/table"
)

// stubProcessor echoes the mapped email column
type stubProcessor struct {
	extensions []string
	lastOpts   pipeline.Options
	fail       bool
}

func (p *stubProcessor) Name() string  { return "stub" }
func (p *stubProcessor) Title() string { return "Stub" }
func (p *stubProcessor) Fields() []pipeline.Field {
	return []pipeline.Field{
		{Key: "email", Label: "Email Column", Required: true, Patterns: []string{"email"}},
		{Key: "phone", Label: "Phone Column"},
	}
}
func (p *stubProcessor) Extensions() []string { return p.extensions }
func (p *stubProcessor) Destination() pipeline.Destination {
	return pipeline.Destination{SheetName: "Stub_Tab"}
}

func (p *stubProcessor) Run(_ context.Context, in *table.Table, mapping pipeline.Mapping, opts pipeline.Options) pipeline.Outcome {
	p.lastOpts = opts
	outcome := pipeline.NewOutcome(p.Name(), p.Destination())
	if err := mapping.Validate(p.Fields(), in); err != nil || p.fail {
		outcome.Fail(pipeline.FailureStructural, "bad mapping")
		return outcome
	}
	col, _ := mapping.Column("email")
	values, _ := in.Column(col)
	rows := make([][]string, len(values))
	for i, v := range values {
		rows[i] = []string{v}
	}
	out, _ := table.New([]string{"Email"}, rows)
	outcome.Output = out
	outcome.Success = true
	return outcome
}

func newService(t *testing.T, p *stubProcessor) *Service {
	t.Helper()
	reg, err := pipeline.NewRegistry(p)
	if err != nil {
		t.Fatal(err)
	}
	return New(reg)
}

// multipartReader builds a multipart body from fields and an optional file
func multipartReader(t *testing.T, fields map[string]string, filename, content string) *multipart.Reader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if filename != "" {
		fw, err := w.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/processes/stub/run", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	form, err := req.MultipartReader()
	if err != nil {
		t.Fatal(err)
	}
	return form
}

const contactsCSV = "Name,E-mail\nAnn,ann@x.com\nBob,bob@x.com\n"

func TestReadUpload(t *testing.T) {
	up, err := readUpload(multipartReader(t, map[string]string{
		"has_headers": "false",
		"mapping":     `{"email":"Column 2"}`,
		"date_format": " DD/MM/YYYY ",
	}, "contacts.csv", contactsCSV))
	if err != nil {
		t.Fatalf("readUpload() error = %v", err)
	}

	if up.filename != "contacts.csv" || string(up.data) != contactsCSV {
		t.Errorf("file = %q (%d bytes)", up.filename, len(up.data))
	}
	if up.hasHeaders {
		t.Error("hasHeaders should be false")
	}
	if !reflect.DeepEqual(up.mapping, pipeline.Mapping{"email": "Column 2"}) {
		t.Errorf("mapping = %v", up.mapping)
	}
	if up.dateFormat != "DD/MM/YYYY" {
		t.Errorf("dateFormat = %q", up.dateFormat)
	}
}

func TestReadUpload_Errors(t *testing.T) {
	tests := []struct {
		name     string
		fields   map[string]string
		filename string
	}{
		{"no file", map[string]string{"has_headers": "true"}, ""},
		{"bad has_headers", map[string]string{"has_headers": "maybe"}, "a.csv"},
		{"bad mapping", map[string]string{"mapping": "{not json"}, "a.csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := readUpload(multipartReader(t, tt.fields, tt.filename, contactsCSV)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestList(t *testing.T) {
	svc := newService(t, &stubProcessor{extensions: table.AllExtensions})

	got := svc.List()
	want := []ProcessInfo{{
		Name:        "stub",
		Title:       "Stub",
		Destination: "Stub_Tab",
		Fields: []FieldInfo{
			{Key: "email", Label: "Email Column", Required: true},
			{Key: "phone", Label: "Phone Column"},
		},
		Extensions: table.AllExtensions,
	}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("List() = %+v, want %+v", got, want)
	}
}

func TestInspect(t *testing.T) {
	svc := newService(t, &stubProcessor{extensions: table.AllExtensions})

	resp, err := svc.inspect("stub", &upload{filename: "contacts.csv", data: []byte(contactsCSV), hasHeaders: true})
	if err != nil {
		t.Fatalf("inspect() error = %v", err)
	}
	if !reflect.DeepEqual(resp.Columns, []string{"Name", "E-mail"}) {
		t.Errorf("Columns = %v", resp.Columns)
	}
	if resp.Suggestions["email"] != "E-mail" {
		t.Errorf("Suggestions = %v", resp.Suggestions)
	}
	if resp.Preview.Total != 2 || len(resp.Preview.Rows) != 2 {
		t.Errorf("Preview = %+v", resp.Preview)
	}
}

func TestInspect_Errors(t *testing.T) {
	svc := newService(t, &stubProcessor{extensions: []string{table.ExtCSV}})

	_, err := svc.inspect("nope", &upload{filename: "a.csv", data: []byte(contactsCSV), hasHeaders: true})
	if statusFor(err) != http.StatusNotFound {
		t.Errorf("unknown process: err = %v, status = %d", err, statusFor(err))
	}

	_, err = svc.inspect("stub", &upload{filename: "a.txt", data: []byte(contactsCSV), hasHeaders: true})
	if !errors.Is(err, table.ErrUnsupportedFormat) || statusFor(err) != http.StatusBadRequest {
		t.Errorf("restricted extension: err = %v", err)
	}
}

func TestRun(t *testing.T) {
	p := &stubProcessor{extensions: table.AllExtensions}
	svc := newService(t, p)

	resp, err := svc.run(context.Background(), "stub", &upload{
		filename:   "contacts.csv",
		data:       []byte(contactsCSV),
		hasHeaders: true,
		mapping:    pipeline.Mapping{"email": "E-mail"},
		dateFormat: "MM/DD/YYYY",
	})
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if !resp.Success || resp.Preview == nil {
		t.Fatalf("resp = %+v", resp)
	}
	if !reflect.DeepEqual(resp.Preview.Rows, [][]string{{"ann@x.com"}, {"bob@x.com"}}) {
		t.Errorf("Preview.Rows = %v", resp.Preview.Rows)
	}
	if p.lastOpts.DateFormat != "MM/DD/YYYY" {
		t.Errorf("DateFormat not passed through: %+v", p.lastOpts)
	}
}

func TestRun_FailedOutcomeIsNotAnError(t *testing.T) {
	svc := newService(t, &stubProcessor{extensions: table.AllExtensions, fail: true})

	resp, err := svc.run(context.Background(), "stub", &upload{
		filename: "contacts.csv", data: []byte(contactsCSV), hasHeaders: true,
		mapping: pipeline.Mapping{"email": "E-mail"},
	})
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if resp.Success || resp.Failure != pipeline.FailureStructural || resp.Preview != nil {
		t.Errorf("resp = %+v", resp)
	}
}

func TestRun_MissingMapping(t *testing.T) {
	svc := newService(t, &stubProcessor{extensions: table.AllExtensions})

	_, err := svc.run(context.Background(), "stub", &upload{filename: "a.csv", data: []byte(contactsCSV), hasHeaders: true})
	if err == nil || !strings.Contains(err.Error(), "mapping") {
		t.Errorf("err = %v", err)
	}
}
