package contacts

import (
	"github.com/harvestingmedia/dataprocessor/pipeline"
	"github.com/harvestingmedia/dataprocessor/table"
)

// Process names
const (
	CertoMarket         = "certo_market"
	CertoMarketVisits   = "certo_market_visits"
	KeyFoodValleyStream = "key_food_valley_stream"
)

// Output headers shared by the processes
const (
	HeaderEmail          = "Email"
	HeaderFirstName      = "First Name"
	HeaderName           = "Name"
	HeaderPhone          = "Phone"
	HeaderRegisteredDate = "Registered Date"
	HeaderFirstOrderDate = "First Order Date"
	HeaderSpent          = "Spent $"
)

const (
	sheetCertoMarket      = "Certo_Market"
	sheetCertoMarketMKT   = "Certo_Market_MKT_Report"
	sheetKeyFoodValley    = "Key_Food_Valley_Stream"
	fieldEmail            = "email"
	fieldFirstName        = "first_name"
	fieldName             = "name"
	fieldPhone            = "phone"
	fieldRegistrationDate = "registration_date"
	fieldFirstOrderDate   = "first_order_date"
	fieldSpent            = "spent"
)

var (
	emailPatterns     = []string{"email", "e-mail", "mail"}
	firstNamePatterns = []string{"first name", "first", "name", "customer name", "customer"}
	phonePatterns     = []string{"phone", "phone number", "contact", "telephone", "cell", "mobile"}
)

func required(key, label string, patterns ...string) pipeline.Field {
	return pipeline.Field{Key: key, Label: label, Required: true, Patterns: patterns}
}

// NewCertoMarket appends email, first name and phone to the Certo_Market tab
func NewCertoMarket(sink pipeline.Sink, spreadsheetID string) *Process {
	return &Process{
		name:       CertoMarket,
		title:      "Certo Market",
		extensions: table.AllExtensions,
		columns: []ColumnConfig{
			{Field: required(fieldEmail, "Email Column", emailPatterns...), Header: HeaderEmail, Type: TypeEmail},
			{Field: required(fieldFirstName, "First Name Column", firstNamePatterns...), Header: HeaderFirstName, Type: TypeName},
			{Field: required(fieldPhone, "Phone Column", phonePatterns...), Header: HeaderPhone, Type: TypeText},
		},
		sink: sink,
		dest: pipeline.Destination{SpreadsheetID: spreadsheetID, SheetName: sheetCertoMarket, Mode: pipeline.ModeAppend},
	}
}

// NewCertoMarketVisits replaces the Certo_Market_MKT_Report tab with the
// latest visits report
func NewCertoMarketVisits(sink pipeline.Sink, spreadsheetID string) *Process {
	return &Process{
		name:       CertoMarketVisits,
		title:      "Certo Market Visits Report",
		extensions: table.AllExtensions,
		columns: []ColumnConfig{
			{Field: required(fieldName, "Name Column", "name", "customer name", "customer"), Header: HeaderName, Type: TypeName},
			{Field: required(fieldEmail, "Email Column", emailPatterns...), Header: HeaderEmail, Type: TypeEmail},
			{Field: required(fieldPhone, "Phone Column", phonePatterns...), Header: HeaderPhone, Type: TypeText},
			{Field: required(fieldRegistrationDate, "Registration Date Column", "registered date", "registration date", "registered"), Header: HeaderRegisteredDate, Type: TypeDate},
			{Field: required(fieldFirstOrderDate, "First Order Date Column", "first order date", "first order"), Header: HeaderFirstOrderDate, Type: TypeDate},
			{Field: required(fieldSpent, "Spent Amount Column", "spent $", "spent", "amount", "total"), Header: HeaderSpent, Type: TypeText},
		},
		sink: sink,
		dest: pipeline.Destination{SpreadsheetID: spreadsheetID, SheetName: sheetCertoMarketMKT, Mode: pipeline.ModeReplace},
	}
}

// NewKeyFoodValleyStream appends the Key Food Valley Stream customer export.
// Only CSV uploads are accepted.
func NewKeyFoodValleyStream(sink pipeline.Sink, spreadsheetID string) *Process {
	return &Process{
		name:       KeyFoodValleyStream,
		title:      "Key Food Valley Stream",
		extensions: []string{table.ExtCSV},
		columns: []ColumnConfig{
			{Field: required(fieldEmail, "Email Column", emailPatterns...), Header: HeaderEmail, Type: TypeEmail},
			{Field: required(fieldFirstName, "First Name Column", firstNamePatterns...), Header: HeaderFirstName, Type: TypeName},
			{Field: required(fieldPhone, "Phone Column", phonePatterns...), Header: HeaderPhone, Type: TypeText},
		},
		sink: sink,
		dest: pipeline.Destination{SpreadsheetID: spreadsheetID, SheetName: sheetKeyFoodValley, Mode: pipeline.ModeAppend},
	}
}
