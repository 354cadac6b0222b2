// Package serialize emits the nested report JSON consumed downstream.
// Field names and formatting are a compatibility contract: two decimal
// places, empty string for no-activity cells, periods ascending.
package serialize

// ColData is one output cell.
type ColData struct {
	Attributes *string `json:"attributes"`
	Value      string  `json:"value"`
	ID         *string `json:"id"`
	Href       *string `json:"href"`
}

// ColDataWrap wraps cells for header and summary blocks.
type ColDataWrap struct {
	ColData []ColData `json:"colData"`
}

// RowsWrap wraps nested rows.
type RowsWrap struct {
	Row []RowObject `json:"row"`
}

// RowObject is one output row: a SECTION container with header,
// children, and summary, or a DATA leaf with cells.
type RowObject struct {
	ID       *string      `json:"id"`
	ParentID *string      `json:"parentId"`
	Header   *ColDataWrap `json:"header"`
	Rows     *RowsWrap    `json:"rows"`
	Summary  *ColDataWrap `json:"summary"`
	ColData  []ColData    `json:"colData"`
	Type     *string      `json:"type"`
	Group    *string      `json:"group"`
}

// MetaField is a name/value metadata pair on a column.
type MetaField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Column describes one output column.
type Column struct {
	ColTitle string      `json:"colTitle"`
	ColType  string      `json:"colType"`
	MetaData []MetaField `json:"metaData"`
	Columns  *RowsWrap   `json:"columns"`
}

// ColumnsWrap wraps the column list.
type ColumnsWrap struct {
	Column []Column `json:"column"`
}

// Option is a report header option pair.
type Option struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Header carries report metadata and the period bounds.
type Header struct {
	Time               string   `json:"time"`
	ReportName         string   `json:"reportName"`
	DateMacro          *string  `json:"dateMacro"`
	ReportBasis        string   `json:"reportBasis"`
	StartPeriod        string   `json:"startPeriod"`
	EndPeriod          string   `json:"endPeriod"`
	SummarizeColumnsBy string   `json:"summarizeColumnsBy"`
	Currency           string   `json:"currency"`
	Customer           *string  `json:"customer"`
	Vendor             *string  `json:"vendor"`
	Employee           *string  `json:"employee"`
	Item               *string  `json:"item"`
	Clazz              *string  `json:"clazz"`
	Department         *string  `json:"department"`
	Option             []Option `json:"option"`
}

// Report is one period's serialized report document.
type Report struct {
	Header  Header      `json:"header"`
	Columns ColumnsWrap `json:"columns"`
	Rows    RowsWrap    `json:"rows"`
}

// PeriodReport pairs a report with its period bounds. The full output
// is an ordered slice of these, ascending by start date.
type PeriodReport struct {
	Month     string `json:"month"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Report    Report `json:"report"`
}
