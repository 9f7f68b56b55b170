package internal

import "strings"

type DocumentType string

const (
	DocStockPoint     DocumentType = "stock_point_file"
	DocExWork         DocumentType = "ex_work_file"
	DocFreight        DocumentType = "freight_file"
	DocCrossReference DocumentType = "cross_reference"
)

// Period identifies the pricing month a circular belongs to. Stock-point,
// ex-work and freight documents with the same period are siblings.
type Period struct {
	Month string
	Year  int
}

func (p Period) Valid() bool {
	return strings.TrimSpace(p.Month) != "" && p.Year > 0
}

type CellKind int

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
)

// Cell is a raw table cell normalized at the extraction boundary. Sources
// produce strings; anything numeric-looking is carried as a number as well so
// downstream code never re-checks for NaN/blank variants.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
}

func (c Cell) IsEmpty() bool { return c.Kind == CellEmpty }

// Table is a rectangular grid handed over by a table source. Header rows may
// be embedded at arbitrary offsets; the pipeline locates them itself.
type Table struct {
	Name string
	Rows [][]Cell
}

type Product struct {
	ProductCode string `json:"product_code"`
	Price       int    `json:"price"`
}

type FreightDetails struct {
	DistanceKM  float64 `json:"distance_km"`
	TransitDays int     `json:"transit_days"`
	State       string  `json:"state"`
	Unit        string  `json:"unit"`
}

// LocationRecord is the long-format output of the wide-table pivot: one
// record per (sap_code, location), products keyed by product code. Ex-work
// documents carry the identifying column as location_grade instead of
// location; exactly one of the two is set.
type LocationRecord struct {
	ID             int             `json:"id"`
	SapCode        string          `json:"sap_code"`
	Location       string          `json:"location,omitempty"`
	LocationGrade  string          `json:"location_grade,omitempty"`
	Products       []Product       `json:"products"`
	FreightAmount  *float64        `json:"freight_amount,omitempty"`
	FreightDetails *FreightDetails `json:"freight_details,omitempty"`
}

// LocationName returns whichever identifying column the record carries.
func (r LocationRecord) LocationName() string {
	if r.Location != "" {
		return r.Location
	}
	return r.LocationGrade
}

// PricingDocument is the on-disk/API shape of a reconciled pricing document.
type PricingDocument struct {
	Data []LocationRecord `json:"data"`
}

// FreightInfo holds one freight-rate row keyed by destination as it appears
// in the source. Destinations are not normalized at storage time; matching
// normalizes on the fly.
type FreightInfo struct {
	Destination string  `json:"destination"`
	Amount      float64 `json:"amount"`
	Unit        string  `json:"unit"`
	Per         string  `json:"per,omitempty"`
	UOM         string  `json:"uom,omitempty"`
	ValidFrom   string  `json:"valid_from,omitempty"`
	ValidTo     string  `json:"valid_to,omitempty"`
	DistanceKM  float64 `json:"distance_km,omitempty"`
	TransitDays int     `json:"transit_days,omitempty"`
	State       string  `json:"state,omitempty"`
	Sector      string  `json:"sector,omitempty"`
	District    string  `json:"district,omitempty"`
}

type CrossReferenceMetadata struct {
	TotalCompanies int    `json:"total_companies"`
	TotalMappings  int    `json:"total_mappings"`
	FileFormat     string `json:"file_format"`
}

// CrossReferenceIndex maps gail grade -> competitor -> equivalent grades.
// A stored grade list is never empty; empty results are dropped.
type CrossReferenceIndex struct {
	Companies []string                       `json:"companies"`
	Mappings  map[string]map[string][]string `json:"mappings"`
	Metadata  CrossReferenceMetadata         `json:"metadata"`
}

// CrossReferenceRecord is the flattened row form used for indexed lookups,
// one row per (grade, competitor, equivalent grade) triple.
type CrossReferenceRecord struct {
	GailGrade       string `json:"gail_grade"`
	CompetitorName  string `json:"competitor_name"`
	CompetitorGrade string `json:"competitor_grade"`
	Location        string `json:"location,omitempty"`
}

// DocumentRow mirrors the documents table in storage.
type DocumentRow struct {
	ID        int
	FileType  DocumentType
	Month     string
	Year      int
	Path      string
	Hash      string
	Status    string
	Extracted *string
	IsActive  bool
}

type FetchedMailMessage struct {
	Provider   string
	MessageID  string
	Subject    string
	From       string
	ReceivedAt string
	Raw        []byte
}

// MailRow mirrors the mails table: one fetched circular email.
type MailRow struct {
	ID         int
	Provider   string
	MessageID  string
	Subject    string
	Sender     string
	ReceivedAt string
	Hash       string
	Status     string
	RawRef     string
}

// PriceExportRow is one flattened line of the XLSX export: a single
// (location, product) pair with its attached freight, if any.
type PriceExportRow struct {
	RecordID      int
	SapCode       string
	Location      string
	ProductCode   string
	Price         int
	FreightAmount *float64
	LandedCost    *float64
	DistanceKM    *float64
	TransitDays   *int
	State         *string
	FreightUnit   *string
}

func StringPtr(v string) *string  { return &v }
func FloatPtr(v float64) *float64 { return &v }
func IntPtr(v int) *int           { return &v }
