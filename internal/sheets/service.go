package sheets

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"invoicer/internal/batch"
	"invoicer/internal/logger"
	"invoicer/pkg/models"
)

// DefaultWorksheet is the tab the invoice register is appended to.
const DefaultWorksheet = "Facturen"

var headers = []interface{}{
	"Bestand", "Factuurnummer", "Factuurdatum", "Vervaldatum", "Klant",
	"Excl. BTW", "BTW", "Incl. BTW", "Status", "Verwerkt", "Fout",
}

// lastColumn is the column letter of the last header.
const lastColumn = "K"

var spreadsheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

// Service appends batch results to an invoice register in Google Sheets.
type Service struct {
	sheetsService *sheets.Service
	spreadsheetID string
	worksheet     string
	log           zerolog.Logger
}

// RegisterRow represents a row to be written to the sheet
type RegisterRow struct {
	Filename      string
	InvoiceNumber string
	InvoiceDate   string
	DueDate       string
	Customer      string
	ExclTax       float64
	Tax           float64
	InclTax       float64
	Status        string
	ProcessedAt   string
	Error         string
}

// NewSheetsService creates a new Google Sheets service from the service
// account in GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS.
func NewSheetsService(ctx context.Context, sheetURL, worksheet string) (*Service, error) {
	const op = "NewSheetsService"

	spreadsheetID, err := ExtractSpreadsheetID(sheetURL)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to extract spreadsheet ID: %w", op, err)
	}

	var creds []byte
	if credsFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credsFile != "" {
		creds, err = os.ReadFile(credsFile)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to read credentials file: %w", op, err)
		}
	} else if credsJSON := os.Getenv("GOOGLE_CREDENTIALS"); credsJSON != "" {
		creds = []byte(credsJSON)
	} else {
		return nil, fmt.Errorf("%s: neither GOOGLE_APPLICATION_CREDENTIALS nor GOOGLE_CREDENTIALS is set", op)
	}

	config, err := google.JWTConfigFromJSON(creds, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse credentials: %w", op, err)
	}

	return NewService(ctx, spreadsheetID, worksheet, option.WithHTTPClient(config.Client(ctx)))
}

// NewService creates a Service for spreadsheetID using the given client options.
func NewService(ctx context.Context, spreadsheetID, worksheet string, opts ...option.ClientOption) (*Service, error) {
	const op = "NewService"

	sheetsService, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create sheets service: %w", op, err)
	}
	if worksheet == "" {
		worksheet = DefaultWorksheet
	}

	log := logger.WithComponent("sheets")
	log.Debug().Str("spreadsheet_id", spreadsheetID).Str("worksheet", worksheet).Msg("Sheets service ready")

	return &Service{
		sheetsService: sheetsService,
		spreadsheetID: spreadsheetID,
		worksheet:     worksheet,
		log:           log,
	}, nil
}

// ExtractSpreadsheetID extracts the spreadsheet ID from a Google Sheets URL
func ExtractSpreadsheetID(url string) (string, error) {
	matches := spreadsheetIDPattern.FindStringSubmatch(url)
	if len(matches) < 2 {
		return "", fmt.Errorf("invalid Google Sheets URL format")
	}
	return matches[1], nil
}

// Export implements batch.Exporter: one register row per result, skipped
// records excluded.
func (s *Service) Export(ctx context.Context, results []batch.Result) error {
	const op = "Export"

	rows := ConvertResults(results, time.Now())
	if len(rows) == 0 {
		return nil
	}

	s.log.Info().
		Str("sheet", s.worksheet).
		Int("rows", len(rows)).
		Msg("Writing invoice register to Google Sheet")

	if err := s.ensureSheetWithHeaders(ctx); err != nil {
		return fmt.Errorf("%s: failed to ensure sheet exists: %w", op, err)
	}

	values := make([][]interface{}, 0, len(rows))
	for _, row := range rows {
		values = append(values, row.Values())
	}

	_, err := s.sheetsService.Spreadsheets.Values.Append(
		s.spreadsheetID,
		s.worksheet+"!A:"+lastColumn,
		&sheets.ValueRange{Values: values},
	).ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to append values to sheet: %w", op, err)
	}

	s.log.Info().
		Int("rows_written", len(values)).
		Msg("Successfully wrote invoice register")

	return nil
}

// ConvertResults turns batch results into register rows.
func ConvertResults(results []batch.Result, now time.Time) []RegisterRow {
	processedAt := now.Format("02-01-2006 15:04:05")

	rows := make([]RegisterRow, 0, len(results))
	for _, result := range results {
		if result.Status == batch.StatusSkipped {
			continue
		}

		row := RegisterRow{
			Filename:    result.Filename,
			Status:      string(result.Status),
			ProcessedAt: processedAt,
		}
		if result.Err != nil {
			row.Error = result.Err.Error()
		}

		if inv := result.Invoice; inv != nil {
			row.InvoiceNumber = inv.InvoiceNumber
			row.InvoiceDate = inv.InvoiceDate.String()
			row.DueDate = inv.DueDate.String()
			row.Customer = inv.Customer.String("naam")
			row.ExclTax = amount(inv.Totals.ExclTax)
			row.Tax = amount(inv.Totals.Tax)
			row.InclTax = amount(inv.Totals.InclTax)
		} else if result.Record != "" {
			row.InvoiceNumber = result.Record
		}

		rows = append(rows, row)
	}
	return rows
}

// Values converts the row to cell values in header order.
func (r RegisterRow) Values() []interface{} {
	return []interface{}{
		r.Filename,      // A: Bestand
		r.InvoiceNumber, // B: Factuurnummer
		r.InvoiceDate,   // C: Factuurdatum
		r.DueDate,       // D: Vervaldatum
		r.Customer,      // E: Klant
		r.ExclTax,       // F: Excl. BTW
		r.Tax,           // G: BTW
		r.InclTax,       // H: Incl. BTW
		r.Status,        // I: Status
		r.ProcessedAt,   // J: Verwerkt
		r.Error,         // K: Fout
	}
}

// amount converts to float64 for the Sheets API, which only takes numbers.
func amount(m models.Money) float64 {
	return m.Decimal().InexactFloat64()
}

// ensureSheetWithHeaders ensures the sheet exists and has proper headers
func (s *Service) ensureSheetWithHeaders(ctx context.Context) error {
	const op = "ensureSheetWithHeaders"

	spreadsheet, err := s.sheetsService.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to get spreadsheet: %w", op, err)
	}

	var sheetExists bool
	var sheetID int64
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == s.worksheet {
			sheetExists = true
			sheetID = sheet.Properties.SheetId
			break
		}
	}

	if !sheetExists {
		s.log.Info().Str("sheet", s.worksheet).Msg("Creating new sheet")

		batchUpdateReq := &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{
				{AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: s.worksheet},
				}},
			},
		}

		resp, err := s.sheetsService.Spreadsheets.BatchUpdate(s.spreadsheetID, batchUpdateReq).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("%s: failed to create sheet: %w", op, err)
		}
		sheetID = resp.Replies[0].AddSheet.Properties.SheetId
	}

	headerRange := fmt.Sprintf("%s!A1:%s1", s.worksheet, lastColumn)
	resp, err := s.sheetsService.Spreadsheets.Values.Get(s.spreadsheetID, headerRange).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to get headers: %w", op, err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}

	s.log.Info().Str("sheet", s.worksheet).Msg("Adding headers to sheet")

	_, err = s.sheetsService.Spreadsheets.Values.Update(
		s.spreadsheetID,
		headerRange,
		&sheets.ValueRange{Values: [][]interface{}{headers}},
	).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to add headers: %w", op, err)
	}

	if err := s.formatHeaders(ctx, sheetID); err != nil {
		s.log.Warn().Err(err).Msg("Failed to format headers, continuing anyway")
	}
	return nil
}

// formatHeaders makes the header row bold and sizes the columns
func (s *Service) formatHeaders(ctx context.Context, sheetID int64) error {
	const op = "formatHeaders"

	columns := int64(len(headers))
	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   columns,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{Bold: true},
						BackgroundColor: &sheets.Color{
							Red:   0.9,
							Green: 0.9,
							Blue:  0.9,
						},
					},
				},
				Fields: "userEnteredFormat(textFormat,backgroundColor)",
			},
		},
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   columns,
				},
			},
		},
	}

	_, err := s.sheetsService.Spreadsheets.BatchUpdate(s.spreadsheetID,
		&sheets.BatchUpdateSpreadsheetRequest{Requests: requests}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to format headers: %w", op, err)
	}
	return nil
}
