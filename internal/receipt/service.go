package receipt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/zombor/travel-receipt/internal/category"
	"github.com/zombor/travel-receipt/internal/parser"
	"github.com/zombor/travel-receipt/internal/scanning"
)

var (
	// ErrAlreadyAssigned is returned when a receipt already belongs to a trip.
	ErrAlreadyAssigned = errors.New("receipt already belongs to a trip")
	// ErrInvalidInput is returned for corrections and trips that fail validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrScanFailed wraps errors from the OCR engine.
	ErrScanFailed = errors.New("scanning receipt")
)

const maxFilenameLength = 50

// IDGenerator generates unique IDs for receipts and trips
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type uuidGenerator struct{}

func (uuidGenerator) Generate() string {
	return uuid.NewString()
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// Options configures how a Service reads receipts.
type Options struct {
	Currency   string               // currency of scanned amounts, TWD when empty
	Location   *time.Location       // zone receipt dates are read in, local when nil
	Classifier *category.Classifier // nil uses the built-in keyword table
	Metrics    *Metrics             // nil disables metrics
}

// Service scans receipts into expenses, lets the user correct them and
// groups them into trips.
type Service struct {
	db          DB
	scanner     scanning.Scanner
	storage     Storage
	parser      *parser.Parser
	classifier  *category.Classifier
	metrics     *Metrics
	location    *time.Location
	idGenerator IDGenerator
	timeSource  TimeSource

	// serialises trip membership changes
	mu sync.Mutex
}

// NewService creates a Service with random IDs and the system clock.
func NewService(db DB, scanner scanning.Scanner, storage Storage, opts Options) *Service {
	return NewServiceWithDeps(db, scanner, storage, opts, uuidGenerator{}, systemClock{})
}

// NewServiceWithDeps creates a Service with custom ID and time sources.
func NewServiceWithDeps(db DB, scanner scanning.Scanner, storage Storage, opts Options, idGen IDGenerator, timeSrc TimeSource) *Service {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	classifier := opts.Classifier
	if classifier == nil {
		classifier = category.Default()
	}

	return &Service{
		db:          db,
		scanner:     scanner,
		storage:     storage,
		parser:      parser.New(parser.WithCurrency(opts.Currency), parser.WithLocation(loc)),
		classifier:  classifier,
		metrics:     opts.Metrics,
		location:    loc,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// sanitizeFilename keeps letters, digits, spaces, hyphens and underscores of
// the base name, in any script, and caps its length.
func sanitizeFilename(filename string) string {
	filename = filepath.Base(filename)
	ext := strings.ToLower(filepath.Ext(filename))
	base := strings.TrimSuffix(filename, filepath.Ext(filename))

	base = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_':
			return r
		case unicode.IsSpace(r):
			return ' '
		}
		return -1
	}, base)
	base = strings.Join(strings.Fields(base), " ")

	if runes := []rune(base); len(runes) > maxFilenameLength {
		base = strings.TrimSpace(string(runes[:maxFilenameLength]))
	}
	if base == "" {
		base = "receipt"
	}
	if ext == "." {
		ext = ""
	}

	return base + ext
}

// Analyze parses rawText and suggests a category. storeName overrides the
// merchant read from the text for classification; nil uses the parsed one.
func (s *Service) Analyze(rawText string, storeName *string) Analysis {
	parsed := s.parser.Parse(rawText)
	if storeName == nil {
		storeName = parsed.MerchantName
	}
	return Analysis{
		Parsed:         parsed,
		Classification: s.classifier.Classify(storeName, &rawText),
	}
}

// ProcessReceipt stores an uploaded receipt, reads its text and saves the
// best guess of merchant, date, amount and category.
func (s *Service) ProcessReceipt(ctx context.Context, filename string, data []byte, contentType string) (*Receipt, error) {
	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	savedName, err := s.storage.Save(fmt.Sprintf("%s_%s", id, sanitizeFilename(filename)), data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	rawText, err := s.scanner.ScanText(ctx, data, contentType)
	if err != nil {
		slog.Error("Failed to scan receipt",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		s.metrics.observeScanFailure()
		s.removeFile(savedName)
		return nil, fmt.Errorf("%w: %w", ErrScanFailed, err)
	}

	analysis := s.Analyze(rawText, nil)
	receipt := newReceipt(id, analysis, now)
	receipt.Filename = savedName
	receipt.ContentType = contentType

	if err := s.db.SaveReceipt(receipt); err != nil {
		s.removeFile(savedName)
		return nil, fmt.Errorf("saving receipt to database: %w", err)
	}
	s.metrics.observeAnalysis(analysis)

	slog.Info("Scanned receipt",
		"id", receipt.ID,
		"category", receipt.Category,
		"confidence", receipt.Confidence,
		"amount_tier", receipt.AmountTier,
	)

	return receipt, nil
}

func newReceipt(id string, a Analysis, now time.Time) *Receipt {
	r := &Receipt{
		ID:         id,
		Date:       a.Parsed.Date,
		Amount:     a.Parsed.TotalAmount,
		Currency:   a.Parsed.CurrencyCode,
		Category:   a.Classification.Category,
		Confidence: a.Classification.Confidence,
		AmountTier: a.Parsed.AmountTier,
		RawText:    a.Parsed.RawText,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if a.Parsed.MerchantName != nil {
		r.Merchant = *a.Parsed.MerchantName
	}
	if a.Classification.MatchedKeyword != nil {
		r.MatchedKeyword = *a.Classification.MatchedKeyword
	}
	return r
}

func (s *Service) removeFile(name string) {
	if err := s.storage.Delete(name); err != nil {
		slog.Warn("Failed to delete file", "filename", name, "error", err)
	}
}

// CorrectReceipt applies the user's corrections to a receipt.
func (s *Service) CorrectReceipt(id string, c Correction) (*Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, fmt.Errorf("getting receipt: %w", err)
	}

	if err := s.applyCorrection(receipt, c); err != nil {
		return nil, err
	}
	receipt.Corrected = true
	receipt.UpdatedAt = s.timeSource.Now()

	if err := s.db.SaveReceipt(receipt); err != nil {
		return nil, fmt.Errorf("saving receipt: %w", err)
	}

	if receipt.TripID != "" {
		if err := s.refreshTrip(receipt.TripID); err != nil {
			return nil, err
		}
	}

	return receipt, nil
}

func (s *Service) applyCorrection(r *Receipt, c Correction) error {
	if c.Merchant != nil {
		r.Merchant = strings.TrimSpace(*c.Merchant)
	}
	if c.Date != nil {
		if *c.Date == "" {
			r.Date = nil
		} else {
			date, err := time.ParseInLocation(time.DateOnly, *c.Date, s.location)
			if err != nil {
				return fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidInput, *c.Date)
			}
			r.Date = &date
		}
	}
	if c.Amount != nil {
		if c.Amount.IsNegative() {
			return fmt.Errorf("%w: amount %s is negative", ErrInvalidInput, c.Amount)
		}
		amount := *c.Amount
		r.Amount = &amount
	}
	if c.Currency != nil {
		code, ok := parser.NormalizeCurrency(*c.Currency)
		if !ok {
			return fmt.Errorf("%w: unsupported currency %q", ErrInvalidInput, *c.Currency)
		}
		r.Currency = code
	}
	if c.Category != nil {
		cat, err := category.ParseCategory(string(*c.Category))
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		// a category the user picked is certain
		r.Category = cat
		r.Confidence = 1
		r.MatchedKeyword = ""
	}
	return nil
}

// GetReceipt retrieves a receipt by ID
func (s *Service) GetReceipt(id string) (*Receipt, error) {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, fmt.Errorf("getting receipt: %w", err)
	}
	return receipt, nil
}

// ListReceipts returns all receipts
func (s *Service) ListReceipts() ([]*Receipt, error) {
	receipts, err := s.db.ListReceipts()
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}
	return receipts, nil
}

// DeleteReceipt removes a receipt, its file and its place in any trip.
func (s *Service) DeleteReceipt(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return fmt.Errorf("getting receipt for deletion: %w", err)
	}

	if receipt.Filename != "" {
		s.removeFile(receipt.Filename)
	}

	if err := s.db.DeleteReceipt(id); err != nil {
		return fmt.Errorf("deleting receipt from database: %w", err)
	}

	if receipt.TripID != "" {
		if err := s.refreshTrip(receipt.TripID); err != nil {
			return err
		}
	}
	return nil
}

// GetReceiptFile retrieves the uploaded file for a receipt
func (s *Service) GetReceiptFile(id string) ([]byte, string, error) {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting receipt: %w", err)
	}
	if receipt.Filename == "" {
		return nil, "", fmt.Errorf("receipt %s has no file: %w", id, ErrNotFound)
	}

	data, err := s.storage.Get(receipt.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("getting receipt file: %w", err)
	}

	return data, receipt.ContentType, nil
}

// CreateTrip groups receipts under a named trip.
func (s *Service) CreateTrip(name string, receiptIDs []string) (*Trip, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: trip name is required", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(receiptIDs))
	receipts := make([]*Receipt, 0, len(receiptIDs))
	for _, receiptID := range receiptIDs {
		if seen[receiptID] {
			return nil, fmt.Errorf("%w: receipt %s listed twice", ErrInvalidInput, receiptID)
		}
		seen[receiptID] = true

		receipt, err := s.db.GetReceipt(receiptID)
		if err != nil {
			return nil, fmt.Errorf("getting receipt %s: %w", receiptID, err)
		}
		if receipt.TripID != "" {
			return nil, fmt.Errorf("receipt %s: %w", receiptID, ErrAlreadyAssigned)
		}
		receipts = append(receipts, receipt)
	}

	now := s.timeSource.Now()
	trip := &Trip{
		ID:         s.idGenerator.Generate(),
		Name:       name,
		ReceiptIDs: append([]string{}, receiptIDs...),
		Totals:     tripTotals(receipts),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	assigned := make([]*Receipt, 0, len(receipts))
	for _, receipt := range receipts {
		updated := *receipt
		updated.TripID = trip.ID
		updated.UpdatedAt = now
		assigned = append(assigned, &updated)
	}

	if err := s.db.AssignTrip(trip, assigned); err != nil {
		return nil, fmt.Errorf("saving trip: %w", err)
	}

	return trip, nil
}

// refreshTrip drops deleted receipts from a trip and recomputes its totals.
// Callers hold s.mu.
func (s *Service) refreshTrip(id string) error {
	trip, err := s.db.GetTrip(id)
	if err != nil {
		return fmt.Errorf("getting trip %s: %w", id, err)
	}

	ids := make([]string, 0, len(trip.ReceiptIDs))
	receipts := make([]*Receipt, 0, len(trip.ReceiptIDs))
	for _, receiptID := range trip.ReceiptIDs {
		receipt, err := s.db.GetReceipt(receiptID)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("getting receipt %s: %w", receiptID, err)
		}
		ids = append(ids, receiptID)
		receipts = append(receipts, receipt)
	}

	trip.ReceiptIDs = ids
	trip.Totals = tripTotals(receipts)
	trip.UpdatedAt = s.timeSource.Now()
	if err := s.db.SaveTrip(trip); err != nil {
		return fmt.Errorf("saving trip %s: %w", id, err)
	}
	return nil
}

// GetTrip retrieves a trip by ID
func (s *Service) GetTrip(id string) (*Trip, error) {
	trip, err := s.db.GetTrip(id)
	if err != nil {
		return nil, fmt.Errorf("getting trip: %w", err)
	}
	return trip, nil
}

// GetTripWithReceipts retrieves a trip with its receipts
func (s *Service) GetTripWithReceipts(id string) (*Trip, []*Receipt, error) {
	trip, err := s.db.GetTrip(id)
	if err != nil {
		return nil, nil, fmt.Errorf("getting trip: %w", err)
	}

	receipts := make([]*Receipt, 0, len(trip.ReceiptIDs))
	for _, receiptID := range trip.ReceiptIDs {
		receipt, err := s.db.GetReceipt(receiptID)
		if err != nil {
			return nil, nil, fmt.Errorf("getting receipt %s: %w", receiptID, err)
		}
		receipts = append(receipts, receipt)
	}

	return trip, receipts, nil
}

// ListTrips returns all trips
func (s *Service) ListTrips() ([]*Trip, error) {
	trips, err := s.db.ListTrips()
	if err != nil {
		return nil, fmt.Errorf("listing trips: %w", err)
	}
	return trips, nil
}
