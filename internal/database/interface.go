package database

// SymbolRecord is one indexed declaration. Lines and characters are
// zero-based, characters counted in UTF-16 code units.
type SymbolRecord struct {
	FqName    string
	ShortName string
	Kind      string
	URI       string
	StartLine uint32
	StartChar uint32
	EndLine   uint32
	EndChar   uint32
}

type Database interface {
	// Transaction handling
	WithTx(fn func(tx Transaction) error) error

	// Metadata
	GetMetadata(key string) (string, error)
	SetMetadata(key string, value string) error

	// Symbol index
	UpsertSymbols(uri string, symbols []SymbolRecord) error
	DeleteSymbols(uri string) error
	SymbolsIn(uri string) ([]SymbolRecord, error)
	FindSymbols(query string, limit int) ([]SymbolRecord, error)

	// Maintenance
	Clear(full bool) error
	Close() error
}

type Transaction interface {
	UpsertSymbols(uri string, symbols []SymbolRecord) error
	DeleteSymbols(uri string) error
}
