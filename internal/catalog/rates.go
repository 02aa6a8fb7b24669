package catalog

// VAT is the NTAK VAT category (afaKategoria).
type VAT string

const (
	VAT5      VAT = "A_5"
	VAT18     VAT = "B_18"
	VAT27     VAT = "C_27"
	VATExempt VAT = "D_AJT"
	VAT0      VAT = "E_0"
)

var vats = table[VAT]{
	{VAT5, "5%"},
	{VAT18, "18%"},
	{VAT27, "27%"},
	{VATExempt, "Ajt"},
	{VAT0, "0%"},
}

// VATs lists every VAT category in wire order.
func VATs() []VAT { return vats.codes() }

// Valid reports whether v is a known VAT category.
func (v VAT) Valid() bool { return vats.has(v) }

// Label returns the rate as printed on receipts.
func (v VAT) Label() string { return vats.label(v) }

// AmountUnit is the unit of the displayed amount (mennyisegiEgyseg).
type AmountUnit string

const (
	UnitPiece    AmountUnit = "DARAB"
	UnitLiter    AmountUnit = "LITER"
	UnitKilogram AmountUnit = "KILOGRAMM"
	UnitUnit     AmountUnit = "EGYSEG"
)

var amountUnits = table[AmountUnit]{
	{UnitPiece, "darab"},
	{UnitLiter, "liter"},
	{UnitKilogram, "kilogramm"},
	{UnitUnit, "egyseg"},
}

// AmountUnits lists every amount unit.
func AmountUnits() []AmountUnit { return amountUnits.codes() }

// Valid reports whether u is a known amount unit.
func (u AmountUnit) Valid() bool { return amountUnits.has(u) }

// Label returns the Hungarian display name.
func (u AmountUnit) Label() string { return amountUnits.label(u) }
