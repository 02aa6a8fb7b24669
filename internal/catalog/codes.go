package catalog

// PaymentMethod is the NTAK payment method (fizetesiMod).
type PaymentMethod string

const (
	PaymentCashHUF    PaymentMethod = "KESZPENZHUF"
	PaymentCashEUR    PaymentMethod = "KESZPENZEUR"
	PaymentSZEPCard   PaymentMethod = "SZEPKARTYA"
	PaymentBankCard   PaymentMethod = "BANKKARTYA"
	PaymentTransfer   PaymentMethod = "ATUTALAS"
	PaymentOther      PaymentMethod = "EGYEB"
	PaymentVoucher    PaymentMethod = "VOUCHER"
	PaymentRoomCredit PaymentMethod = "SZOBAHITEL"
	PaymentRounding   PaymentMethod = "KEREKITES"
)

var paymentMethods = table[PaymentMethod]{
	{PaymentCashHUF, "Készpénz huf"},
	{PaymentCashEUR, "Készpénz eur"},
	{PaymentSZEPCard, "Szépkártya"},
	{PaymentBankCard, "Bankkártya"},
	{PaymentTransfer, "Átutalás"},
	{PaymentOther, "Egyéb"},
	{PaymentVoucher, "Voucher"},
	{PaymentRoomCredit, "Szobahitel"},
	{PaymentRounding, "Kerekítés"},
}

// PaymentMethods lists every payment method.
func PaymentMethods() []PaymentMethod { return paymentMethods.codes() }

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool { return paymentMethods.has(m) }

// Label returns the Hungarian display name.
func (m PaymentMethod) Label() string { return paymentMethods.label(m) }

// IsCash reports whether m is tendered in cash and therefore rounded to 5 HUF.
func (m PaymentMethod) IsCash() bool {
	return m == PaymentCashHUF || m == PaymentCashEUR
}

// OrderType is the order classification (rendelesBesorolasa).
type OrderType string

const (
	OrderNormal       OrderType = "NORMAL"
	OrderCancellation OrderType = "SZTORNO"
	OrderCorrection   OrderType = "HELYESBITO"
)

var orderTypes = table[OrderType]{
	{OrderNormal, "Normál"},
	{OrderCancellation, "Storno"},
	{OrderCorrection, "Helyesbítő"},
}

// OrderTypes lists every order classification.
func OrderTypes() []OrderType { return orderTypes.codes() }

// Valid reports whether t is a known order classification.
func (t OrderType) Valid() bool { return orderTypes.has(t) }

// Label returns the Hungarian display name.
func (t OrderType) Label() string { return orderTypes.label(t) }

// DayType classifies a business day in the closing message.
type DayType string

const (
	DayClosed       DayType = "ADOTT_NAPON_ZARVA"
	DayWithoutSales DayType = "FORGALOM_NELKULI_NAP"
	DayNormal       DayType = "NORMAL_NAP"
)

var dayTypes = table[DayType]{
	{DayClosed, "Adott napon zárva"},
	{DayWithoutSales, "Forgalom nélküli nap"},
	{DayNormal, "Normál nap"},
}

// DayTypes lists every day classification.
func DayTypes() []DayType { return dayTypes.codes() }

// Valid reports whether d is a known day classification.
func (d DayType) Valid() bool { return dayTypes.has(d) }

// Label returns the Hungarian display name.
func (d DayType) Label() string { return dayTypes.label(d) }

// VerifyStatus is the processing state returned by the verify endpoint.
type VerifyStatus string

const (
	VerifyAccepted           VerifyStatus = "BEFOGADVA"
	VerifyFailed             VerifyStatus = "TELJESEN_HIBAS"
	VerifyPartiallySucceeded VerifyStatus = "RESZBEN_SIKERES"
	VerifySucceeded          VerifyStatus = "TELJESEN_SIKERES"
	VerifyResend             VerifyStatus = "UJRA_KULDENDO"
)

var verifyStatuses = table[VerifyStatus]{
	{VerifyAccepted, "Befogadva"},
	{VerifyFailed, "Teljesen hibás"},
	{VerifyPartiallySucceeded, "Részben sikeres"},
	{VerifySucceeded, "Teljesen sikeres"},
	{VerifyResend, "Újra küldendő"},
}

// VerifyStatuses lists every verify status.
func VerifyStatuses() []VerifyStatus { return verifyStatuses.codes() }

// Valid reports whether s is a known verify status.
func (s VerifyStatus) Valid() bool { return verifyStatuses.has(s) }

// Pending reports whether the message was accepted but not processed yet.
func (s VerifyStatus) Pending() bool { return s == VerifyAccepted }

// NeedsResend reports whether the message has to be submitted again.
func (s VerifyStatus) NeedsResend() bool { return s == VerifyResend }
