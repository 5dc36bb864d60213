package model

// UnassignedTransactionPrefix is prefixed to a display id to synthesize a placeholder
// transaction id before the cloud assigns a real one.
const UnassignedTransactionPrefix = "unassigned#"

// Cart is a shopping cart, local (touchscreen) or remote (mobile order-ahead).
type Cart struct {
	ID             int
	DisplayID      int
	TransactionID  string
	Type           CartType
	OrderInfo      string
	Status         CartStatus
	CheckoutMethod CheckoutMethod
	LockedAt       int64 // unix seconds; monotonic deadline anchor for this cart's active timer
}

// CartItem is the quantity of a variant in a cart. Its Amount must always equal the sum of
// the cart's reservations for that variant (data model invariant #3).
type CartItem struct {
	CartID    int
	VariantID int
	Amount    int
}

// Reservation is a claim on (unit, location, quantity) of a variant, held by a cart.
type Reservation struct {
	ID        int
	CartID    int
	VariantID int
	UnitID    int
	Location  int
	Quantity  int
}

// OrderHistoryRecord is the durable record of a REMOTE cart that reached a terminal state.
type OrderHistoryRecord struct {
	ID               int
	TransactionID    string
	OrderInfo        string
	CompletionStatus ReservationCompletionStatus
	CreatedAt        int64
}

// OperationResult is the outcome of a cart-engine public operation.
type OperationResult int

const (
	// ResultOK is a successful operation.
	ResultOK OperationResult = iota
	// ResultNOK is a business-level denial, e.g. insufficient stock.
	ResultNOK
	// ResultPending means the request was accepted but requires asynchronous completion
	// (dispensing queued behind the hardware/orchestrator).
	ResultPending
	// ResultError is an internal or malformed-request failure.
	ResultError
)

func (r OperationResult) String() string {
	switch r {
	case ResultOK:
		return "OK"
	case ResultNOK:
		return "NOK"
	case ResultPending:
		return "PENDING"
	default:
		return "ERROR"
	}
}
