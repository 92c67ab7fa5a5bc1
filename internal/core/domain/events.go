package domain

// Event is a notification emitted after a successful lifecycle operation.
type Event interface {
	Kind() string
}

const (
	EventKindUnitCreated     = "unit_created"
	EventKindUnitBred        = "unit_bred"
	EventKindUnitTransferred = "unit_transferred"
	EventKindUnitPriceSet    = "unit_price_set"
	EventKindUnitSold        = "unit_sold"
)

type UnitCreated struct {
	Unit  DNA    `json:"unit"`
	Owner string `json:"owner"`
}

func (e UnitCreated) Kind() string { return EventKindUnitCreated }

type UnitBred struct {
	Unit    DNA    `json:"unit"`
	Owner   string `json:"owner"`
	ParentA DNA    `json:"parent_a"`
	ParentB DNA    `json:"parent_b"`
}

func (e UnitBred) Kind() string { return EventKindUnitBred }

type UnitTransferred struct {
	From string `json:"from"`
	To   string `json:"to"`
	Unit DNA    `json:"unit"`
}

func (e UnitTransferred) Kind() string { return EventKindUnitTransferred }

type UnitPriceSet struct {
	Unit  DNA    `json:"unit"`
	Owner string `json:"owner"`
	Price uint64 `json:"price"`
}

func (e UnitPriceSet) Kind() string { return EventKindUnitPriceSet }

type UnitSold struct {
	Unit   DNA    `json:"unit"`
	Seller string `json:"seller"`
	Buyer  string `json:"buyer"`
	Price  uint64 `json:"price"`
}

func (e UnitSold) Kind() string { return EventKindUnitSold }
