package domain

// ResolutionKind tags the outcome of resolving a consumption item to a lot
type ResolutionKind int

const (
	// ResolutionFound means the item targets Lot
	ResolutionFound ResolutionKind = iota
	// ResolutionNotFound means an explicit lot id matched nothing
	ResolutionNotFound
	// ResolutionSkipped means the item has no usable stock linkage
	ResolutionSkipped
)

func (k ResolutionKind) String() string {
	switch k {
	case ResolutionFound:
		return "found"
	case ResolutionNotFound:
		return "not_found"
	default:
		return "skipped"
	}
}

// Resolution is the result of resolving one consumption item.
type Resolution struct {
	Kind ResolutionKind
	Lot  *InventoryLot
	// LotID is the requested id when Kind is ResolutionNotFound
	LotID string
}

// Found builds a ResolutionFound
func Found(lot *InventoryLot) Resolution {
	return Resolution{Kind: ResolutionFound, Lot: lot, LotID: lot.ID}
}

// NotFound builds a ResolutionNotFound for lotID
func NotFound(lotID string) Resolution {
	return Resolution{Kind: ResolutionNotFound, LotID: lotID}
}

// Skipped builds a ResolutionSkipped
func Skipped() Resolution {
	return Resolution{Kind: ResolutionSkipped}
}

// Err returns the error carried by a NotFound resolution, nil otherwise.
func (r Resolution) Err() error {
	if r.Kind == ResolutionNotFound {
		return &LotNotFoundError{LotID: r.LotID}
	}
	return nil
}
