package domain

import (
	"hash/fnv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// InventoryStatus is the stock indicator displayed by the front.
type InventoryStatus string

const (
	InStock    InventoryStatus = "INSTOCK"
	LowStock   InventoryStatus = "LOWSTOCK"
	OutOfStock InventoryStatus = "OUTOFSTOCK"
)

// ParseInventoryStatus validates a client-provided status string.
func ParseInventoryStatus(value string) (InventoryStatus, error) {
	switch InventoryStatus(strings.ToUpper(value)) {
	case InStock:
		return InStock, nil
	case LowStock:
		return LowStock, nil
	case OutOfStock:
		return OutOfStock, nil
	default:
		return "", NewError(CodeProductStatusInvalid, "invalid inventory status: "+value)
	}
}

// Product is a catalog entry. Code is the unique SKU; Version backs
// optimistic locking on updates.
type Product struct {
	ID                int64           `json:"id"`
	Code              string          `json:"code"`
	Name              string          `json:"name"`
	Description       string          `json:"description,omitempty"`
	Image             string          `json:"image,omitempty"`
	Category          string          `json:"category,omitempty"`
	Price             float64         `json:"price"`
	Quantity          int             `json:"quantity"`
	InternalReference string          `json:"internalReference,omitempty"`
	ShellID           int64           `json:"shellId,omitempty"`
	InventoryStatus   InventoryStatus `json:"inventoryStatus"`
	Rating            float64         `json:"rating"`
	Version           int64           `json:"version"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// NormalizeForCreate fills defaults before the first insert. This replaces
// the original entity lifecycle hooks with an explicit step the product
// use case invokes.
func (p *Product) NormalizeForCreate() {
	if p.InventoryStatus == "" {
		if p.Quantity > 0 {
			p.InventoryStatus = InStock
		} else {
			p.InventoryStatus = OutOfStock
		}
	}
	p.ensureReferences()
}

// NormalizeForUpdate keeps the inventory status consistent with the
// quantity before an update is persisted.
func (p *Product) NormalizeForUpdate() {
	switch {
	case p.Quantity == 0:
		p.InventoryStatus = OutOfStock
	case p.Quantity < 10:
		p.InventoryStatus = LowStock
	default:
		p.InventoryStatus = InStock
	}
	p.ensureReferences()
}

func (p *Product) ensureReferences() {
	if p.ShellID == 0 && p.Code != "" {
		p.ShellID = ShellIDFromCode(p.Code)
	}
	if p.InternalReference == "" {
		p.InternalReference = NewInternalReference()
	}
}

// NewProductCode generates a PRD-XXXXXXXX SKU.
func NewProductCode() string {
	return "PRD-" + strings.ToUpper(uuid.NewString()[:8])
}

// ShellIDFromCode derives a stable shelf slot (0..999) from the SKU.
func ShellIDFromCode(code string) int64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(code))
	return int64(h.Sum32() % 1000)
}

// NewInternalReference generates an INT-REF-XXXXXXXX identifier.
func NewInternalReference() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "INT-REF-" + strings.ToUpper(raw[:8])
}
