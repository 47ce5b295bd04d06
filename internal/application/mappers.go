package application

import "github.com/kitchenops/inventory-ledger/internal/domain"

// ToConsumptionItemDTOs converts consumption items for responses
func ToConsumptionItemDTOs(items []domain.ConsumptionItem) []ConsumptionItemDTO {
	out := make([]ConsumptionItemDTO, 0, len(items))
	for _, item := range items {
		out = append(out, toConsumptionItemDTO(item))
	}
	return out
}

func toConsumptionItemDTO(item domain.ConsumptionItem) ConsumptionItemDTO {
	return ConsumptionItemDTO{
		LotID:       item.LotID,
		LotNumber:   item.LotNumber,
		ProductName: item.ProductName,
		Quantity:    item.Quantity,
		Unit:        string(item.Unit),
	}
}

// ToRecipeBatchDTO converts a domain RecipeBatch to RecipeBatchDTO
func ToRecipeBatchDTO(b *domain.RecipeBatch) *RecipeBatchDTO {
	if b == nil {
		return nil
	}
	dto := &RecipeBatchDTO{
		ID:           b.ID,
		RestaurantID: b.RestaurantID,
		RecipeName:   b.RecipeName,
		PreparedAt:   b.PreparedAt,
		PreparedBy:   b.PreparedBy,
		Ingredients:  ToConsumptionItemDTOs(b.Ingredients),
		Notes:        b.Notes,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
	if b.Yield != nil {
		dto.Yield = &YieldDTO{Qty: b.Yield.Qty, Unit: string(b.Yield.Unit)}
	}
	return dto
}

// ToRecallDTO converts a domain Recall to RecallDTO
func ToRecallDTO(r *domain.Recall) *RecallDTO {
	if r == nil {
		return nil
	}
	dto := &RecallDTO{
		ID:           r.ID,
		RestaurantID: r.RestaurantID,
		Source:       string(r.Source),
		Reason:       r.Reason,
		Item:         toConsumptionItemDTO(r.Item),
		IssuedAt:     r.IssuedAt,
		IssuedBy:     r.IssuedBy,
		Notes:        r.Notes,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.Attachment != nil {
		dto.Attachment = &AttachmentDTO{URL: r.Attachment.URL, FileID: r.Attachment.FileID}
	}
	return dto
}

func toStorageDTO(s domain.Storage) StorageDTO {
	return StorageDTO{Location: s.Location, TemperatureC: s.TemperatureC}
}

// ToLotDTO converts a domain InventoryLot to LotDTO
func ToLotDTO(l *domain.InventoryLot) *LotDTO {
	if l == nil {
		return nil
	}
	return &LotDTO{
		ID:              l.ID,
		RestaurantID:    l.RestaurantID,
		ProductName:     l.ProductName,
		Supplier:        l.Supplier,
		LotNumber:       l.LotNumber,
		Unit:            string(l.Unit),
		QtyReceived:     l.QtyReceived,
		QtyRemaining:    domain.Round(l.QtyRemaining, l.Unit),
		Status:          string(l.Status),
		ExpiryDate:      l.ExpiryDate,
		UseByDate:       l.UseByDate,
		Storage:         toStorageDTO(l.Storage),
		ReceptionID:     l.ReceptionID,
		ReceptionLineID: l.ReceptionLineID,
		CreatedBy:       l.CreatedBy,
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
	}
}

// ToLotDTOs converts a slice of lots
func ToLotDTOs(lots []*domain.InventoryLot) []LotDTO {
	out := make([]LotDTO, 0, len(lots))
	for _, l := range lots {
		out = append(out, *ToLotDTO(l))
	}
	return out
}

// ToDeliveryDTO converts a domain Delivery to DeliveryDTO
func ToDeliveryDTO(d *domain.Delivery) *DeliveryDTO {
	if d == nil {
		return nil
	}
	lines := make([]DeliveryLineDTO, 0, len(d.Lines))
	for _, l := range d.Lines {
		lines = append(lines, DeliveryLineDTO{
			ID:           l.ID,
			ProductName:  l.ProductName,
			LotNumber:    l.LotNumber,
			Unit:         string(l.Unit),
			Qty:          l.Qty,
			QtyRemaining: l.QtyRemaining,
			ExpiryDate:   l.ExpiryDate,
			UseByDate:    l.UseByDate,
			Storage:      toStorageDTO(l.Storage),
			Untracked:    l.Untracked,
			LotID:        l.LotID,
		})
	}
	return &DeliveryDTO{
		ID:           d.ID,
		RestaurantID: d.RestaurantID,
		Supplier:     d.Supplier,
		Reference:    d.Reference,
		ReceivedAt:   d.ReceivedAt,
		ReceivedBy:   d.ReceivedBy,
		Lines:        lines,
		Notes:        d.Notes,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// mergeSnapshots returns first followed by the lots of second not already present;
// entries in second replace same-lot entries of first, being more recent.
func mergeSnapshots(first, second []domain.LotSnapshot) []domain.LotSnapshot {
	latest := make(map[string]domain.LotSnapshot, len(second))
	for _, s := range second {
		latest[s.LotID] = s
	}

	out := make([]domain.LotSnapshot, 0, len(first)+len(second))
	seen := make(map[string]struct{}, len(first)+len(second))
	for _, s := range first {
		if newer, ok := latest[s.LotID]; ok {
			s = newer
		}
		out = append(out, s)
		seen[s.LotID] = struct{}{}
	}
	for _, s := range second {
		if _, ok := seen[s.LotID]; !ok {
			out = append(out, s)
			seen[s.LotID] = struct{}{}
		}
	}
	return out
}
