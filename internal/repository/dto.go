package repository

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"dispatch-console/internal/domain"
)

type itemDTO struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func marshalItems(items []domain.OrderItem) ([]byte, error) {
	dtos := make([]itemDTO, 0, len(items))
	for _, it := range items {
		dtos = append(dtos, itemDTO{Name: it.Name, Quantity: it.Quantity, UnitPrice: it.UnitPrice})
	}
	b, err := json.Marshal(dtos)
	if err != nil {
		return nil, fmt.Errorf("marshal items: %w", err)
	}
	return b, nil
}

func unmarshalItems(raw []byte) ([]domain.OrderItem, error) {
	var dtos []itemDTO
	if err := json.Unmarshal(raw, &dtos); err != nil {
		return nil, fmt.Errorf("unmarshal items: %w", err)
	}
	items := make([]domain.OrderItem, 0, len(dtos))
	for _, d := range dtos {
		items = append(items, domain.OrderItem{Name: d.Name, Quantity: d.Quantity, UnitPrice: d.UnitPrice})
	}
	return items, nil
}

type snapshotDTO struct {
	ID                string             `json:"id"`
	Number            string             `json:"number"`
	Items             []itemDTO          `json:"items"`
	TotalAmount       decimal.Decimal    `json:"total_amount"`
	Status            domain.OrderStatus `json:"status"`
	AssignedPartnerID *string            `json:"assigned_partner_id,omitempty"`
	CancelReason      string             `json:"cancel_reason,omitempty"`
}

func marshalSnapshot(o *domain.Order) ([]byte, error) {
	dto := snapshotDTO{
		ID:                o.ID,
		Number:            o.Number,
		TotalAmount:       o.TotalAmount(),
		Status:            o.Status,
		AssignedPartnerID: o.AssignedPartnerID,
		CancelReason:      o.CancelReason,
	}
	for _, it := range o.Items {
		dto.Items = append(dto.Items, itemDTO{Name: it.Name, Quantity: it.Quantity, UnitPrice: it.UnitPrice})
	}
	b, err := json.Marshal(dto)
	if err != nil {
		return nil, fmt.Errorf("marshal order snapshot: %w", err)
	}
	return b, nil
}
