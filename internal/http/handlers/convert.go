package handlers

import (
	"dispatch-console/internal/domain"
	"dispatch-console/internal/service/dispatch"
)

func pointToDTO(p *domain.GeoPoint) *geoPointDTO {
	if p == nil {
		return nil
	}
	return &geoPointDTO{Lat: p.Lat, Lng: p.Lng}
}

func pointToModel(p *geoPointDTO) *domain.GeoPoint {
	if p == nil {
		return nil
	}
	return &domain.GeoPoint{Lat: p.Lat, Lng: p.Lng}
}

func (r createOrderRequest) toInput() dispatch.CreateOrderInput {
	in := dispatch.CreateOrderInput{
		Customer: domain.Customer{
			Name:    r.Customer.Name,
			Phone:   r.Customer.Phone,
			Address: r.Customer.Address,
			Point:   pointToModel(r.Customer.Point),
		},
		PrepTimeMinutes: r.PrepTimeMinutes,
	}
	for _, it := range r.Items {
		in.Items = append(in.Items, domain.OrderItem{
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	return in
}

func (r createPartnerRequest) toModel() *domain.Partner {
	return &domain.Partner{
		Name:         r.Name,
		Phone:        r.Phone,
		Vehicle:      r.Vehicle,
		Availability: r.Availability,
		Location:     pointToModel(r.Location),
	}
}

func (r updatePartnerRequest) toModel(id string) domain.PartialPartnerUpdate {
	return domain.PartialPartnerUpdate{
		ID:      id,
		Name:    r.Name,
		Phone:   r.Phone,
		Vehicle: r.Vehicle,
	}
}

func orderToResponse(o domain.Order) orderDTO {
	dto := orderDTO{
		ID:     o.ID,
		Number: o.Number,
		Customer: customerDTO{
			Name:    o.Customer.Name,
			Phone:   o.Customer.Phone,
			Address: o.Customer.Address,
			Point:   pointToDTO(o.Customer.Point),
		},
		PrepTimeMinutes:   o.PrepTimeMinutes,
		Status:            o.Status,
		AssignedPartnerID: o.AssignedPartnerID,
		AssignedAt:        o.AssignedAt,
		CancelReason:      o.CancelReason,
		Total:             o.TotalAmount(),
		CreatedAt:         o.CreatedAt,
	}
	for _, it := range o.Items {
		dto.Items = append(dto.Items, orderItemDTO{
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	return dto
}

func ordersToResponse(list []domain.Order) []orderDTO {
	out := make([]orderDTO, 0, len(list))
	for _, o := range list {
		out = append(out, orderToResponse(o))
	}
	return out
}

func partnerToResponse(p domain.Partner) partnerDTO {
	return partnerDTO{
		ID:              p.ID,
		Name:            p.Name,
		Phone:           p.Phone,
		Vehicle:         p.Vehicle,
		Availability:    p.Availability,
		CurrentOrderID:  p.CurrentOrderID,
		Rating:          p.Rating,
		CompletedCount:  p.CompletedCount,
		TodayDeliveries: p.TodayDeliveries,
		Earnings:        p.Earnings,
		Location:        pointToDTO(p.Location),
	}
}

func partnersToResponse(list []domain.Partner) []partnerDTO {
	out := make([]partnerDTO, 0, len(list))
	for _, p := range list {
		out = append(out, partnerToResponse(p))
	}
	return out
}

func assignResultToResponse(res domain.AssignResult) assignResultDTO {
	return assignResultDTO{
		OrderID:     res.OrderID,
		OrderNumber: res.OrderNumber,
		PartnerID:   res.PartnerID,
		Mode:        res.Mode,
		AssignedAt:  res.AssignedAt,
	}
}
