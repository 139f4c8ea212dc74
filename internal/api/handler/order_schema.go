package handler

import "github.com/growthdesk/storefront/internal/core/domain"

type inputDataRequest struct {
	URL   string `json:"url"   validate:"omitempty,url"`
	Notes string `json:"notes" validate:"max=4000"`
}

type createOrderRequest struct {
	// UserID defaults to the caller; only admins may order for someone else.
	UserID    string           `json:"user_id"`
	PackageID string           `json:"package_id" validate:"required"`
	InputData inputDataRequest `json:"input_data"`
}

type updateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending inProgress complete canceled"`
}

type orderLinks struct {
	Self string `json:"self"`
}

type orderResponse struct {
	domain.Order
	Links orderLinks `json:"_links"`
}

type orderDetailResponse struct {
	domain.OrderDetail
	Links orderLinks `json:"_links"`
}

type orderListResponse struct {
	Orders []orderDetailResponse `json:"orders"`
}

type orderSummaryListResponse struct {
	Orders []orderResponse `json:"orders"`
}

func orderSelf(id string) orderLinks {
	return orderLinks{Self: "/v1/orders/" + id}
}

func toOrderResponse(o domain.Order) orderResponse {
	return orderResponse{Order: o, Links: orderSelf(o.ID)}
}

func toOrderDetailResponse(d domain.OrderDetail) orderDetailResponse {
	return orderDetailResponse{OrderDetail: d, Links: orderSelf(d.ID)}
}

func toOrderListResponse(details []domain.OrderDetail) orderListResponse {
	out := make([]orderDetailResponse, 0, len(details))
	for _, d := range details {
		out = append(out, toOrderDetailResponse(d))
	}
	return orderListResponse{Orders: out}
}
