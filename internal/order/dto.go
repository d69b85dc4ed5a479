package order

// UpdateStatusRequest payload for changing an order status.
// swagger:model UpdateStatusRequest
type UpdateStatusRequest struct {
	Status string `json:"status" example:"canceled"`
}

// CheckoutResponse is the placed order with its lines.
// swagger:model CheckoutResponse
type CheckoutResponse struct {
	Order Order  `json:"order"`
	Items []Item `json:"items"`
}
