package orderitem

// QueryOrderItemsModel represents filter parameters for querying order items.
type QueryOrderItemsModel struct {
	OrderIds   []string `json:"orderIds,omitempty"`
	ProductIds []string `json:"productIds,omitempty"`
}
