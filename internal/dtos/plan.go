package dtos

type PlanEntry struct {
	Type      string            `json:"type"`
	Reference string            `json:"reference"`
	ReceiptID string            `json:"receipt_id,omitempty"`
	Items     int               `json:"items"`
	Amount    string            `json:"amount"`
	Customer  map[string]string `json:"customer,omitempty"`
}

type PlanResponse struct {
	Entries  []PlanEntry `json:"entries"`
	Decision string      `json:"decision"`
}

type DecisionResponse struct {
	Decision string `json:"decision"`
}
