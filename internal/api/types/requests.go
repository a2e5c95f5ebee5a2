package types

// ReportRequest asks for an export to be rendered in the background. The
// filters mirror the query parameters of the synchronous export.
type ReportRequest struct {
	Format    string `json:"format" validate:"omitempty,oneof=pdf csv"`
	Query     string `json:"q"`
	Status    string `json:"status" validate:"omitempty,oneof=All Pass Fail Pending"`
	FeatureID string `json:"feature_id" validate:"omitempty,uuid"`
}
