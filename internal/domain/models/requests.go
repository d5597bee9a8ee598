package models

// FactsRequest bounds the match facts listing.
type FactsRequest struct {
	Limit int `query:"limit" default:"100" validate:"gte=0,lte=1000"`
}

// RunRequest triggers an asynchronous pipeline run over the ops API.
type RunRequest struct {
	Stage       string `json:"stage" query:"stage" default:"all" validate:"oneof=all ingest transform views"`
	FullRebuild bool   `json:"full_rebuild" query:"full_rebuild"`
}
