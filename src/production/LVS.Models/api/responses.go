package api_models

import lvsmodels "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Models"

// BulkItemError reports why one element of a bulk submission failed,
// keyed by its index in the original request array.
type BulkItemError struct {
	Index  int               `json:"index"`
	Errors map[string]string `json:"errors"`
}

// BulkResult summarizes a bulk reading submission. A failed element
// never aborts the batch; every failure is enumerated with its original
// index.
type BulkResult struct {
	Created  int                        `json:"created"`
	Failed   int                        `json:"failed"`
	Readings []*lvsmodels.SensorReading `json:"readings"`
	Errors   []BulkItemError            `json:"errors"`
}
