package riskapi

import (
	"bytes"
	"encoding/json"
	"sort"
	"time"

	"fraudshield/internal/core/phone"
)

// CourierStat is one courier's delivery history for a phone number
type CourierStat struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Logo         string  `json:"logo"`
	Total        int     `json:"total_parcel"`
	Success      int     `json:"success_parcel"`
	Cancel       int     `json:"cancelled_parcel"`
	SuccessRatio float64 `json:"success_ratio"`
}

// Report is a fraud report filed against a phone number
type Report struct {
	Courier    string `json:"courier"`
	Comment    string `json:"comment"`
	ReportedAt string `json:"reported_at"`
}

// RateLimit mirrors the quota headers the risk service returns
type RateLimit struct {
	Limit     int
	Remaining int
	Source    string
}

// Result is the aggregated delivery history for one phone number
type Result struct {
	Phone          phone.Number
	TotalParcels   int
	SuccessParcels int
	CancelParcels  int
	SuccessRatio   float64
	Couriers       []CourierStat
	Reports        []Report
	Rate           RateLimit
	CheckedAt      time.Time
	FromCache      bool
}

// wire shapes for the risk service response body

type checkRequest struct {
	Phone string `json:"phone"`
}

type checkResponse struct {
	Status  string    `json:"status"`
	Message string    `json:"message"`
	Data    checkData `json:"data"`
}

type checkData struct {
	Phone    string                     `json:"phone"`
	Couriers map[string]json.RawMessage `json:"courierData"`
	Reports  []Report                   `json:"reports"`
}

// summaryKey is the one courierData entry that is not a courier
const summaryKey = "summary"

type summaryStat struct {
	Total   int     `json:"total_parcel"`
	Success int     `json:"success_parcel"`
	Cancel  int     `json:"cancelled_parcel"`
	Ratio   float64 `json:"success_ratio"`
}

// aggregate folds the wire payload into a Result. The courierData
// object mixes the summary with one entry per courier; anything that is
// not a JSON object is skipped, and a missing summary leaves the totals
// at zero
func aggregate(num phone.Number, data checkData, rate RateLimit, at time.Time) Result {
	res := Result{
		Phone:     num,
		Reports:   append([]Report(nil), data.Reports...),
		Rate:      rate,
		CheckedAt: at,
	}
	for key, raw := range data.Couriers {
		if !isObject(raw) {
			continue
		}
		if key == summaryKey {
			var sum summaryStat
			if err := json.Unmarshal(raw, &sum); err == nil {
				res.TotalParcels = sum.Total
				res.SuccessParcels = sum.Success
				res.CancelParcels = sum.Cancel
				res.SuccessRatio = sum.Ratio
			}
			continue
		}
		var c CourierStat
		if err := json.Unmarshal(raw, &c); err != nil {
			continue
		}
		c.ID = key
		if c.Name == "" {
			c.Name = key
		}
		res.Couriers = append(res.Couriers, c)
	}
	// map order is random, keep the breakdown stable for callers
	sort.Slice(res.Couriers, func(i, j int) bool {
		return res.Couriers[i].ID < res.Couriers[j].ID
	})
	return res
}

func isObject(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) > 0 && t[0] == '{'
}
