package api

import (
	"epic-nft-gallery/internal/domain"
)

// Envelope codes.
const (
	CodeOK    = 0
	CodeError = -1
)

// BaseResp is embedded in every JSON response.
type BaseResp struct {
	Code int    `json:"code" example:"0"`
	Msg  string `json:"msg" example:"ok"`
}

// Resp is the generic {code, msg, data} envelope.
type Resp struct {
	BaseResp
	Data any `json:"data,omitempty"`
}

// StatusData is returned by GET /status.
type StatusData struct {
	Status         string `json:"status"`
	Uptime         string `json:"uptime"`
	StartedAt      int64  `json:"startedAt"`
	Contract       string `json:"contract"`
	Account        string `json:"account"`
	Supply         uint64 `json:"supply"`
	SupplyKnown    bool   `json:"supplyKnown"`
	Generation     uint64 `json:"generation"`
	LastPassAt     int64  `json:"lastPassAt"`
	MintInProgress bool   `json:"mintInProgress"`
}

// GalleryData is returned by GET /gallery.
type GalleryData struct {
	Generation  uint64                `json:"generation"`
	Contract    string                `json:"contract"`
	Account     string                `json:"account"`
	Supply      uint64                `json:"supply"`
	Trigger     domain.Trigger        `json:"trigger"`
	CompletedAt int64                 `json:"completedAt"`
	All         []domain.TokenRecord  `json:"all"`
	Mine        []domain.TokenRecord  `json:"mine"`
	Skipped     []domain.SkippedToken `json:"skipped"`
}

// AccountReq is the body of PUT /account and POST /mint.
type AccountReq struct {
	Account string `json:"account"`
}

// AccountData is returned by PUT /account.
type AccountData struct {
	Account string `json:"account"`
}
