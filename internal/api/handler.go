package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"epic-nft-gallery/internal/domain"
	"epic-nft-gallery/internal/gallery"
	"epic-nft-gallery/internal/mint"
	"epic-nft-gallery/internal/tokenuri"
)

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, &Resp{BaseResp: BaseResp{Code: CodeOK, Msg: "ok"}, Data: data})
}

func fail(c *gin.Context, status int, err error) {
	c.JSON(status, &Resp{BaseResp: BaseResp{Code: CodeError, Msg: err.Error()}})
}

func (s *Server) health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (s *Server) status(c *gin.Context) {
	snap := s.gallery.Snapshot()
	supply, known := s.gallery.Supply()

	data := &StatusData{
		Status:      "running",
		Uptime:      s.now().Sub(s.startedAt).Round(time.Second).String(),
		StartedAt:   s.startedAt.UnixMilli(),
		Account:     s.gallery.Account(),
		Supply:      supply,
		SupplyKnown: known,
	}
	if snap != nil {
		data.Contract = snap.Contract
		data.Generation = snap.Generation
		data.LastPassAt = snap.CompletedAt
	}
	if s.minter != nil {
		data.MintInProgress = s.minter.InProgress()
	}
	ok(c, data)
}

func (s *Server) getGallery(c *gin.Context) {
	snap := s.gallery.Snapshot()
	if snap == nil {
		fail(c, http.StatusServiceUnavailable, errors.New("gallery not loaded"))
		return
	}

	data := &GalleryData{
		Generation:  snap.Generation,
		Contract:    snap.Contract,
		Account:     snap.Account,
		Supply:      snap.Supply,
		Trigger:     snap.Trigger,
		CompletedAt: snap.CompletedAt,
		All:         nonNil(snap.View.All),
		Mine:        nonNil(snap.View.Mine),
		Skipped:     snap.Skipped,
	}
	if data.Skipped == nil {
		data.Skipped = []domain.SkippedToken{}
	}

	if account, set := c.GetQuery("account"); set {
		if account != "" && !common.IsHexAddress(account) {
			fail(c, http.StatusBadRequest, errors.New("invalid account address"))
			return
		}
		data.Account = account
		data.Mine = gallery.FilterOwned(data.All, account)
	}
	ok(c, data)
}

func (s *Server) lookupToken(c *gin.Context) (domain.TokenRecord, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, http.StatusBadRequest, errors.New("invalid token id"))
		return domain.TokenRecord{}, false
	}
	snap := s.gallery.Snapshot()
	if snap == nil {
		fail(c, http.StatusNotFound, errors.New("token not found"))
		return domain.TokenRecord{}, false
	}
	rec, found := snap.View.Find(id)
	if !found {
		fail(c, http.StatusNotFound, errors.New("token not found"))
		return domain.TokenRecord{}, false
	}
	return rec, true
}

func (s *Server) getToken(c *gin.Context) {
	rec, found := s.lookupToken(c)
	if !found {
		return
	}
	ok(c, rec)
}

func (s *Server) getTokenImage(c *gin.Context) {
	rec, found := s.lookupToken(c)
	if !found {
		return
	}

	contentType, data, err := tokenuri.DecodeImage(rec.Image)
	switch {
	case errors.Is(err, tokenuri.ErrExternalImage):
		target, err := tokenuri.ExternalImageURL(rec.Image)
		if err != nil {
			fail(c, http.StatusUnprocessableEntity, err)
			return
		}
		c.Redirect(http.StatusFound, target)
	case err != nil:
		fail(c, http.StatusUnprocessableEntity, err)
	default:
		// Token images are untrusted; SVG may carry script.
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Content-Security-Policy", "sandbox; default-src 'none'; style-src 'unsafe-inline'; img-src data:")
		c.Header("Cache-Control", "public, max-age=86400")
		c.Data(http.StatusOK, contentType, data)
	}
}

func (s *Server) getMintProgress(c *gin.Context) {
	progress, err := s.minter.Progress(c.Request.Context())
	if err != nil {
		fail(c, http.StatusBadGateway, err)
		return
	}
	ok(c, progress)
}

func (s *Server) postMint(c *gin.Context) {
	var req AccountReq
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, err)
			return
		}
	}
	account := req.Account
	if account == "" {
		account = s.gallery.Account()
	}
	if account != "" && !common.IsHexAddress(account) {
		fail(c, http.StatusBadRequest, errors.New("invalid account address"))
		return
	}

	result, err := s.minter.Mint(c.Request.Context(), account)
	if err != nil {
		fail(c, mintStatus(err), err)
		return
	}
	ok(c, result)
}

func mintStatus(err error) int {
	switch {
	case errors.Is(err, mint.ErrNoAccount):
		return http.StatusBadRequest
	case errors.Is(err, mint.ErrSoldOut), errors.Is(err, mint.ErrMintInProgress), errors.Is(err, mint.ErrReverted):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) putAccount(c *gin.Context) {
	var req AccountReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	if req.Account != "" && !common.IsHexAddress(req.Account) {
		fail(c, http.StatusBadRequest, errors.New("invalid account address"))
		return
	}
	s.gallery.SetAccount(req.Account)
	ok(c, &AccountData{Account: req.Account})
}

func (s *Server) postRefresh(c *gin.Context) {
	s.gallery.Refresh(domain.TriggerManual)
	c.JSON(http.StatusAccepted, &Resp{BaseResp: BaseResp{Code: CodeOK, Msg: "refresh scheduled"}})
}

func (s *Server) getNotifications(c *gin.Context) {
	var after uint64
	if v := c.Query("after"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			fail(c, http.StatusBadRequest, errors.New("invalid after id"))
			return
		}
		after = n
	}
	list := s.notifications.List(after)
	if list == nil {
		list = []domain.Notification{}
	}
	ok(c, list)
}

func nonNil(records []domain.TokenRecord) []domain.TokenRecord {
	if records == nil {
		return []domain.TokenRecord{}
	}
	return records
}
