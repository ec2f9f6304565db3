package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"epic-nft-gallery/internal/domain"
	"epic-nft-gallery/internal/mint"
	"epic-nft-gallery/internal/notify"
	"epic-nft-gallery/internal/tokenuri"
)

const (
	alice = "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B"
	bob   = "0x71C7656EC7ab88b098defB751B7401B5f6d8976F"
)

const svgImage = "data:image/svg+xml;base64,PHN2Zz48L3N2Zz4="

type fakeGallery struct {
	mu        sync.Mutex
	snap      *domain.Snapshot
	account   string
	supply    uint64
	known     bool
	refreshes []domain.Trigger
}

func (g *fakeGallery) Snapshot() *domain.Snapshot { return g.snap }

func (g *fakeGallery) Account() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.account
}

func (g *fakeGallery) SetAccount(account string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.account = account
}

func (g *fakeGallery) Supply() (uint64, bool) { return g.supply, g.known }

func (g *fakeGallery) Refresh(trigger domain.Trigger) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refreshes = append(g.refreshes, trigger)
}

type fakeMinter struct {
	progress domain.MintProgress
	err      error
	minted   []string
}

func (m *fakeMinter) Mint(ctx context.Context, account string) (*domain.MintResult, error) {
	if account == "" {
		return nil, mint.ErrNoAccount
	}
	if m.err != nil {
		return nil, m.err
	}
	m.minted = append(m.minted, account)
	return &domain.MintResult{Account: account, TxHash: "0xfeed"}, nil
}

func (m *fakeMinter) Progress(ctx context.Context) (domain.MintProgress, error) {
	if m.err != nil {
		return domain.MintProgress{}, m.err
	}
	return m.progress, nil
}

func (m *fakeMinter) InProgress() bool { return false }

func testSnapshot() *domain.Snapshot {
	all := []domain.TokenRecord{
		{TokenID: 0, Name: "Zero", Image: svgImage, Owner: alice},
		{TokenID: 1, Name: "One", Image: "https://example.com/1.png", Owner: bob},
		{TokenID: 2, Name: "Two", Image: "not-an-image", Owner: alice},
	}
	return &domain.Snapshot{
		Generation:  7,
		Contract:    "0x5FbDB2315678afecb367f032d93F642f64180aa3",
		Account:     alice,
		Supply:      4,
		View:        domain.GalleryView{All: all, Mine: []domain.TokenRecord{all[0], all[2]}},
		Skipped:     []domain.SkippedToken{{TokenID: 3, Reason: domain.SkipNotDataURI}},
		Trigger:     domain.TriggerPoll,
		CompletedAt: 1700000000000,
	}
}

type testEnv struct {
	gallery *fakeGallery
	minter  *fakeMinter
	hub     *notify.Hub
	handler http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		gallery: &fakeGallery{snap: testSnapshot(), account: alice, supply: 4, known: true},
		minter:  &fakeMinter{progress: domain.NewMintProgress(4, 50)},
		hub:     notify.NewHub(10),
	}
	start := time.Unix(1700000000, 0)
	s := NewServer(env.gallery, env.minter, env.hub, WithClock(func() time.Time { return start }))
	env.handler = s.Handler()
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) (BaseResp, T) {
	t.Helper()
	var resp struct {
		BaseResp
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp.BaseResp, resp.Data
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	base, data := decode[StatusData](t, rec)
	assert.Equal(t, CodeOK, base.Code)
	assert.Equal(t, "running", data.Status)
	assert.Equal(t, uint64(7), data.Generation)
	assert.Equal(t, uint64(4), data.Supply)
	assert.True(t, data.SupplyKnown)
	assert.Equal(t, alice, data.Account)
}

func TestMetrics(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "epic_nft_gallery_")
}

func TestGallery(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/gallery", "")
	require.Equal(t, http.StatusOK, rec.Code)

	_, data := decode[GalleryData](t, rec)
	assert.Len(t, data.All, 3)
	assert.Len(t, data.Mine, 2)
	assert.Equal(t, alice, data.Account)
	require.Len(t, data.Skipped, 1)
	assert.Equal(t, domain.SkipNotDataURI, data.Skipped[0].Reason)
}

func TestGallery_AccountOverride(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/gallery?account="+strings.ToLower(bob), "")
	require.Equal(t, http.StatusOK, rec.Code)
	_, data := decode[GalleryData](t, rec)
	require.Len(t, data.Mine, 1)
	assert.Equal(t, uint64(1), data.Mine[0].TokenID)

	rec = env.do(t, http.MethodGet, "/gallery?account=", "")
	require.Equal(t, http.StatusOK, rec.Code)
	_, data = decode[GalleryData](t, rec)
	assert.NotNil(t, data.Mine)
	assert.Empty(t, data.Mine)

	rec = env.do(t, http.MethodGet, "/gallery?account=nope", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	base, _ := decode[any](t, rec)
	assert.Equal(t, CodeError, base.Code)
}

func TestGallery_NotLoaded(t *testing.T) {
	env := newTestEnv(t)
	env.gallery.snap = nil
	rec := env.do(t, http.MethodGet, "/gallery", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/gallery/tokens/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	_, tok := decode[domain.TokenRecord](t, rec)
	assert.Equal(t, "One", tok.Name)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/gallery/tokens/9", "").Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/gallery/tokens/x", "").Code)
}

func TestTokenImage(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/gallery/tokens/0/image", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Equal(t, "<svg></svg>", rec.Body.String())

	rec = env.do(t, http.MethodGet, "/gallery/tokens/1/image", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://example.com/1.png", rec.Header().Get("Location"))

	rec = env.do(t, http.MethodGet, "/gallery/tokens/2/image", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestTokenImage_UntrustedContent(t *testing.T) {
	env := newTestEnv(t)
	all := []domain.TokenRecord{
		{TokenID: 0, Image: "data:text/html,<script>alert(document.domain)</script>"},
		{TokenID: 1, Image: "data:image/svg+xml,%3Csvg%20onload%3D%22alert(1)%22%2F%3E"},
		{TokenID: 2, Image: "javascript:alert(1)"},
		{TokenID: 3, Image: "ipfs://QmHash/3.svg"},
		{TokenID: 4, Image: "https://user:pw@example.com/4.png"},
	}
	env.gallery.snap = &domain.Snapshot{View: domain.GalleryView{All: all, Mine: []domain.TokenRecord{}}}

	rec := env.do(t, http.MethodGet, "/gallery/tokens/0/image", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.NotContains(t, rec.Header().Get("Content-Type"), "text/html")

	rec = env.do(t, http.MethodGet, "/gallery/tokens/1/image", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Security-Policy"), "sandbox"))

	rec = env.do(t, http.MethodGet, "/gallery/tokens/2/image", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, rec.Header().Get("Location"))

	rec = env.do(t, http.MethodGet, "/gallery/tokens/3/image", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, tokenuri.IPFSGateway+"QmHash/3.svg", rec.Header().Get("Location"))

	rec = env.do(t, http.MethodGet, "/gallery/tokens/4/image", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestTokenImage_MatchesEncoder(t *testing.T) {
	ct, data, err := tokenuri.DecodeImage(svgImage)
	require.NoError(t, err)
	assert.Equal(t, "image/svg+xml", ct)
	assert.Equal(t, "<svg></svg>", string(data))
}

func TestMintProgress(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/mint/progress", "")
	require.Equal(t, http.StatusOK, rec.Code)
	_, p := decode[domain.MintProgress](t, rec)
	assert.Equal(t, uint64(46), p.Remaining)
	assert.Equal(t, 8.0, p.PercentMinted)

	env.minter.err = errors.New("rpc down")
	rec = env.do(t, http.MethodGet, "/mint/progress", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestMint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/mint", `{"account":"`+bob+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	_, res := decode[domain.MintResult](t, rec)
	assert.Equal(t, bob, res.Account)
	assert.Equal(t, "0xfeed", res.TxHash)

	// Empty body falls back to the connected account.
	rec = env.do(t, http.MethodPost, "/mint", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{bob, alice}, env.minter.minted)
}

func TestMint_Errors(t *testing.T) {
	env := newTestEnv(t)
	env.gallery.account = ""

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/mint", "").Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/mint", `{"account":"bad"}`).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/mint", `{`).Code)

	env.minter.err = mint.ErrSoldOut
	assert.Equal(t, http.StatusConflict, env.do(t, http.MethodPost, "/mint", `{"account":"`+alice+`"}`).Code)

	env.minter.err = fmt.Errorf("%w: 0xfeed", mint.ErrReverted)
	assert.Equal(t, http.StatusConflict, env.do(t, http.MethodPost, "/mint", `{"account":"`+alice+`"}`).Code)

	env.minter.err = fmt.Errorf("wait for 0xfeed: %w", context.DeadlineExceeded)
	assert.Equal(t, http.StatusGatewayTimeout, env.do(t, http.MethodPost, "/mint", `{"account":"`+alice+`"}`).Code)

	env.minter.err = errors.New("execution reverted")
	rec := env.do(t, http.MethodPost, "/mint", `{"account":"`+alice+`"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	base, _ := decode[any](t, rec)
	assert.Equal(t, "execution reverted", base.Msg)
}

func TestPutAccount(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPut, "/account", `{"account":"`+bob+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, bob, env.gallery.Account())

	rec = env.do(t, http.MethodPut, "/account", `{"account":""}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, env.gallery.Account(), "empty account disconnects")

	rec = env.do(t, http.MethodPut, "/account", `{"account":"0x12"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefresh(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/refresh", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []domain.Trigger{domain.TriggerManual}, env.gallery.refreshes)
}

func TestNotifications(t *testing.T) {
	env := newTestEnv(t)
	env.hub.Success("one")
	env.hub.Error("two")

	rec := env.do(t, http.MethodGet, "/notifications", "")
	require.Equal(t, http.StatusOK, rec.Code)
	_, list := decode[[]domain.Notification](t, rec)
	require.Len(t, list, 2)
	assert.Equal(t, domain.LevelError, list[1].Level)

	rec = env.do(t, http.MethodGet, "/notifications?after="+jsonID(list[0].ID), "")
	_, list = decode[[]domain.Notification](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "two", list[0].Message)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/notifications?after=x", "").Code)
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodOptions, "/gallery", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRun_Shutdown(t *testing.T) {
	env := newTestEnv(t)
	s := NewServer(env.gallery, env.minter, env.hub)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "127.0.0.1:0") }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func jsonID(id uint64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
